package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
	"github.com/abid8042/chessnetviz/pkg/scene"
	"github.com/abid8042/chessnetviz/pkg/sim"
	"github.com/abid8042/chessnetviz/pkg/viewport"
)

// frameInterval paces simulation ticks in the viewer; stepsPerFrame ticks
// run per frame so a layout settles in a few seconds.
const (
	frameInterval = 33 * time.Millisecond
	stepsPerFrame = 3
)

// =============================================================================
// Key Bindings
// =============================================================================

type viewKeys struct {
	Prev     key.Binding
	Next     key.Binding
	Scope    key.Binding
	Layout   key.Binding
	Coloring key.Binding
	Palette  key.Binding
	SelNext  key.Binding
	SelPrev  key.Binding
	Clear    key.Binding
	Reheat   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultViewKeys() viewKeys {
	return viewKeys{
		Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev move")),
		Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next move")),
		Scope:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scope")),
		Layout:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "layout")),
		Coloring: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "coloring")),
		Palette:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "palette")),
		SelNext:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "select next")),
		SelPrev:  key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "select prev")),
		Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		Reheat:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k viewKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Layout, k.Scope, k.Coloring, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Scope, k.Layout},
		{k.Coloring, k.Palette, k.Reheat},
		{k.SelNext, k.SelPrev, k.Clear},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

type tickMsg struct{}

// fitMsg carries the generation of the fit it was scheduled for. The
// debouncer drops superseded fits; the generation catches one already in
// flight.
type fitMsg struct{ gen int }

type reloadMsg struct{ src *pipeline.Source }

type reloadErrMsg struct{ err error }

// =============================================================================
// Model
// =============================================================================

// viewModel is the bubbletea model of the live viewer. The simulation,
// scene and fit all live on the bubbletea goroutine.
type viewModel struct {
	src  *pipeline.Source
	base pipeline.Options // unvalidated; copied and validated per configuration
	opts pipeline.Options // validated copy in effect

	driver *sim.Driver
	params layout.Params
	sc     *scene.Scene
	proc   *dataset.Processed
	nodes  []graph.Node

	fit     graph.Transform
	fitGen  int
	fits    *viewport.Debouncer
	fitCh   chan int
	quit    chan struct{}
	ticks   int
	running bool
	cursor  int
	err     error

	keys   viewKeys
	help   help.Model
	width  int
	height int

	watch func() tea.Cmd
}

// newViewModel builds a viewer over src. base must not have been validated.
func newViewModel(src *pipeline.Source, base pipeline.Options) (*viewModel, error) {
	m := &viewModel{
		src:    src,
		base:   base,
		cursor: -1,
		fits:   viewport.NewDebouncer(nil),
		fitCh:  make(chan int, 1),
		quit:   make(chan struct{}),
		keys:   defaultViewKeys(),
		help:   help.New(),
		width:  100,
		height: 32,
	}
	m.driver = sim.NewDriver(sim.New(sim.WithSeed(base.Seed)), &m.params, base.Logger)
	if err := m.configure(); err != nil {
		return nil, err
	}
	return m, nil
}

// configure validates base, processes the current move scope and restarts
// the simulation. Positions of squares still visible carry over.
func (m *viewModel) configure() error {
	opts := m.base
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	proc, err := m.src.Dataset.Process(opts.Move, graph.Scope(opts.Scope))
	if err != nil {
		return err
	}
	nodes, links := pipeline.Visible(proc, &opts)

	m.params = opts.LayoutParams()
	dims := opts.Dimensions()
	lt := graph.LayoutType(opts.Layout)
	if err := m.driver.Configure(sim.Request{
		Nodes:      nodes,
		Links:      links,
		Layout:     lt,
		Dimensions: dims,
		Sort:       opts.SortConfig(),
	}); err != nil {
		return err
	}

	if m.sc == nil {
		m.sc = scene.New(dims)
	}
	m.sc.Sync(nodes, links, opts.Style(proc))
	m.sc.SetGuide(nil)
	if lt == graph.LayoutSpiral && len(nodes) > 0 {
		m.sc.SetGuide(layout.SpiralGuide(len(nodes), dims, m.params.Spiral))
	}
	m.sc.Apply(m.driver.Sim.Frame())

	m.opts, m.proc, m.nodes = opts, proc, nodes
	m.ticks = 0
	m.running = true
	m.err = nil
	m.fitGen++
	if m.cursor >= len(nodes) {
		m.cursor = -1
	}
	if m.fit.K == 0 {
		m.fit = viewport.Fit(m.sc.Bounds(), dims)
	}
	return nil
}

// reconfigure applies a change to base, keeping the previous state when
// the change is rejected. A tick chain is only started when none is
// running; the running chain picks up the new configuration.
func (m *viewModel) reconfigure(change func(*pipeline.Options)) tea.Cmd {
	prev := m.base
	wasRunning := m.running
	change(&m.base)
	if err := m.configure(); err != nil {
		m.base = prev
		m.err = err
		return nil
	}
	m.scheduleFit()
	if wasRunning {
		return nil
	}
	return m.tick()
}

func (m *viewModel) tick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// scheduleFit arranges a re-fit after the layout's settle delay, cancelling
// any fit still pending. The result arrives through waitFit.
func (m *viewModel) scheduleFit() {
	gen := m.fitGen
	m.fits.ScheduleFit(graph.LayoutType(m.opts.Layout), func() {
		// Keep only the newest generation.
		select {
		case <-m.fitCh:
		default:
		}
		select {
		case m.fitCh <- gen:
		default:
		}
	})
}

// waitFit delivers the next debounced fit to Update.
func (m *viewModel) waitFit() tea.Cmd {
	return func() tea.Msg {
		select {
		case gen := <-m.fitCh:
			return fitMsg{gen: gen}
		case <-m.quit:
			return nil
		}
	}
}

// rewatch waits for the next change of the dataset file, if watched.
func (m *viewModel) rewatch() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	return m.watch()
}

// Init implements tea.Model.
func (m *viewModel) Init() tea.Cmd {
	m.scheduleFit()
	return tea.Batch(m.tick(), m.waitFit(), m.rewatch())
}

// Update implements tea.Model.
func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if !m.running {
			return m, nil
		}
		for i := 0; i < stepsPerFrame; i++ {
			f, ok := m.driver.Step()
			if !ok {
				m.running = false
				break
			}
			m.ticks++
			m.sc.Apply(f)
		}
		if m.running {
			return m, m.tick()
		}
		return m, nil

	case fitMsg:
		if msg.gen == m.fitGen {
			m.fit = viewport.Fit(m.sc.Bounds(), m.opts.Dimensions())
		}
		return m, m.waitFit()

	case reloadMsg:
		m.src = msg.src
		if n := m.src.Dataset.Len(); m.base.Move >= n {
			m.base.Move = max(n-1, 0)
		}
		cmd := m.reconfigure(func(*pipeline.Options) {})
		return m, tea.Batch(cmd, m.rewatch())

	case reloadErrMsg:
		m.err = msg.err
		return m, m.rewatch()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *viewModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.fits.Cancel()
		select {
		case <-m.quit:
		default:
			close(m.quit)
		}
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Prev):
		if m.base.Move > 0 {
			return m.reconfigure(func(o *pipeline.Options) { o.Move-- })
		}
	case key.Matches(msg, m.keys.Next):
		if m.base.Move < m.src.Dataset.Len()-1 {
			return m.reconfigure(func(o *pipeline.Options) { o.Move++ })
		}
	case key.Matches(msg, m.keys.Scope):
		return m.reconfigure(func(o *pipeline.Options) {
			o.Scope = string(cycle(graph.Scopes, graph.Scope(m.opts.Scope)))
		})
	case key.Matches(msg, m.keys.Layout):
		return m.reconfigure(func(o *pipeline.Options) {
			o.Layout = string(cycle(graph.LayoutTypes, graph.LayoutType(m.opts.Layout)))
			o.Params = nil
		})
	case key.Matches(msg, m.keys.Coloring):
		m.restyle(func(o *pipeline.Options) { o.Coloring = cycle(scene.ColoringIDs(), m.opts.Coloring) })
	case key.Matches(msg, m.keys.Palette):
		m.restyle(func(o *pipeline.Options) {
			o.Palette = string(cycle(scene.Palettes, scene.Palette(m.opts.Palette)))
		})
	case key.Matches(msg, m.keys.SelNext):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.SelPrev):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Clear):
		m.cursor = -1
		m.restyle(func(o *pipeline.Options) { o.Selected = "" })
	case key.Matches(msg, m.keys.Reheat):
		return m.reconfigure(func(*pipeline.Options) {})
	}
	return nil
}

// restyle changes style-only options without restarting the simulation.
func (m *viewModel) restyle(change func(*pipeline.Options)) {
	change(&m.base)
	opts := m.base
	if err := opts.ValidateAndSetDefaults(); err != nil {
		m.err = err
		return
	}
	m.opts = opts
	m.sc.Sync(m.nodes, m.visibleLinks(), opts.Style(m.proc))
	m.err = nil
}

func (m *viewModel) visibleLinks() []graph.Link {
	out := make([]graph.Link, len(m.sc.Links()))
	for i, l := range m.sc.Links() {
		out[i] = l.Link
	}
	return out
}

func (m *viewModel) moveCursor(delta int) {
	n := len(m.nodes)
	if n == 0 {
		return
	}
	m.cursor = ((m.cursor+delta)%n + n) % n
	id := m.nodes[m.cursor].ID
	m.restyle(func(o *pipeline.Options) { o.Selected = id })
}

// cycle returns the element after cur in values, wrapping around.
func cycle[T comparable](values []T, cur T) T {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// =============================================================================
// View
// =============================================================================

var (
	viewHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewMetaStyle   = lipgloss.NewStyle().Foreground(colorGray)
	viewErrStyle    = lipgloss.NewStyle().Foreground(colorRed)
	viewPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

// View implements tea.Model.
func (m *viewModel) View() string {
	var b strings.Builder

	label := "-"
	if move, err := m.src.Dataset.Move(m.opts.Move); err == nil {
		label = move.Label()
	}
	b.WriteString(viewHeaderStyle.Render("Move " + label))
	b.WriteString("  ")
	b.WriteString(viewMetaStyle.Render(fmt.Sprintf("%s · %s · color %s · %s",
		m.opts.Scope, m.opts.Layout, m.opts.Coloring, m.opts.Palette)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%d nodes · %d links · %s · α=%.3f · %d ticks",
		len(m.sc.Nodes()), len(m.sc.Links()), m.driver.State(), m.driver.Sim.Alpha(), m.ticks)))
	b.WriteString("\n")

	helpView := m.help.View(m.keys)
	detail := m.detail()
	reserved := 2 + 2 + lipgloss.Height(helpView) + lipgloss.Height(detail)
	cols, rows := max(m.width-2, 10), max(m.height-reserved, 5)
	b.WriteString(viewPanelStyle.Render(m.canvas(cols, rows)))
	b.WriteString("\n")

	b.WriteString(detail)
	b.WriteString(helpView)
	return b.String()
}

// detail renders the selected node's tooltip text and any error.
func (m *viewModel) detail() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(viewErrStyle.Render(m.err.Error()) + "\n")
	}
	if m.cursor >= 0 && m.cursor < len(m.nodes) {
		if e, ok := m.sc.Node(m.nodes[m.cursor].ID); ok {
			b.WriteString(StyleValue.Render(strings.ReplaceAll(scene.HoverText(&e.Node), "\n", " · ")) + "\n")
		}
	}
	return b.String()
}

// canvas rasterizes the scene into a cols×rows character grid using the
// current fit transform.
func (m *viewModel) canvas(cols, rows int) string {
	dims := m.opts.Dimensions()
	sx := float64(cols) / dims.Width
	sy := float64(rows) / dims.Height
	toCell := func(x, y float64) (int, int) {
		px, py := m.fit.Apply(x, y)
		return int(math.Round(px * sx)), int(math.Round(py * sy))
	}

	grid := newGrid(cols, rows)
	guide := lipgloss.NewStyle().Foreground(lipgloss.Color("#cbd5e1")).Faint(true)
	for _, p := range m.sc.Guide() {
		c, r := toCell(p.X, p.Y)
		grid.set(c, r, '∙', guide)
	}
	for _, l := range m.sc.Links() {
		st := lipgloss.NewStyle().Foreground(lipgloss.Color("#a0a0a0")).Faint(l.Opacity < 0.5)
		c1, r1 := toCell(l.X1, l.Y1)
		c2, r2 := toCell(l.X2, l.Y2)
		grid.line(c1, r1, c2, r2, '·', st)
	}
	for _, e := range m.sc.Nodes() {
		c, r := toCell(e.X, e.Y)
		glyph := '○'
		if e.Node.HasPiece && e.Node.PieceSymbol != "" {
			glyph = []rune(e.Node.PieceSymbol)[0]
		}
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Fill)).Faint(e.Opacity < 0.5)
		if e.Node.ID == m.opts.Selected {
			st = st.Bold(true).Reverse(true)
		}
		grid.set(c, r, glyph, st)
	}
	return grid.String()
}

// grid is a fixed-size character canvas with a style per cell.
type grid struct {
	cols, rows int
	cells      []rune
	styles     []*lipgloss.Style
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([]rune, cols*rows), styles: make([]*lipgloss.Style, cols*rows)}
	for i := range g.cells {
		g.cells[i] = ' '
	}
	return g
}

func (g *grid) set(c, r int, ch rune, st lipgloss.Style) {
	if c < 0 || r < 0 || c >= g.cols || r >= g.rows {
		return
	}
	g.cells[r*g.cols+c] = ch
	g.styles[r*g.cols+c] = &st
}

// line draws a Bresenham line, leaving endpoints for the nodes.
func (g *grid) line(c1, r1, c2, r2 int, ch rune, st lipgloss.Style) {
	dc, dr := abs(c2-c1), -abs(r2-r1)
	sc, sr := sign(c2-c1), sign(r2-r1)
	e := dc + dr
	c, r := c1, r1
	for steps := 0; steps < g.cols+g.rows; steps++ {
		if (c != c1 || r != r1) && (c != c2 || r != r2) {
			g.set(c, r, ch, st)
		}
		if c == c2 && r == r2 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c += sc
		}
		if e2 <= dc {
			e += dc
			r += sr
		}
	}
}

func (g *grid) String() string {
	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < g.cols; c++ {
			i := r*g.cols + c
			if st := g.styles[i]; st != nil {
				b.WriteString(st.Render(string(g.cells[i])))
			} else {
				b.WriteRune(g.cells[i])
			}
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
