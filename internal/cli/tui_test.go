package cli

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abid8042/chessnetviz/pkg/config"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
	"github.com/abid8042/chessnetviz/pkg/sim"
	"github.com/abid8042/chessnetviz/pkg/viewport"
)

func newTestViewModel(t *testing.T) *viewModel {
	t.Helper()
	src, err := pipeline.Load(context.Background(), testDataset)
	require.NoError(t, err)

	opts := config.Default().PipelineOptions()
	opts.MaxTicks = 50
	m, err := newViewModel(src, opts)
	require.NoError(t, err)
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewModelConfiguresFirstMove(t *testing.T) {
	m := newTestViewModel(t)

	assert.Len(t, m.nodes, 3)
	assert.Len(t, m.sc.Nodes(), 3)
	assert.True(t, m.running)
	assert.NotZero(t, m.fit.K)
	assert.Contains(t, m.View(), "Move")
}

func TestViewModelScrubsMoves(t *testing.T) {
	m := newTestViewModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.opts.Move, "no move before the first")

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.opts.Move)
	assert.Len(t, m.nodes, 1)

	m.Update(keyRunes("l"))
	assert.Equal(t, 1, m.opts.Move, "no move after the last")
}

func TestViewModelCyclesLayoutAndScope(t *testing.T) {
	m := newTestViewModel(t)
	start := m.opts.Layout

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.NotEqual(t, start, m.opts.Layout)
	assert.Equal(t, graph.LayoutType(m.opts.Layout), m.driver.Layout())

	for range len(graph.LayoutTypes) - 1 {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	assert.Equal(t, start, m.opts.Layout)

	m.Update(keyRunes("s"))
	assert.Equal(t, string(graph.ScopeWhite), m.opts.Scope)
	assert.Len(t, m.nodes, 2)
}

func TestViewModelSpiralGuide(t *testing.T) {
	m := newTestViewModel(t)
	for graph.LayoutType(m.opts.Layout) != graph.LayoutSpiral {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	assert.NotEmpty(t, m.sc.Guide())
}

func TestViewModelTicksUntilRest(t *testing.T) {
	m := newTestViewModel(t)

	for i := 0; i < 1000 && m.running; i++ {
		m.Update(tickMsg{})
	}
	assert.False(t, m.running)
	assert.Equal(t, sim.StateIdle, m.driver.State())
	assert.Positive(t, m.ticks)

	_, cmd := m.Update(tickMsg{})
	assert.Nil(t, cmd, "no ticks scheduled at rest")
}

func TestViewModelIgnoresStaleFit(t *testing.T) {
	m := newTestViewModel(t)
	m.fit = graph.Transform{K: 42}

	m.Update(fitMsg{gen: m.fitGen - 1})
	assert.Equal(t, 42.0, m.fit.K)

	m.Update(fitMsg{gen: m.fitGen})
	assert.NotEqual(t, 42.0, m.fit.K)
}

func TestViewModelKeepsOneTickChain(t *testing.T) {
	m := newTestViewModel(t)
	m.Init()
	require.True(t, m.running)

	for i := 0; i < 3; i++ {
		_, cmd := m.Update(keyRunes("r"))
		assert.Nil(t, cmd, "the running chain picks up the restart")
		assert.True(t, m.running)
	}

	for i := 0; i < 1000 && m.running; i++ {
		m.Update(tickMsg{})
	}
	require.False(t, m.running)

	_, cmd := m.Update(keyRunes("r"))
	require.NotNil(t, cmd, "a restart at rest starts a new chain")
	assert.IsType(t, tickMsg{}, cmd())
}

func TestViewModelDebouncesFit(t *testing.T) {
	m := newTestViewModel(t)
	clock := &viewport.ManualClock{}
	m.fits = viewport.NewDebouncer(clock)
	m.reconfigure(func(o *pipeline.Options) { o.Layout = string(graph.LayoutForceDirected) })

	for i := 0; i < 3; i++ {
		m.Update(keyRunes("r"))
	}
	assert.Equal(t, 1, clock.Pending(), "earlier fits are cancelled")

	clock.Advance(viewport.SettleDelay(graph.LayoutForceDirected))
	msg := m.waitFit()()
	assert.Equal(t, fitMsg{gen: m.fitGen}, msg)

	m.fit = graph.Transform{K: 42}
	_, cmd := m.Update(msg)
	assert.NotEqual(t, 42.0, m.fit.K)
	assert.NotNil(t, cmd, "waits for the next fit")
}

func TestViewModelSelection(t *testing.T) {
	m := newTestViewModel(t)

	m.Update(keyRunes("j"))
	require.Equal(t, 0, m.cursor)
	assert.Equal(t, m.nodes[0].ID, m.opts.Selected)
	assert.Equal(t, m.nodes[0].ID, m.sc.Style().Selected)

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, len(m.nodes)-1, m.cursor, "wraps around")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, -1, m.cursor)
	assert.Empty(t, m.opts.Selected)
}

func TestViewModelRestyleKeepsSimulation(t *testing.T) {
	m := newTestViewModel(t)
	m.Update(tickMsg{})
	ticks := m.ticks
	palette := m.opts.Palette
	coloring := m.opts.Coloring

	m.Update(keyRunes("p"))
	m.Update(keyRunes("c"))
	assert.NotEqual(t, palette, m.opts.Palette)
	assert.NotEqual(t, coloring, m.opts.Coloring)
	assert.Equal(t, ticks, m.ticks)
}

func TestViewModelReload(t *testing.T) {
	m := newTestViewModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 1, m.opts.Move)

	src := *m.src
	ds := *src.Dataset
	ds.Moves = ds.Moves[:1]
	src.Dataset = &ds

	m.Update(reloadMsg{src: &src})
	assert.Equal(t, 0, m.opts.Move, "clamped to the shorter dataset")
	assert.NoError(t, m.err)

	m.Update(reloadErrMsg{err: assert.AnError})
	assert.ErrorIs(t, m.err, assert.AnError)
	assert.Contains(t, m.View(), assert.AnError.Error())
}

func TestViewModelQuit(t *testing.T) {
	m := newTestViewModel(t)
	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, m.waitFit()(), "fit waiter released on quit")

	_, cmd = m.Update(keyRunes("q"))
	assert.NotNil(t, cmd, "quitting twice is safe")
}

func TestViewModelViewFitsWindow(t *testing.T) {
	m := newTestViewModel(t)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 24})

	view := m.View()
	assert.Contains(t, view, "3 nodes")
	assert.LessOrEqual(t, lipgloss.Height(view), 24+2)
}

func TestGridLine(t *testing.T) {
	g := newGrid(5, 1)
	g.line(0, 0, 4, 0, '-', lipgloss.NewStyle())
	assert.Equal(t, " --- ", g.String())
}

func TestCycle(t *testing.T) {
	assert.Equal(t, 2, cycle([]int{1, 2, 3}, 1))
	assert.Equal(t, 1, cycle([]int{1, 2, 3}, 3))
	assert.Equal(t, 1, cycle([]int{1, 2, 3}, 9))
}
