package scene

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/abid8042/chessnetviz/pkg/domain"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/sim"
	"github.com/abid8042/chessnetviz/pkg/viewport"
)

// Link and selection styling.
const (
	LinkStroke      = "#a0a0a0"
	LinkArrowGap    = 3.0
	LinkMinWidth    = 0.7
	SelectedStroke  = "#0ea5e9"
	HoverStroke     = "#3b82f6"
	EmphasisWidth   = 2.5
	NormalWidth     = 1.0
	DimmedOpacity   = 0.15
	LinkOpacity     = 0.5
	LinkOpacityNear = 0.7
	LinkOpacityFar  = 0.1

	labelDark      = "#111827"
	labelLight     = "#f8fafc"
	emptyLabelDark = "#1f2937"
	emptyLabelLite = "#f3f4f6"
	lightThreshold = 0.58
)

// Glyphs maps FEN piece symbols to chess glyphs.
var Glyphs = map[string]string{
	"P": "♙", "N": "♘", "B": "♗", "R": "♖", "Q": "♕", "K": "♔",
	"p": "♟", "n": "♞", "b": "♝", "r": "♜", "q": "♛", "k": "♚",
}

// Style is the render state shared by every element.
type Style struct {
	Coloring Coloring
	Palette  Palette
	Selected string

	// Ranges are the full-scope metric ranges sequential colorings fall back
	// to when no visible node has a value.
	Ranges map[graph.MetricKey]domain.Range
}

// NodeElement is the visual state of one node.
type NodeElement struct {
	Node graph.Node

	X, Y   float64
	Radius float64

	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
	Hovered     bool

	Label     string
	LabelSize float64
	LabelFill string

	SubLabel     string
	SubLabelSize float64
	SubLabelDY   float64
	SubLabelFill string
}

// ID returns the node id.
func (e *NodeElement) ID() string { return e.Node.ID }

// LinkElement is the visual state of one link.
type LinkElement struct {
	Link graph.Link

	X1, Y1, X2, Y2 float64
	Width          float64
	Opacity        float64
}

// Key returns the link's element key.
func (e *LinkElement) Key() string { return e.Link.Key() }

// Diff reports which element keys entered, stayed or left in a Sync.
type Diff struct {
	NodesEntered []string
	NodesUpdated []string
	NodesExited  []string
	LinksEntered []string
	LinksUpdated []string
	LinksExited  []string
}

// HoverPayload describes the hovered node for a tooltip.
type HoverPayload struct {
	ID      string
	Content string
	X, Y    float64
}

// =============================================================================
// Scene
// =============================================================================

// Scene is a keyed set of node and link elements. Sync joins new data by key,
// Apply moves elements to a simulation frame. It is not safe for concurrent
// use.
type Scene struct {
	dims graph.Dimensions

	nodes     []*NodeElement
	nodeIndex map[string]*NodeElement
	links     []*LinkElement
	linkIndex map[string]*LinkElement

	guide []graph.Point
	style Style
	scale *ColorScale

	connected map[string]bool
}

// New creates an empty scene for a viewport.
func New(dims graph.Dimensions) *Scene {
	return &Scene{
		dims:      dims,
		nodeIndex: make(map[string]*NodeElement),
		linkIndex: make(map[string]*LinkElement),
		style:     Style{Coloring: DefaultColoring, Palette: DefaultPalette},
	}
}

// Dimensions returns the viewport the scene is sized for.
func (s *Scene) Dimensions() graph.Dimensions { return s.dims }

// Resize changes the viewport and re-derives sizes.
func (s *Scene) Resize(dims graph.Dimensions) {
	s.dims = dims
	s.restyle()
	s.placeLinks()
}

// Sync joins nodes and links by key. Surviving nodes keep their position;
// entering nodes start at the origin until the next Apply. Links with an
// endpoint outside nodes are not rendered.
func (s *Scene) Sync(nodes []graph.Node, links []graph.Link, style Style) Diff {
	var d Diff
	if style.Coloring == nil {
		style.Coloring = DefaultColoring
	}
	if style.Palette == "" {
		style.Palette = DefaultPalette
	}
	s.style = style

	next := make([]*NodeElement, 0, len(nodes))
	index := make(map[string]*NodeElement, len(nodes))
	for i := range nodes {
		n := nodes[i]
		if _, dup := index[n.ID]; dup {
			continue
		}
		e, ok := s.nodeIndex[n.ID]
		if ok {
			d.NodesUpdated = append(d.NodesUpdated, n.ID)
			e.Node = n
		} else {
			d.NodesEntered = append(d.NodesEntered, n.ID)
			e = &NodeElement{Node: n}
		}
		next = append(next, e)
		index[n.ID] = e
	}
	for _, e := range s.nodes {
		if _, ok := index[e.ID()]; !ok {
			d.NodesExited = append(d.NodesExited, e.ID())
		}
	}
	s.nodes, s.nodeIndex = next, index

	nextLinks := make([]*LinkElement, 0, len(links))
	linkIndex := make(map[string]*LinkElement, len(links))
	for _, l := range links {
		if _, ok := index[l.Source]; !ok {
			continue
		}
		if _, ok := index[l.Target]; !ok {
			continue
		}
		key := l.Key()
		if _, dup := linkIndex[key]; dup {
			continue
		}
		e, ok := s.linkIndex[key]
		if ok {
			d.LinksUpdated = append(d.LinksUpdated, key)
			e.Link = l
		} else {
			d.LinksEntered = append(d.LinksEntered, key)
			e = &LinkElement{Link: l}
		}
		nextLinks = append(nextLinks, e)
		linkIndex[key] = e
	}
	for _, e := range s.links {
		if _, ok := linkIndex[e.Key()]; !ok {
			d.LinksExited = append(d.LinksExited, e.Key())
		}
	}
	s.links, s.linkIndex = nextLinks, linkIndex

	s.restyle()
	s.placeLinks()
	return d
}

// Apply moves elements to the positions in f. Ids missing from the frame
// keep their previous position.
func (s *Scene) Apply(f sim.Frame) {
	for _, p := range f.Positions {
		if e, ok := s.nodeIndex[p.ID]; ok {
			e.X, e.Y = p.X, p.Y
		}
	}
	s.placeLinks()
}

// SetGuide sets the spiral guide polyline; nil removes it.
func (s *Scene) SetGuide(pts []graph.Point) { s.guide = pts }

// Guide returns the guide polyline.
func (s *Scene) Guide() []graph.Point { return s.guide }

// Style returns the active style.
func (s *Scene) Style() Style { return s.style }

// Scale returns the color scale of the last restyle.
func (s *Scene) Scale() *ColorScale { return s.scale }

// Nodes returns the node elements in data order.
func (s *Scene) Nodes() []*NodeElement { return s.nodes }

// Links returns the rendered link elements in data order.
func (s *Scene) Links() []*LinkElement { return s.links }

// Node returns the element for id.
func (s *Scene) Node(id string) (*NodeElement, bool) {
	e, ok := s.nodeIndex[id]
	return e, ok
}

// =============================================================================
// Interaction
// =============================================================================

// Select makes id the selected node; "" clears the selection.
func (s *Scene) Select(id string) {
	s.style.Selected = id
	s.restyle()
}

// Connected reports whether id is linked to the selected node.
func (s *Scene) Connected(id string) bool { return s.connected[id] }

// Hover highlights id and returns its tooltip payload.
func (s *Scene) Hover(id string) (HoverPayload, bool) {
	e, ok := s.nodeIndex[id]
	if !ok {
		return HoverPayload{}, false
	}
	e.Hovered = true
	e.Stroke, e.StrokeWidth = HoverStroke, EmphasisWidth
	return HoverPayload{ID: id, Content: HoverText(&e.Node), X: e.X, Y: e.Y}, true
}

// Unhover restores id's selection-dependent stroke.
func (s *Scene) Unhover(id string) {
	if e, ok := s.nodeIndex[id]; ok {
		e.Hovered = false
		s.styleStroke(e)
	}
}

// Click returns a copy of the clicked node, or nil for the background or an
// unknown id.
func (s *Scene) Click(id string) *graph.Node {
	e, ok := s.nodeIndex[id]
	if !ok {
		return nil
	}
	n := e.Node
	return &n
}

// HoverText formats the tooltip content for n.
func HoverText(n *graph.Node) string {
	piece := "Empty"
	if n.HasPiece {
		piece = fmt.Sprintf("%s (%s, %s)", n.PieceTypeName, n.PieceColor, n.PieceSymbol)
	}
	in, _ := n.Metric(graph.InDegreeCentrality)
	out, _ := n.Metric(graph.OutDegreeCentrality)
	return fmt.Sprintf("ID: %s\nPiece: %s\nGroup: %s\nIn-Deg: %.2f\nOut-Deg: %.2f",
		n.ID, piece, n.GroupTag(), in, out)
}

// =============================================================================
// Styling
// =============================================================================

func (s *Scene) restyle() {
	nodes := make([]graph.Node, len(s.nodes))
	for i, e := range s.nodes {
		nodes[i] = e.Node
	}
	s.scale = NewColorScale(s.style.Coloring, s.style.Palette, nodes, s.style.Ranges)

	s.connected = make(map[string]bool)
	if sel := s.style.Selected; sel != "" {
		for _, e := range s.links {
			switch sel {
			case e.Link.Source:
				s.connected[e.Link.Target] = true
			case e.Link.Target:
				s.connected[e.Link.Source] = true
			}
		}
	}

	for _, e := range s.nodes {
		s.styleNode(e)
	}
	for _, e := range s.links {
		e.Width = math.Max(LinkMinWidth, math.Sqrt(weightOrOne(e.Link.Weight))/2)
		switch {
		case s.style.Selected == "":
			e.Opacity = LinkOpacity
		case e.Link.Touches(s.style.Selected):
			e.Opacity = LinkOpacityNear
		default:
			e.Opacity = LinkOpacityFar
		}
	}
}

func weightOrOne(w float64) float64 {
	if w == 0 || math.IsNaN(w) {
		return 1
	}
	return w
}

func (s *Scene) styleNode(e *NodeElement) {
	n := &e.Node
	r := layout.VisualRadius(n.HasPiece, s.dims)
	e.Radius = r
	e.Fill = s.scale.Fill(n)
	s.styleStroke(e)

	e.Opacity = 1
	if sel := s.style.Selected; sel != "" && n.ID != sel && !s.connected[n.ID] {
		e.Opacity = DimmedOpacity
	}

	if n.HasPiece && n.PieceSymbol != "" {
		e.Label = n.PieceSymbol
		if g, ok := Glyphs[n.PieceSymbol]; ok {
			e.Label = g
		}
	} else {
		e.Label = n.ID
	}

	if n.HasPiece {
		e.LabelSize = math.Max(10, math.Min(r*1.25, 26))
	} else {
		e.LabelSize = math.Max(8, math.Min(r, 13))
	}

	switch {
	case n.HasPiece && n.PieceColor != "":
		e.LabelFill = labelLight
		if n.PieceColor == graph.ColorBlack {
			e.LabelFill = labelDark
		}
	case Lightness(e.Fill) > lightThreshold:
		e.LabelFill = emptyLabelDark
	default:
		e.LabelFill = emptyLabelLite
	}

	e.SubLabel, e.SubLabelSize, e.SubLabelDY, e.SubLabelFill = "", 0, 0, ""
	if n.HasPiece {
		e.SubLabel = n.ID
		e.SubLabelSize = math.Max(8, math.Min(r*0.6, 14))
		e.SubLabelDY = r + r*0.6 + 3
		e.SubLabelFill = labelDark
	}
}

func (s *Scene) styleStroke(e *NodeElement) {
	switch {
	case e.Hovered:
		e.Stroke, e.StrokeWidth = HoverStroke, EmphasisWidth
	case e.Node.ID == s.style.Selected:
		e.Stroke, e.StrokeWidth = SelectedStroke, EmphasisWidth
	default:
		e.Stroke, e.StrokeWidth = Darker(e.Fill, StrokeDarken), NormalWidth
	}
}

// placeLinks recomputes link endpoints, pulling the target end back to the
// edge of the target circle plus the arrow gap.
func (s *Scene) placeLinks() {
	for _, e := range s.links {
		src := s.nodeIndex[e.Link.Source]
		tgt := s.nodeIndex[e.Link.Target]
		e.X1, e.Y1 = src.X, src.Y
		dx, dy := tgt.X-src.X, tgt.Y-src.Y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			e.X2, e.Y2 = tgt.X, tgt.Y
			continue
		}
		r := layout.VisualRadius(tgt.Node.HasPiece, s.dims) + LinkArrowGap
		k := math.Max(0, (dist-r)/dist)
		e.X2, e.Y2 = src.X+dx*k, src.Y+dy*k
	}
}

// =============================================================================
// Geometry and Export
// =============================================================================

// Bounds returns the bounding box of every rendered circle, label, link and
// the guide path, in layout coordinates.
func (s *Scene) Bounds() viewport.Bounds {
	var b viewport.Bounds
	for _, p := range s.guide {
		b.AddPoint(p.X, p.Y)
	}
	for _, e := range s.links {
		b.AddPoint(e.X1, e.Y1)
		b.AddPoint(e.X2, e.Y2)
	}
	for _, e := range s.nodes {
		b.AddCircle(e.X, e.Y, e.Radius)
		w := textWidth(e.Label, e.LabelSize)
		b.AddRect(e.X-w/2, e.Y-e.LabelSize/2, w, e.LabelSize)
		if e.SubLabel != "" {
			w := textWidth(e.SubLabel, e.SubLabelSize)
			b.AddRect(e.X-w/2, e.Y+e.SubLabelDY-e.SubLabelSize, w, e.SubLabelSize)
		}
	}
	return b
}

// textWidth estimates the advance of a bold label.
func textWidth(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.62
}

// Snapshot exports the scene's elements with the given fit transform.
func (s *Scene) Snapshot(layoutType graph.LayoutType, t graph.Transform) graph.Snapshot {
	snap := graph.Snapshot{
		Layout:    layoutType,
		Width:     s.dims.Width,
		Height:    s.dims.Height,
		Coloring:  s.style.Coloring.ID(),
		Palette:   string(s.style.Palette),
		Selected:  s.style.Selected,
		Nodes:     make([]graph.PlacedNode, len(s.nodes)),
		Links:     make([]graph.PlacedLink, len(s.links)),
		Guide:     s.guide,
		Transform: t,
	}
	for i, e := range s.nodes {
		snap.Nodes[i] = graph.PlacedNode{
			ID:           e.ID(),
			X:            e.X,
			Y:            e.Y,
			Radius:       e.Radius,
			GroupTag:     e.Node.GroupTag(),
			HasPiece:     e.Node.HasPiece,
			Symbol:       e.Node.PieceSymbol,
			Fill:         e.Fill,
			Stroke:       e.Stroke,
			StrokeWidth:  e.StrokeWidth,
			Opacity:      e.Opacity,
			Label:        e.Label,
			LabelSize:    e.LabelSize,
			LabelFill:    e.LabelFill,
			SubLabel:     e.SubLabel,
			SubLabelSize: e.SubLabelSize,
			SubLabelDY:   e.SubLabelDY,
			SubLabelFill: e.SubLabelFill,
		}
	}
	for i, e := range s.links {
		snap.Links[i] = graph.PlacedLink{
			Key:     e.Key(),
			Source:  e.Link.Source,
			Target:  e.Link.Target,
			X1:      e.X1,
			Y1:      e.Y1,
			X2:      e.X2,
			Y2:      e.Y2,
			Weight:  e.Link.Weight,
			Width:   e.Width,
			Opacity: e.Opacity,
		}
	}
	return snap
}
