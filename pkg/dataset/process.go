package dataset

import (
	"math"
	"sort"

	"github.com/abid8042/chessnetviz/pkg/domain"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
)

// Group is the nodes sharing one group tag, in first-seen order.
type Group struct {
	Tag   string   `json:"group_tag"`
	Nodes []string `json:"nodes"`
}

// Processed is one move scope ready for filtering and layout.
type Processed struct {
	Move      int                              `json:"move"`
	Scope     graph.Scope                      `json:"scope"`
	Nodes     []graph.Node                     `json:"nodes"`
	Links     []graph.Link                     `json:"links"`
	Groups    []Group                          `json:"groups"`
	Aggregate AggregateStats                   `json:"aggregate"`
	Ranges    map[graph.MetricKey]domain.Range `json:"-"`
}

// Process prepares move idx in scope s.
func (d *Dataset) Process(idx int, s graph.Scope) (*Processed, error) {
	m, err := d.Move(idx)
	if err != nil {
		return nil, err
	}
	p, err := ProcessMove(m, s)
	if err != nil {
		return nil, err
	}
	p.Move = idx
	return p, nil
}

// ProcessMove converts one scope of m into graph nodes and links. Nodes with
// a piece are matched to the active piece on their square for the original
// piece id and get a display type name.
func ProcessMove(m *Move, s graph.Scope) (*Processed, error) {
	sd := m.Graphs.Scope(s)
	if sd == nil {
		return nil, errors.New(errors.ErrCodeInvalidScope, "move %d has no %q scope", m.Number, s)
	}

	onSquare := make(map[string]*Piece, len(m.Pieces))
	for i := range m.Pieces {
		if p := &m.Pieces[i]; p.Status == StatusActive {
			onSquare[p.Square] = p
		}
	}

	p := &Processed{
		Scope: s,
		Nodes: make([]graph.Node, len(sd.Nodes)),
		Links: make([]graph.Link, len(sd.Links)),
	}
	if sd.Aggregate != nil {
		p.Aggregate = *sd.Aggregate
	}

	groupIndex := make(map[string]int)
	for i := range sd.Nodes {
		n := sd.Nodes[i].Node()
		if n.HasPiece {
			name, known := graph.PieceTypeNames[n.PieceType]
			if piece, ok := onSquare[n.ID]; ok {
				n.OriginalPieceID = piece.ID
				if !known {
					name = piece.Type
				}
				n.PieceTypeName = name
			} else if known {
				n.PieceTypeName = name
			}
		}
		p.Nodes[i] = n

		tag := n.GroupTag()
		gi, ok := groupIndex[tag]
		if !ok {
			gi = len(p.Groups)
			groupIndex[tag] = gi
			p.Groups = append(p.Groups, Group{Tag: tag})
		}
		p.Groups[gi].Nodes = append(p.Groups[gi].Nodes, n.ID)
	}
	for i := range sd.Links {
		p.Links[i] = sd.Links[i].Link()
	}
	p.Ranges = DataRanges(p.Nodes)
	return p, nil
}

// DataRanges returns the [min, max] of every metric over nodes. A metric with
// no present value gets [0, 0].
func DataRanges(nodes []graph.Node) map[graph.MetricKey]domain.Range {
	ranges := make(map[graph.MetricKey]domain.Range, graph.NumMetrics)
	for _, k := range graph.MetricKeys() {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range nodes {
			if v, ok := nodes[i].Metric(k); ok {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
		if math.IsInf(lo, 1) {
			lo = 0
		}
		if math.IsInf(hi, -1) {
			hi = 0
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		ranges[k] = domain.Range{Min: lo, Max: hi}
	}
	return ranges
}

// CapturedPieces returns every piece whose latest state up to move idx is
// captured at or before idx, ordered by capture move.
func CapturedPieces(moves []Move, idx int) []Piece {
	if len(moves) == 0 || idx < 0 {
		return nil
	}
	if idx > len(moves)-1 {
		idx = len(moves) - 1
	}

	latest := make(map[string]Piece)
	var order []string
	for i := 0; i <= idx; i++ {
		for _, p := range moves[i].Pieces {
			if _, seen := latest[p.ID]; !seen {
				order = append(order, p.ID)
			}
			latest[p.ID] = p
		}
	}

	var out []Piece
	for _, id := range order {
		if p := latest[id]; p.Captured(idx) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].CapturedAt < *out[j].CapturedAt })
	return out
}
