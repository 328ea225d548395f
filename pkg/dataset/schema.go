package dataset

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	json "github.com/goccy/go-json"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
)

// =============================================================================
// Dataset Schema
// =============================================================================

// Dataset is a whole game: one entry per half-move, each with three graph
// scopes.
type Dataset struct {
	Metadata Metadata `json:"metadata"`
	Moves    []Move   `json:"moves" validate:"required,dive"`
}

// Metadata describes the dataset file.
type Metadata struct {
	SchemaVersion string `json:"schema_version"`
	Description   string `json:"description"`
}

// Move is the board state after one half-move.
type Move struct {
	Number int     `json:"n" validate:"gte=0"`
	SAN    string  `json:"m"`
	FEN    string  `json:"f"`
	Pieces []Piece `json:"p" validate:"required,dive"`
	Graphs Graphs  `json:"g"`
}

// Graphs holds the three scope graphs of a move.
type Graphs struct {
	Combined *ScopeData `json:"combined" validate:"required"`
	White    *ScopeData `json:"white" validate:"required"`
	Black    *ScopeData `json:"black" validate:"required"`
}

// Scope returns the graph for s, or nil for an unknown scope.
func (g *Graphs) Scope(s graph.Scope) *ScopeData {
	switch s {
	case graph.ScopeCombined:
		return g.Combined
	case graph.ScopeWhite:
		return g.White
	case graph.ScopeBlack:
		return g.Black
	}
	return nil
}

// Piece statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusCaptured = "captured"
	StatusPromoted = "promoted"
)

// Piece is the state of one piece at a move.
type Piece struct {
	ID          string `json:"id" validate:"required"`
	Type        string `json:"t" validate:"required"`
	Color       string `json:"c" validate:"oneof=white black"`
	Square      string `json:"sq"`
	Status      string `json:"st" validate:"oneof=active inactive captured promoted"`
	MoveCreated int    `json:"mc"`
	CapturedAt  *int   `json:"cap"`
}

// Captured reports whether the piece was captured at or before move idx.
func (p *Piece) Captured(idx int) bool {
	return p.Status == StatusCaptured && p.CapturedAt != nil && *p.CapturedAt <= idx
}

// ScopeData is one scope's influence graph with its statistics.
type ScopeData struct {
	Aggregate  *AggregateStats `json:"agg" validate:"required"`
	Components []Component     `json:"cmp" validate:"required,dive"`
	Nodes      []NodeRecord    `json:"nds" validate:"required,dive"`
	Links      []LinkRecord    `json:"lks" validate:"required,dive"`
}

// AggregateStats are whole-graph statistics of a scope.
type AggregateStats struct {
	FiedlerValue   *float64 `json:"fiedler_value"`
	OutDiameter    float64  `json:"out_diameter"`
	InDiameter     float64  `json:"in_diameter"`
	InDegreeAvg    float64  `json:"in_degree_avg"`
	InDegreeVar    float64  `json:"in_degree_var"`
	OutDegreeAvg   float64  `json:"out_degree_avg"`
	OutDegreeVar   float64  `json:"out_degree_var"`
	Modularity     float64  `json:"modularity"`
	CommunityCount int      `json:"community_count"`
	Clustering     float64  `json:"clustering"`
	SizeEntropy    float64  `json:"size_entropy"`
}

// Component is one connected component with its statistics.
type Component struct {
	Index            int         `json:"index"`
	Size             int         `json:"size" validate:"gte=0"`
	Fiedler          *float64    `json:"fiedler"`
	OutDiameter      float64     `json:"out_diameter"`
	InDiameter       float64     `json:"in_diameter"`
	OutDiameterPaths [][2]string `json:"out_diameter_paths"`
	InDiameterPaths  [][2]string `json:"in_diameter_paths"`
	Modularity       float64     `json:"modularity"`
	Communities      [][]string  `json:"communities"`
	CommunityCount   int         `json:"community_count"`
	Clustering       float64     `json:"clustering"`
	Nodes            []string    `json:"nodes"`
}

// NodeRecord is a square as stored in the dataset: metrics are flat fields
// and piece attributes are nullable.
type NodeRecord struct {
	ID          string  `json:"id" validate:"required"`
	Type        string  `json:"type"`
	Position    string  `json:"position"`
	HasPiece    bool    `json:"has_piece"`
	PieceSymbol *string `json:"piece_symbol"`
	PieceColor  *string `json:"piece_color" validate:"omitempty,oneof=white black"`
	PieceType   *int    `json:"piece_type" validate:"omitempty,gte=1,lte=6"`
	ComponentID int     `json:"component_id"`
	CommunityID int     `json:"community_id"`

	InDegreeCentrality          *float64 `json:"in_degree_centrality"`
	OutDegreeCentrality         *float64 `json:"out_degree_centrality"`
	InDegreeCentralityVariance  *float64 `json:"in_degree_centrality_variance"`
	OutDegreeCentralityVariance *float64 `json:"out_degree_centrality_variance"`
	InDegreeComponentAvg        *float64 `json:"in_degree_component_avg"`
	InDegreeDeviation           *float64 `json:"in_degree_deviation"`
	OutDegreeComponentAvg       *float64 `json:"out_degree_component_avg"`
	OutDegreeDeviation          *float64 `json:"out_degree_deviation"`
}

// Node converts the record into a graph node. Null metrics become absent.
func (r *NodeRecord) Node() graph.Node {
	n := graph.Node{
		ID:          r.ID,
		Type:        r.Type,
		Position:    r.Position,
		HasPiece:    r.HasPiece,
		PieceSymbol: deref(r.PieceSymbol),
		PieceColor:  deref(r.PieceColor),
		ComponentID: r.ComponentID,
		CommunityID: r.CommunityID,
		Metrics:     graph.MissingMetrics(),
	}
	if r.PieceType != nil {
		n.PieceType = *r.PieceType
	}
	for k, v := range r.metrics() {
		if v != nil && finite(*v) {
			n.Metrics[k] = *v
		}
	}
	return n
}

func (r *NodeRecord) metrics() map[graph.MetricKey]*float64 {
	return map[graph.MetricKey]*float64{
		graph.InDegreeCentrality:          r.InDegreeCentrality,
		graph.OutDegreeCentrality:         r.OutDegreeCentrality,
		graph.InDegreeCentralityVariance:  r.InDegreeCentralityVariance,
		graph.OutDegreeCentralityVariance: r.OutDegreeCentralityVariance,
		graph.InDegreeComponentAvg:        r.InDegreeComponentAvg,
		graph.InDegreeDeviation:           r.InDegreeDeviation,
		graph.OutDegreeComponentAvg:       r.OutDegreeComponentAvg,
		graph.OutDegreeDeviation:          r.OutDegreeDeviation,
	}
}

// LinkRecord is an influence edge as stored in the dataset.
type LinkRecord struct {
	Type        string  `json:"type"`
	Source      string  `json:"source" validate:"required"`
	Target      string  `json:"target" validate:"required"`
	Weight      float64 `json:"weight"`
	PieceSymbol *string `json:"piece_symbol"`
	PieceColor  *string `json:"piece_color" validate:"omitempty,oneof=white black"`
	PieceType   *int    `json:"piece_type"`
}

// Link converts the record into a graph link.
func (r *LinkRecord) Link() graph.Link {
	l := graph.Link{
		Type:        r.Type,
		Source:      r.Source,
		Target:      r.Target,
		Weight:      r.Weight,
		PieceSymbol: deref(r.PieceSymbol),
		PieceColor:  deref(r.PieceColor),
	}
	if r.PieceType != nil {
		l.PieceType = *r.PieceType
	}
	return l
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// =============================================================================
// Reading
// =============================================================================

// Read decodes and validates a dataset.
func Read(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "read dataset")
	}
	return Decode(data)
}

// Decode parses and validates dataset bytes.
func Decode(data []byte) (*Dataset, error) {
	var d Dataset
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadFile reads and validates a dataset file.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Validate checks required fields, enums and that every link weight is
// finite. Failures carry errors.ErrCodeInvalidDataset.
func (d *Dataset) Validate() error {
	if err := errors.ValidateStruct(errors.ErrCodeInvalidDataset, d); err != nil {
		return err
	}
	for i := range d.Moves {
		for _, s := range graph.Scopes {
			sd := d.Moves[i].Graphs.Scope(s)
			for j := range sd.Links {
				if w := sd.Links[j].Weight; !finite(w) {
					return errors.New(errors.ErrCodeInvalidDataset,
						"move %d, %s scope, link %d: weight is not finite", i, s, j)
				}
			}
		}
	}
	return nil
}

// Len returns the number of moves.
func (d *Dataset) Len() int { return len(d.Moves) }

// Move returns the move at idx.
func (d *Dataset) Move(idx int) (*Move, error) {
	if err := errors.ValidateMoveIndex(idx, len(d.Moves)); err != nil {
		return nil, err
	}
	return &d.Moves[idx], nil
}

// Label formats a move for selectors, e.g. "12. Nf3".
func (m *Move) Label() string {
	if m.SAN == "" {
		return fmt.Sprintf("%d. (start)", m.Number)
	}
	return fmt.Sprintf("%d. %s", m.Number, m.SAN)
}
