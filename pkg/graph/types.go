package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// Layout Types and Scopes
// =============================================================================

// LayoutType identifies one of the positioning algorithms.
type LayoutType string

// Layout type constants.
const (
	LayoutForceDirected LayoutType = "force-directed"
	LayoutRadial        LayoutType = "radial"
	LayoutSpiral        LayoutType = "spiral"
)

// LayoutTypes lists every layout type in display order.
var LayoutTypes = []LayoutType{LayoutForceDirected, LayoutRadial, LayoutSpiral}

// ParseLayoutType converts a string into a LayoutType.
func ParseLayoutType(s string) (LayoutType, error) {
	for _, t := range LayoutTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid layout: %q (must be one of: force-directed, radial, spiral)", s)
}

// Scope is a side lens over one move's graph.
type Scope string

// Scope constants.
const (
	ScopeCombined Scope = "combined"
	ScopeWhite    Scope = "white"
	ScopeBlack    Scope = "black"
)

// Scopes lists every scope in display order.
var Scopes = []Scope{ScopeCombined, ScopeWhite, ScopeBlack}

// ParseScope converts a string into a Scope.
func ParseScope(s string) (Scope, error) {
	for _, sc := range Scopes {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("invalid scope: %q (must be one of: combined, white, black)", s)
}

// Piece colors.
const (
	ColorWhite = "white"
	ColorBlack = "black"
)

// PieceTypeNames maps numeric piece types to display names.
var PieceTypeNames = map[int]string{
	1: "Pawn",
	2: "Knight",
	3: "Bishop",
	4: "Rook",
	5: "Queen",
	6: "King",
}

// =============================================================================
// Dimensions
// =============================================================================

// Dimensions is the viewport size in layout units.
type Dimensions struct {
	Width  float64 `json:"width" toml:"width" yaml:"width"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
}

// Ready reports whether both dimensions are positive. A zero-sized viewport
// has not been measured yet and no layout work may run against it.
func (d Dimensions) Ready() bool {
	return d.Width > 0 && d.Height > 0
}

// MinDim returns the smaller of width and height.
func (d Dimensions) MinDim() float64 {
	return math.Min(d.Width, d.Height)
}

// Center returns the viewport center.
func (d Dimensions) Center() (x, y float64) {
	return d.Width / 2, d.Height / 2
}

// =============================================================================
// Node
// =============================================================================

// Node is one board square in a move scope's influence graph.
type Node struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	Position string `json:"position"`

	HasPiece        bool   `json:"has_piece"`
	PieceSymbol     string `json:"piece_symbol,omitempty"`
	PieceColor      string `json:"piece_color,omitempty"`
	PieceType       int    `json:"piece_type,omitempty"`
	PieceTypeName   string `json:"piece_type_name,omitempty"`
	OriginalPieceID string `json:"original_piece_id,omitempty"`

	ComponentID int `json:"component_id"`
	CommunityID int `json:"community_id"`

	Metrics Metrics `json:"metrics"`
}

// GroupTag returns the structural cluster key "{component}-{community}".
func (n *Node) GroupTag() string {
	return GroupTag(n.ComponentID, n.CommunityID)
}

// GroupTag formats a component/community pair as a group tag.
func GroupTag(component, community int) string {
	return strconv.Itoa(component) + "-" + strconv.Itoa(community)
}

// SplitGroupTag parses a group tag back into its component and community.
// Unparseable parts come back as zero.
func SplitGroupTag(tag string) (component, community int) {
	head, tail, _ := strings.Cut(tag, "-")
	component, _ = strconv.Atoi(head)
	community, _ = strconv.Atoi(tail)
	return component, community
}

// Metric returns the node's value for k and whether it is present.
func (n *Node) Metric(k MetricKey) (float64, bool) {
	return n.Metrics.Value(k)
}

// IsBlackPiece reports whether the node carries a black piece.
func (n *Node) IsBlackPiece() bool {
	return n.HasPiece && n.PieceColor == ColorBlack
}

// =============================================================================
// Link
// =============================================================================

// Link is a directed influence edge between two node ids.
type Link struct {
	Type        string  `json:"type,omitempty"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Weight      float64 `json:"weight"`
	PieceSymbol string  `json:"piece_symbol,omitempty"`
	PieceColor  string  `json:"piece_color,omitempty"`
	PieceType   int     `json:"piece_type,omitempty"`
}

// Key returns the stable "{source}-{target}" element key.
func (l Link) Key() string {
	return l.Source + "-" + l.Target
}

// Touches reports whether id is either endpoint.
func (l Link) Touches(id string) bool {
	return l.Source == id || l.Target == id
}

// =============================================================================
// Sorting
// =============================================================================

// SortOrder is the direction of a sort.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortConfig names the node field nodes are ordered by.
type SortConfig struct {
	Key   string    `json:"key" toml:"key" yaml:"key"`
	Order SortOrder `json:"order" toml:"order" yaml:"order"`
}

// DefaultSort orders squares by id ascending.
var DefaultSort = SortConfig{Key: "id", Order: SortAsc}

// Sign returns 1 for ascending and -1 for descending order.
func (s SortConfig) Sign() float64 {
	if s.Order == SortDesc {
		return -1
	}
	return 1
}

// ParseSort parses "key" or "key:asc|desc".
func ParseSort(s string) (SortConfig, error) {
	key, order, found := strings.Cut(s, ":")
	cfg := SortConfig{Key: key, Order: SortAsc}
	if found {
		switch SortOrder(order) {
		case SortAsc, SortDesc:
			cfg.Order = SortOrder(order)
		default:
			return SortConfig{}, fmt.Errorf("invalid sort order: %q (must be asc or desc)", order)
		}
	}
	if _, ok := sortableFields[cfg.Key]; !ok {
		if _, ok := ParseMetricKey(cfg.Key); !ok {
			return SortConfig{}, fmt.Errorf("invalid sort key: %q", cfg.Key)
		}
	}
	return cfg, nil
}
