package graph

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// =============================================================================
// Snapshot - Positioned Scene Format
// =============================================================================

// Snapshot is the serialization format for one rendered move scope.
//
// It captures everything a sink needs to draw the scene without re-running
// the simulation:
//
//   - Layout, Width, Height: the layout type and viewport it was computed for
//   - Move, Scope: which slice of the dataset is shown
//   - Coloring, Palette, Selected: style state
//   - Nodes, Links: positioned visual elements
//   - Guide: spiral guide polyline (spiral layout only)
//   - Transform: the zoom-to-fit transform
type Snapshot struct {
	Layout LayoutType `json:"layout"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`

	Move     int    `json:"move"`
	MoveSAN  string `json:"move_san,omitempty"`
	FEN      string `json:"fen,omitempty"`
	Scope    Scope  `json:"scope"`
	Coloring string `json:"coloring"`
	Palette  string `json:"palette"`
	Selected string `json:"selected,omitempty"`

	Params map[string]float64 `json:"params,omitempty"`
	Ticks  int                `json:"ticks"`

	Nodes     []PlacedNode `json:"nodes"`
	Links     []PlacedLink `json:"links"`
	Guide     []Point      `json:"guide,omitempty"`
	Transform Transform    `json:"transform"`
}

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform is a uniform scale followed by a translation.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{K: 1}

// Apply maps a layout coordinate to screen space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// PlacedNode is a node element with its position and resolved style.
type PlacedNode struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"r"`
	GroupTag string  `json:"group"`
	HasPiece bool    `json:"has_piece,omitempty"`
	Symbol   string  `json:"symbol,omitempty"`

	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"stroke_width"`
	Opacity     float64 `json:"opacity"`

	Label        string  `json:"label"`
	LabelSize    float64 `json:"label_size"`
	LabelFill    string  `json:"label_fill"`
	SubLabel     string  `json:"sub_label,omitempty"`
	SubLabelSize float64 `json:"sub_label_size,omitempty"`
	SubLabelDY   float64 `json:"sub_label_dy,omitempty"`
	SubLabelFill string  `json:"sub_label_fill,omitempty"`
}

// PlacedLink is a link element with its endpoints already shortened for the
// arrow marker.
type PlacedLink struct {
	Key     string  `json:"key"`
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Weight  float64 `json:"weight"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
}

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// MarshalSnapshot serializes a Snapshot to pretty-printed JSON bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot deserializes JSON bytes into a Snapshot.
// Validates the layout type and that every link endpoint is a known node.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if _, err := ParseLayoutType(string(s.Layout)); err != nil {
		return Snapshot{}, err
	}
	if s.Transform.K == 0 {
		s.Transform = Identity
	}

	ids := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, l := range s.Links {
		if _, ok := ids[l.Source]; !ok {
			return Snapshot{}, fmt.Errorf("link %s references unknown node %q", l.Key, l.Source)
		}
		if _, ok := ids[l.Target]; !ok {
			return Snapshot{}, fmt.Errorf("link %s references unknown node %q", l.Key, l.Target)
		}
	}

	return s, nil
}

// WriteSnapshotFile writes a Snapshot to a JSON file.
func WriteSnapshotFile(s Snapshot, path string) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSnapshotFile reads a Snapshot from a JSON file.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}

// FileName returns the export file name for the snapshot with the given
// extension, e.g. "chess_network_move_3_white_radial_color_default_palette_plasma.png".
func (s Snapshot) FileName(ext string) string {
	return fmt.Sprintf("chess_network_move_%d_%s_%s_color_%s_palette_%s.%s",
		s.Move, s.Scope, s.Layout, s.Coloring, s.Palette, ext)
}
