package graph

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func TestGroupTag(t *testing.T) {
	n := Node{ID: "e4", ComponentID: 2, CommunityID: 11}
	if got := n.GroupTag(); got != "2-11" {
		t.Errorf("GroupTag() = %q, want %q", got, "2-11")
	}

	comp, comm := SplitGroupTag("2-11")
	if comp != 2 || comm != 11 {
		t.Errorf("SplitGroupTag() = (%d, %d), want (2, 11)", comp, comm)
	}

	comp, comm = SplitGroupTag("garbage")
	if comp != 0 || comm != 0 {
		t.Errorf("SplitGroupTag(garbage) = (%d, %d), want (0, 0)", comp, comm)
	}
}

func TestDimensionsReady(t *testing.T) {
	tests := []struct {
		dims Dimensions
		want bool
	}{
		{Dimensions{800, 600}, true},
		{Dimensions{0, 0}, false},
		{Dimensions{800, 0}, false},
		{Dimensions{-1, 600}, false},
	}
	for _, tt := range tests {
		if got := tt.dims.Ready(); got != tt.want {
			t.Errorf("%+v.Ready() = %v, want %v", tt.dims, got, tt.want)
		}
	}
}

func TestParseLayoutType(t *testing.T) {
	for _, lt := range LayoutTypes {
		got, err := ParseLayoutType(string(lt))
		if err != nil || got != lt {
			t.Errorf("ParseLayoutType(%q) = %q, %v", lt, got, err)
		}
	}
	if _, err := ParseLayoutType("circular"); err == nil {
		t.Error("ParseLayoutType(circular) should fail")
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    SortConfig
		wantErr bool
	}{
		{"id", SortConfig{Key: "id", Order: SortAsc}, false},
		{"component_id:desc", SortConfig{Key: "component_id", Order: SortDesc}, false},
		{"in_degree_centrality:asc", SortConfig{Key: "in_degree_centrality", Order: SortAsc}, false},
		{"id:sideways", SortConfig{}, true},
		{"nope", SortConfig{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSort(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestMetricKeys(t *testing.T) {
	keys := MetricKeys()
	if len(keys) != NumMetrics {
		t.Fatalf("MetricKeys() returned %d keys, want %d", len(keys), NumMetrics)
	}
	for _, k := range keys {
		got, ok := ParseMetricKey(k.String())
		if !ok || got != k {
			t.Errorf("ParseMetricKey(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseMetricKey("pagerank"); ok {
		t.Error("ParseMetricKey(pagerank) should fail")
	}
}

func TestMetricsJSON(t *testing.T) {
	m := MissingMetrics()
	m[InDegreeCentrality] = 0.25
	m[OutDegreeDeviation] = -1.5

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if !strings.Contains(string(data), `"in_degree_centrality":0.25`) {
		t.Errorf("missing present value in %s", data)
	}
	if !strings.Contains(string(data), `"out_degree_centrality":null`) {
		t.Errorf("absent value should encode as null in %s", data)
	}

	var back Metrics
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if v, ok := back.Value(InDegreeCentrality); !ok || v != 0.25 {
		t.Errorf("InDegreeCentrality = %v, %v", v, ok)
	}
	if _, ok := back.Value(OutDegreeCentrality); ok {
		t.Error("OutDegreeCentrality should be absent")
	}
}

func TestNodeField(t *testing.T) {
	n := Node{ID: "a1", ComponentID: 1, CommunityID: 3, Metrics: MissingMetrics()}
	n.Metrics[InDegreeCentrality] = 0.5

	if v := n.Field("id"); v.Kind != ValueString || v.Str != "a1" {
		t.Errorf("Field(id) = %+v", v)
	}
	if v := n.Field("community_id"); v.Kind != ValueNumber || v.Num != 3 {
		t.Errorf("Field(community_id) = %+v", v)
	}
	if v := n.Field("in_degree_centrality"); v.Kind != ValueNumber || v.Num != 0.5 {
		t.Errorf("Field(in_degree_centrality) = %+v", v)
	}
	if v := n.Field("out_degree_centrality"); !v.IsAbsent() {
		t.Errorf("Field(out_degree_centrality) should be absent, got %+v", v)
	}
	if v := n.Field("piece_symbol"); !v.IsAbsent() {
		t.Errorf("Field(piece_symbol) on empty square should be absent, got %+v", v)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := Snapshot{
		Layout: LayoutSpiral,
		Width:  800,
		Height: 600,
		Scope:  ScopeCombined,
		Nodes: []PlacedNode{
			{ID: "a", X: 400, Y: 300, Radius: 14},
			{ID: "b", X: 270, Y: 300, Radius: 14},
		},
		Links:     []PlacedLink{{Key: "a-b", Source: "a", Target: "b", Weight: 1}},
		Transform: Transform{X: 10, Y: 20, K: 1.5},
	}

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := WriteSnapshotFile(snap, path); err != nil {
		t.Fatalf("WriteSnapshotFile: %v", err)
	}
	got, err := ReadSnapshotFile(path)
	if err != nil {
		t.Fatalf("ReadSnapshotFile: %v", err)
	}
	if len(got.Nodes) != 2 || got.Nodes[1].X != 270 {
		t.Errorf("nodes not preserved: %+v", got.Nodes)
	}
	if got.Transform != snap.Transform {
		t.Errorf("Transform = %+v, want %+v", got.Transform, snap.Transform)
	}
}

func TestUnmarshalSnapshotValidation(t *testing.T) {
	if _, err := UnmarshalSnapshot([]byte(`{"layout":"circular"}`)); err == nil {
		t.Error("unknown layout should fail")
	}

	dangling := `{"layout":"radial","nodes":[{"id":"a"}],"links":[{"key":"a-z","source":"a","target":"z"}]}`
	if _, err := UnmarshalSnapshot([]byte(dangling)); err == nil {
		t.Error("dangling link should fail")
	}

	s, err := UnmarshalSnapshot([]byte(`{"layout":"radial"}`))
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	if s.Transform != Identity {
		t.Errorf("missing transform should default to identity, got %+v", s.Transform)
	}
}

func TestTransformApply(t *testing.T) {
	x, y := Transform{X: 5, Y: -5, K: 2}.Apply(10, 10)
	if math.Abs(x-25) > 1e-9 || math.Abs(y-15) > 1e-9 {
		t.Errorf("Apply = (%v, %v), want (25, 15)", x, y)
	}
}

func TestSnapshotFileName(t *testing.T) {
	s := Snapshot{Move: 3, Scope: ScopeWhite, Layout: LayoutRadial, Coloring: "default", Palette: "plasma"}
	want := "chess_network_move_3_white_radial_color_default_palette_plasma.png"
	if got := s.FileName("png"); got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}
