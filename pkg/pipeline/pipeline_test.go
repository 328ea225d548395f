package pipeline

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abid8042/chessnetviz/pkg/cache"
	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/observability"
)

const fixture = "../dataset/testdata/game.json"

func node(id string) graph.Node {
	return graph.Node{ID: id, Position: id, Metrics: graph.MissingMetrics()}
}

func processed(nodes []graph.Node, links []graph.Link) *dataset.Processed {
	return &dataset.Processed{
		Scope:  graph.ScopeCombined,
		Nodes:  nodes,
		Links:  links,
		Ranges: dataset.DataRanges(nodes),
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"defaults", Options{}, ""},
		{"bad scope", Options{Scope: "both"}, errors.ErrCodeInvalidScope},
		{"bad layout", Options{Layout: "grid"}, errors.ErrCodeInvalidLayout},
		{"param out of range", Options{Layout: "spiral", Params: map[string]float64{"coils": 50}}, errors.ErrCodeInvalidParams},
		{"unknown param", Options{Layout: "radial", Params: map[string]float64{"coils": 3}}, errors.ErrCodeInvalidParams},
		{"bad sort", Options{Sort: "id:sideways"}, errors.ErrCodeInvalidInput},
		{"bad coloring", Options{Coloring: "rainbow"}, errors.ErrCodeInvalidInput},
		{"bad palette", Options{Palette: "rainbow"}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Formats: []string{"pdf"}}, errors.ErrCodeInvalidFormat},
		{"bad missing policy", Options{Filters: FilterSpec{Missing: "maybe"}}, errors.ErrCodeInvalidInput},
		{"bad metric filter", Options{Filters: FilterSpec{Metrics: map[string][2]float64{"pagerank": {0, 1}}}}, errors.ErrCodeInvalidInput},
		{"negative move", Options{Move: -1}, errors.ErrCodeMoveOutOfRange},
		{"negative width", Options{Width: -5}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestDefaultsApplied(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Scope != "combined" || o.Layout != "force-directed" || o.Coloring != "default" || o.Palette != "plasma" {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.MaxTicks != DefaultMaxTicks || o.Seed != DefaultSeed {
		t.Errorf("unexpected numeric defaults: %+v", o)
	}
	if len(o.Formats) != 1 || o.Formats[0] != "svg" {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

// Three nodes on a spiral: a at the center, b half way out at angle π, c at
// the outer end (radius 260) at angle 0.
func TestSpiralEndToEnd(t *testing.T) {
	p := processed(
		[]graph.Node{node("c"), node("a"), node("b")},
		[]graph.Link{
			{Source: "a", Target: "b", Weight: 1},
			{Source: "b", Target: "c", Weight: 2},
		},
	)
	snap, _, err := Layout(context.Background(), p, Options{
		Layout: "spiral",
		Params: map[string]float64{"coils": 3, "maxRadiusMargin": 40},
		Sort:   "id:asc",
		Width:  800,
		Height: 600,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][2]float64{
		"a": {400, 300},
		"b": {400 - 130, 300},
		"c": {400 + 260, 300},
	}
	if len(snap.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(snap.Nodes))
	}
	for _, n := range snap.Nodes {
		w := want[n.ID]
		if math.Abs(n.X-w[0]) > 1e-6 || math.Abs(n.Y-w[1]) > 1e-6 {
			t.Errorf("%s at (%v, %v), want (%v, %v)", n.ID, n.X, n.Y, w[0], w[1])
		}
	}
	if len(snap.Links) != 2 {
		t.Errorf("got %d links, want 2", len(snap.Links))
	}
	if len(snap.Guide) != 101 {
		t.Errorf("guide has %d points, want 101", len(snap.Guide))
	}
	if snap.Params["coils"] != 3 {
		t.Errorf("params not recorded: %v", snap.Params)
	}
	if snap.Transform.K <= 0 {
		t.Errorf("transform = %+v", snap.Transform)
	}
}

func TestLayoutEmptyScope(t *testing.T) {
	snap, _, err := Layout(context.Background(), processed(nil, nil), Options{Layout: "radial", Width: 800, Height: 600})
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Nodes) != 0 || len(snap.Links) != 0 {
		t.Errorf("empty scope produced %d nodes, %d links", len(snap.Nodes), len(snap.Links))
	}
	if snap.Transform != (graph.Transform{X: 400, Y: 300, K: 1}) {
		t.Errorf("transform = %+v, want centered identity scale", snap.Transform)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	nodes := []graph.Node{node("a1"), node("a2"), node("b1"), node("b2"), node("c1")}
	links := []graph.Link{
		{Source: "a1", Target: "a2", Weight: 1},
		{Source: "a2", Target: "b1", Weight: 3},
		{Source: "b2", Target: "c1", Weight: 1},
	}
	opts := Options{Layout: "force-directed", MaxTicks: 200, Width: 640, Height: 480}

	first, _, err := Layout(context.Background(), processed(nodes, links), opts)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Layout(context.Background(), processed(nodes, links), opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Nodes {
		if first.Nodes[i].X != second.Nodes[i].X || first.Nodes[i].Y != second.Nodes[i].Y {
			t.Fatalf("node %s moved between identical runs", first.Nodes[i].ID)
		}
	}
}

func TestLayoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nodes := []graph.Node{node("a"), node("b")}
	_, _, err := Layout(ctx, processed(nodes, nil), Options{Layout: "force-directed"})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestVisibleKeepsLinksConsistent(t *testing.T) {
	p := processed(
		[]graph.Node{node("a1"), node("a2"), node("b1")},
		[]graph.Link{
			{Source: "a1", Target: "a2", Weight: 1},
			{Source: "a2", Target: "b1", Weight: 1},
		},
	)
	opts := Options{Filters: FilterSpec{Search: "a"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	nodes, links := Visible(p, &opts)
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	if len(links) != 1 || links[0].Key() != "a1-a2" {
		t.Errorf("links = %v, want only a1-a2", links)
	}
}

func TestBuildFiltersMetricWindow(t *testing.T) {
	nodes := []graph.Node{node("a"), node("b"), node("c")}
	for i, v := range []float64{0.1, 0.5, 0.9} {
		nodes[i].Metrics[graph.InDegreeCentrality] = v
	}
	p := processed(nodes, nil)
	opts := Options{Filters: FilterSpec{Metrics: map[string][2]float64{"in_degree_centrality": {0.4, 2}}}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	f := opts.BuildFilters(p.Ranges)
	r := f.Metrics[graph.InDegreeCentrality]
	if r.CurrentMin != 0.4 || r.CurrentMax != 0.9 {
		t.Errorf("window = [%v, %v], want clamped [0.4, 0.9]", r.CurrentMin, r.CurrentMax)
	}
	visible, _ := Visible(p, &opts)
	if len(visible) != 2 {
		t.Errorf("got %d visible nodes, want 2", len(visible))
	}
}

func TestSnapshotKeyOpts(t *testing.T) {
	a := Options{Layout: "spiral"}
	b := Options{Layout: "spiral", Params: map[string]float64{"coils": 4}}
	for _, o := range []*Options{&a, &b} {
		if err := o.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
	}
	k := cache.NewDefaultKeyer()
	if k.SnapshotKey("h", a.SnapshotKeyOpts()) == k.SnapshotKey("h", b.SnapshotKeyOpts()) {
		t.Error("param override did not change the snapshot key")
	}
	if got := a.SnapshotKeyOpts().Params["coils"]; got != 3 {
		t.Errorf("default coils = %v, want 3", got)
	}
}

// =============================================================================
// Runner
// =============================================================================

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu      sync.Mutex
	layouts int
	renders int
	hits    map[string]int
	misses  map[string]int
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{hits: map[string]int{}, misses: map[string]int{}}
}

func (h *recordingHooks) OnLayoutComplete(context.Context, string, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.layouts++
}

func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renders++
}

func (h *recordingHooks) OnCacheHit(_ context.Context, kind string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[kind]++
}

func (h *recordingHooks) OnCacheMiss(_ context.Context, kind string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[kind]++
}

func TestRunnerExecuteCaches(t *testing.T) {
	defer observability.Reset()
	hooks := newRecordingHooks()
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()

	ctx := context.Background()
	src, err := r.Load(ctx, fixture)
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Move: 0, Layout: "radial", Formats: []string{"svg", "json"}, Selected: "e1"}

	first, err := r.Execute(ctx, src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.SnapshotHit || first.CacheInfo.RenderHit {
		t.Error("first run reported cache hits")
	}
	if !strings.HasPrefix(string(first.Artifacts["svg"]), "<?xml") {
		t.Error("svg artifact missing xml header")
	}
	if first.Snapshot.FEN == "" || first.Snapshot.Selected != "e1" {
		t.Errorf("snapshot metadata not filled: %+v", first.Snapshot)
	}
	if first.Stats.VisibleNodes != 3 || first.Stats.NodeCount != 3 {
		t.Errorf("stats = %+v", first.Stats)
	}

	second, err := r.Execute(ctx, src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.SnapshotHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v, want hits", second.CacheInfo)
	}
	if string(second.Artifacts["svg"]) != string(first.Artifacts["svg"]) {
		t.Error("cached svg differs")
	}

	if hooks.layouts != 1 || hooks.renders != 1 {
		t.Errorf("layouts=%d renders=%d, want one each", hooks.layouts, hooks.renders)
	}
	if hooks.hits[cache.KindSnapshot] != 1 || hooks.misses[cache.KindSnapshot] != 1 {
		t.Errorf("snapshot hits=%d misses=%d", hooks.hits[cache.KindSnapshot], hooks.misses[cache.KindSnapshot])
	}

	refreshed := opts
	refreshed.Refresh = true
	third, err := r.Execute(ctx, src, refreshed)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.SnapshotHit {
		t.Error("refresh still read the cache")
	}
}

func TestRunnerExecuteErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	src, err := r.Load(ctx, fixture)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Execute(ctx, src, Options{Move: 9}); !errors.Is(err, errors.ErrCodeMoveOutOfRange) {
		t.Errorf("out of range move: %v", err)
	}
	if _, err := r.Load(ctx, "testdata/missing.json"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
	if _, err := LoadBytes(ctx, "bad", []byte(`{"moves": "nope"}`)); !errors.Is(err, errors.ErrCodeInvalidDataset) {
		t.Errorf("bad dataset: %v", err)
	}
}

func TestRunnerExecuteAll(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	src, err := r.Load(ctx, fixture)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	seen := map[int]string{}
	err = r.ExecuteAll(ctx, src, Options{Layout: "spiral", Formats: []string{"json"}}, 2, func(res *Result) error {
		mu.Lock()
		defer mu.Unlock()
		seen[res.Snapshot.Move] = res.Snapshot.FileName("json")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != src.Dataset.Len() {
		t.Fatalf("got %d results, want %d", len(seen), src.Dataset.Len())
	}
	if seen[1] != "chess_network_move_1_combined_spiral_color_default_palette_plasma.json" {
		t.Errorf("file name = %s", seen[1])
	}
}
