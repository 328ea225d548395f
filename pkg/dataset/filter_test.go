package dataset

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/abid8042/chessnetviz/pkg/domain"
	"github.com/abid8042/chessnetviz/pkg/graph"
)

func square(id string, comp, comm int) graph.Node {
	return graph.Node{ID: id, Position: id, ComponentID: comp, CommunityID: comm, Metrics: graph.MissingMetrics()}
}

func withPiece(n graph.Node, symbol, color string, kind int) graph.Node {
	n.HasPiece, n.PieceSymbol, n.PieceColor, n.PieceType = true, symbol, color, kind
	return n
}

func withMetric(n graph.Node, k graph.MetricKey, v float64) graph.Node {
	n.Metrics[k] = v
	return n
}

func ids(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].ID
	}
	return out
}

// =============================================================================
// Match
// =============================================================================

func TestFiltersMatch(t *testing.T) {
	k := graph.InDegreeCentrality
	nodes := []graph.Node{
		withMetric(withPiece(square("e1", 0, 0), "K", graph.ColorWhite, 6), k, 0.2),
		withMetric(withPiece(square("e8", 1, 2), "k", graph.ColorBlack, 6), k, 0.9),
		withMetric(withPiece(square("d4", 0, 1), "N", graph.ColorWhite, 2), k, 0.5),
		withMetric(square("d2", 1, 0), k, 0.1),
	}

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"zero filters", Filters{}, []string{"e1", "e8", "d4", "d2"}},
		{"search id", Filters{Search: "D"}, []string{"d4", "d2"}},
		{"search symbol", Filters{Search: "k"}, []string{"e1", "e8"}},
		{"piece types", Filters{PieceTypes: []int{2}}, []string{"d4"}},
		{"piece color", Filters{PieceColor: graph.ColorWhite}, []string{"e1", "d4"}},
		{"components", Filters{ComponentIDs: []int{1}}, []string{"e8", "d2"}},
		{"communities", Filters{CommunityIDs: []int{0, 2}}, []string{"e1", "e8", "d2"}},
		{
			"metric window",
			Filters{Metrics: map[graph.MetricKey]FilterRange{k: {CurrentMin: 0.15, CurrentMax: 0.5, DataMin: 0.1, DataMax: 0.9}}},
			[]string{"e1", "d4"},
		},
		{"combined", Filters{PieceColor: graph.ColorWhite, CommunityIDs: []int{1}}, []string{"d4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for i := range nodes {
				if tt.filters.Match(&nodes[i]) {
					got = append(got, nodes[i].ID)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("matched %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingMetricPolicy(t *testing.T) {
	k := graph.OutDegreeDeviation
	missing := square("a1", 0, 0)
	full := FilterRange{CurrentMin: -1, CurrentMax: 1, DataMin: -1, DataMax: 1}
	narrowed := FilterRange{CurrentMin: 0, CurrentMax: 1, DataMin: -1, DataMax: 1}

	tests := []struct {
		name   string
		window FilterRange
		policy MissingMetricPolicy
		want   bool
	}{
		{"full window keeps missing", full, ExcludeWhenNarrowed, true},
		{"narrowed window drops missing", narrowed, ExcludeWhenNarrowed, false},
		{"include policy keeps missing", narrowed, IncludeMissing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filters{Metrics: map[graph.MetricKey]FilterRange{k: tt.window}, Missing: tt.policy}
			if got := f.Match(&missing); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMissingMetricPolicy(t *testing.T) {
	for _, p := range []MissingMetricPolicy{ExcludeWhenNarrowed, IncludeMissing} {
		got, ok := ParseMissingMetricPolicy(p.String())
		if !ok || got != p {
			t.Errorf("round trip of %s = %v, %v", p, got, ok)
		}
	}
	if _, ok := ParseMissingMetricPolicy("sometimes"); ok {
		t.Error("expected failure")
	}
}

// =============================================================================
// Windows
// =============================================================================

func TestRebase(t *testing.T) {
	k := graph.InDegreeCentrality
	f := NewFilters(map[graph.MetricKey]domain.Range{k: {Min: 0, Max: 1}})
	f.SetRange(k, 0.2, 0.8)

	// Same data range: window is kept.
	f.Rebase(map[graph.MetricKey]domain.Range{k: {Min: 0, Max: 1}})
	if got := f.Metrics[k]; got.CurrentMin != 0.2 || got.CurrentMax != 0.8 {
		t.Errorf("window = %+v, want kept", got)
	}

	// New data range: window resets to full.
	f.Rebase(map[graph.MetricKey]domain.Range{k: {Min: 0.5, Max: 2}})
	if got := f.Metrics[k]; got != (FilterRange{CurrentMin: 0.5, CurrentMax: 2, DataMin: 0.5, DataMax: 2}) {
		t.Errorf("window = %+v, want full reset", got)
	}
}

func TestRebaseClampsStaleWindow(t *testing.T) {
	k := graph.InDegreeCentrality
	f := Filters{Metrics: map[graph.MetricKey]FilterRange{
		k: {CurrentMin: -3, CurrentMax: 7, DataMin: 0, DataMax: 1},
	}}
	f.Rebase(map[graph.MetricKey]domain.Range{k: {Min: 0, Max: 1}})
	if got := f.Metrics[k]; got.CurrentMin != 0 || got.CurrentMax != 1 {
		t.Errorf("window = %+v, want clamped to [0, 1]", got)
	}
}

func TestSetRange(t *testing.T) {
	k := graph.OutDegreeCentrality
	f := NewFilters(map[graph.MetricKey]domain.Range{k: {Min: 0, Max: 1}})

	f.SetRange(k, 0.9, 0.3)
	if got := f.Metrics[k]; got.CurrentMin != 0.3 || got.CurrentMax != 0.9 {
		t.Errorf("swapped window = %+v", got)
	}
	f.SetRange(k, -5, 5)
	if got := f.Metrics[k]; got.CurrentMin != 0 || got.CurrentMax != 1 || got.Narrowed() {
		t.Errorf("clamped window = %+v", got)
	}
	if f.Active() {
		t.Error("full windows should not be active")
	}
	f.SetRange(k, 0.5, 1)
	if !f.Active() {
		t.Error("narrowed window should be active")
	}
}

func TestReset(t *testing.T) {
	ranges := map[graph.MetricKey]domain.Range{graph.InDegreeCentrality: {Min: 0, Max: 1}}
	f := NewFilters(ranges)
	f.Search, f.PieceTypes, f.Missing = "e", []int{1}, IncludeMissing
	f.SetRange(graph.InDegreeCentrality, 0.4, 0.6)

	f.Reset(ranges)
	if f.Active() || f.Search != "" || f.PieceTypes != nil {
		t.Errorf("filters after reset = %+v", f)
	}
	if f.Missing != IncludeMissing {
		t.Error("reset dropped the missing-metric policy")
	}
}

// =============================================================================
// Filter and Sort
// =============================================================================

func TestApplyFiltersAndSort(t *testing.T) {
	nodes := []graph.Node{square("c3", 0, 0), square("a1", 1, 0), square("b2", 0, 0)}
	links := []graph.Link{
		{Source: "c3", Target: "b2"},
		{Source: "a1", Target: "b2"},
		{Source: "b2", Target: "zz"},
	}
	gotNodes, gotLinks := ApplyFiltersAndSort(nodes, links, Filters{ComponentIDs: []int{0}}, graph.DefaultSort)

	if want := []string{"b2", "c3"}; !reflect.DeepEqual(ids(gotNodes), want) {
		t.Errorf("nodes = %v, want %v", ids(gotNodes), want)
	}
	if len(gotLinks) != 1 || gotLinks[0].Key() != "c3-b2" {
		t.Errorf("links = %+v", gotLinks)
	}
	if nodes[0].ID != "c3" {
		t.Error("input slice was reordered")
	}
}

func TestSortNodes(t *testing.T) {
	k := graph.InDegreeCentrality
	nodes := []graph.Node{
		withMetric(square("a", 0, 0), k, 3),
		square("b", 0, 0),
		withMetric(square("c", 0, 0), k, 1),
		square("d", 0, 0),
		withMetric(square("e", 0, 0), k, 3),
	}

	tests := []struct {
		name string
		sort graph.SortConfig
		want []string
	}{
		{"metric asc, absent first", graph.SortConfig{Key: k.String(), Order: graph.SortAsc}, []string{"b", "d", "c", "a", "e"}},
		{"metric desc, absent last", graph.SortConfig{Key: k.String(), Order: graph.SortDesc}, []string{"a", "e", "c", "b", "d"}},
		{"id desc", graph.SortConfig{Key: "id", Order: graph.SortDesc}, []string{"e", "d", "c", "b", "a"}},
		{"no key keeps order", graph.SortConfig{}, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]graph.Node(nil), nodes...)
			SortNodes(got, tt.sort)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("order = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestSortNodesNumericComponent(t *testing.T) {
	nodes := []graph.Node{square("a", 10, 0), square("b", 9, 0), square("c", 100, 0)}
	SortNodes(nodes, graph.SortConfig{Key: "component_id", Order: graph.SortAsc})
	if want := []string{"b", "a", "c"}; !reflect.DeepEqual(ids(nodes), want) {
		t.Errorf("order = %v, want numeric %v", ids(nodes), want)
	}
}

// Filtered links never reference a filtered-out node.
func TestFilteredLinksStayConsistent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("links only join surviving nodes", prop.ForAll(
		func(comps []int, ends []int, keep []int) bool {
			nodes := make([]graph.Node, len(comps))
			for i, c := range comps {
				nodes[i] = square(fmt.Sprintf("n%d", i), c, 0)
			}
			var links []graph.Link
			for i := 0; i+1 < len(ends) && len(nodes) > 0; i += 2 {
				links = append(links, graph.Link{
					Source: nodes[ends[i]%len(nodes)].ID,
					Target: nodes[ends[i+1]%len(nodes)].ID,
				})
			}

			outNodes, outLinks := ApplyFiltersAndSort(nodes, links, Filters{ComponentIDs: keep}, graph.DefaultSort)
			alive := make(map[string]bool)
			for _, n := range outNodes {
				alive[n.ID] = true
			}
			for _, l := range outLinks {
				if !alive[l.Source] || !alive[l.Target] {
					return false
				}
			}
			kept := 0
			for _, l := range links {
				if alive[l.Source] && alive[l.Target] {
					kept++
				}
			}
			return kept == len(outLinks)
		},
		gen.SliceOf(gen.IntRange(0, 4)),
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}
