package dataset

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/abid8042/chessnetviz/pkg/domain"
	"github.com/abid8042/chessnetviz/pkg/graph"
)

// =============================================================================
// Filters
// =============================================================================

// FilterRange is a user-selected window inside a metric's data range.
type FilterRange struct {
	CurrentMin float64 `json:"currentMin"`
	CurrentMax float64 `json:"currentMax"`
	DataMin    float64 `json:"dataMin"`
	DataMax    float64 `json:"dataMax"`
}

// Full returns a range whose window covers the whole data range r.
func Full(r domain.Range) FilterRange {
	return FilterRange{CurrentMin: r.Min, CurrentMax: r.Max, DataMin: r.Min, DataMax: r.Max}
}

// Narrowed reports whether the window excludes part of the data range.
func (r FilterRange) Narrowed() bool {
	return r.CurrentMin > r.DataMin || r.CurrentMax < r.DataMax
}

// Contains reports whether v lies inside the window.
func (r FilterRange) Contains(v float64) bool {
	return v >= r.CurrentMin && v <= r.CurrentMax
}

// MissingMetricPolicy decides whether a node without a metric value passes
// that metric's range filter.
type MissingMetricPolicy int

const (
	// ExcludeWhenNarrowed drops nodes missing the metric once its window
	// no longer covers the full data range.
	ExcludeWhenNarrowed MissingMetricPolicy = iota
	// IncludeMissing never filters on a missing value.
	IncludeMissing
)

// String returns the policy's flag name.
func (p MissingMetricPolicy) String() string {
	if p == IncludeMissing {
		return "include"
	}
	return "exclude-when-narrowed"
}

// ParseMissingMetricPolicy accepts "include" or "exclude-when-narrowed".
func ParseMissingMetricPolicy(s string) (MissingMetricPolicy, bool) {
	switch s {
	case "include":
		return IncludeMissing, true
	case "exclude-when-narrowed", "exclude", "":
		return ExcludeWhenNarrowed, true
	}
	return 0, false
}

// Filters selects the visible nodes of a move scope. Zero-valued fields do
// not filter.
type Filters struct {
	Search       string `json:"searchTerm"`
	PieceTypes   []int  `json:"pieceTypes"`
	PieceColor   string `json:"pieceColor"`
	ComponentIDs []int  `json:"componentIds"`
	CommunityIDs []int  `json:"communityIds"`

	// Metrics holds one window per metric; a metric without an entry is not
	// filtered.
	Metrics map[graph.MetricKey]FilterRange `json:"-"`
	Missing MissingMetricPolicy             `json:"-"`
}

// NewFilters returns filters that pass every node, with full windows over
// ranges.
func NewFilters(ranges map[graph.MetricKey]domain.Range) Filters {
	f := Filters{Metrics: make(map[graph.MetricKey]FilterRange, len(ranges))}
	for k, r := range ranges {
		f.Metrics[k] = Full(r)
	}
	return f
}

// Reset clears every filter and restores full windows over ranges, keeping
// the missing-metric policy.
func (f *Filters) Reset(ranges map[graph.MetricKey]domain.Range) {
	policy := f.Missing
	*f = NewFilters(ranges)
	f.Missing = policy
}

// Rebase moves the metric windows onto new data ranges. A metric whose data
// range changed gets a full window; otherwise the current window is clamped
// into the range.
func (f *Filters) Rebase(ranges map[graph.MetricKey]domain.Range) {
	if f.Metrics == nil {
		f.Metrics = make(map[graph.MetricKey]FilterRange, len(ranges))
	}
	for k, r := range ranges {
		old, ok := f.Metrics[k]
		if !ok || old.DataMin != r.Min || old.DataMax != r.Max {
			f.Metrics[k] = Full(r)
			continue
		}
		lo := clamp(old.CurrentMin, r.Min, r.Max)
		hi := clamp(old.CurrentMax, r.Min, r.Max)
		if lo > hi {
			hi = lo
		}
		old.CurrentMin, old.CurrentMax = lo, hi
		f.Metrics[k] = old
	}
}

// SetRange sets the window of k, clamped into its data range. Bounds given
// in reverse order are swapped.
func (f *Filters) SetRange(k graph.MetricKey, lo, hi float64) {
	if f.Metrics == nil {
		f.Metrics = make(map[graph.MetricKey]FilterRange)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	r, ok := f.Metrics[k]
	if !ok {
		f.Metrics[k] = FilterRange{CurrentMin: lo, CurrentMax: hi, DataMin: lo, DataMax: hi}
		return
	}
	r.CurrentMin = clamp(lo, r.DataMin, r.DataMax)
	r.CurrentMax = clamp(hi, r.DataMin, r.DataMax)
	f.Metrics[k] = r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Match reports whether n passes every filter.
func (f *Filters) Match(n *graph.Node) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		idMatch := strings.Contains(strings.ToLower(n.ID), term)
		symMatch := n.HasPiece && n.PieceSymbol != "" && strings.Contains(strings.ToLower(n.PieceSymbol), term)
		if !idMatch && !symMatch {
			return false
		}
	}
	if len(f.PieceTypes) > 0 && (!n.HasPiece || !slices.Contains(f.PieceTypes, n.PieceType)) {
		return false
	}
	if f.PieceColor != "" && (!n.HasPiece || n.PieceColor != f.PieceColor) {
		return false
	}
	if len(f.ComponentIDs) > 0 && !slices.Contains(f.ComponentIDs, n.ComponentID) {
		return false
	}
	if len(f.CommunityIDs) > 0 && !slices.Contains(f.CommunityIDs, n.CommunityID) {
		return false
	}
	for k, r := range f.Metrics {
		v, ok := n.Metric(k)
		switch {
		case ok && !r.Contains(v):
			return false
		case !ok && f.Missing == ExcludeWhenNarrowed && r.Narrowed():
			return false
		}
	}
	return true
}

// Active reports whether any filter can drop a node.
func (f *Filters) Active() bool {
	if f.Search != "" || len(f.PieceTypes) > 0 || f.PieceColor != "" ||
		len(f.ComponentIDs) > 0 || len(f.CommunityIDs) > 0 {
		return true
	}
	for _, r := range f.Metrics {
		if r.Narrowed() {
			return true
		}
	}
	return false
}

// =============================================================================
// Filter and Sort
// =============================================================================

// ApplyFiltersAndSort returns the nodes passing f, ordered by s, and the links
// whose endpoints both survive. Inputs are not modified.
func ApplyFiltersAndSort(nodes []graph.Node, links []graph.Link, f Filters, s graph.SortConfig) ([]graph.Node, []graph.Link) {
	out := make([]graph.Node, 0, len(nodes))
	for i := range nodes {
		if f.Match(&nodes[i]) {
			out = append(out, nodes[i])
		}
	}
	SortNodes(out, s)

	keep := make(map[string]bool, len(out))
	for i := range out {
		keep[out[i].ID] = true
	}
	var outLinks []graph.Link
	for _, l := range links {
		if keep[l.Source] && keep[l.Target] {
			outLinks = append(outLinks, l)
		}
	}
	return out, outLinks
}

// SortNodes orders nodes in place by the field s names. Strings compare
// lexicographically and numbers numerically. Absent values sort first in
// ascending order and last in descending order. Values of different kinds
// compare equal. The sort is stable.
func SortNodes(nodes []graph.Node, s graph.SortConfig) {
	if s.Key == "" {
		return
	}
	asc := s.Order != graph.SortDesc
	sort.SliceStable(nodes, func(i, j int) bool {
		return compareField(nodes[i].Field(s.Key), nodes[j].Field(s.Key), asc) < 0
	})
}

func compareField(a, b graph.Value, asc bool) int {
	switch {
	case a.IsAbsent() && b.IsAbsent():
		return 0
	case a.IsAbsent():
		if asc {
			return -1
		}
		return 1
	case b.IsAbsent():
		if asc {
			return 1
		}
		return -1
	}

	c := 0
	switch {
	case a.Kind == graph.ValueString && b.Kind == graph.ValueString:
		c = strings.Compare(a.Str, b.Str)
	case a.Kind == graph.ValueNumber && b.Kind == graph.ValueNumber:
		switch {
		case a.Num < b.Num:
			c = -1
		case a.Num > b.Num:
			c = 1
		}
	}
	if !asc {
		c = -c
	}
	return c
}
