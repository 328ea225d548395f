package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/domain"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/observability"
	"github.com/abid8042/chessnetviz/pkg/scene"
	"github.com/abid8042/chessnetviz/pkg/sim"
	"github.com/abid8042/chessnetviz/pkg/viewport"
)

// =============================================================================
// Visible Set
// =============================================================================

// BuildFilters builds dataset filters for a scope with the given data ranges.
// Metric windows are clamped into the ranges. Valid after
// ValidateAndSetDefaults.
func (o *Options) BuildFilters(ranges map[graph.MetricKey]domain.Range) dataset.Filters {
	f := dataset.NewFilters(ranges)
	f.Search = o.Filters.Search
	f.PieceTypes = o.Filters.PieceTypes
	f.PieceColor = o.Filters.PieceColor
	f.ComponentIDs = o.Filters.Components
	f.CommunityIDs = o.Filters.Communities
	f.Missing = o.resolved.missing
	for k, w := range o.resolved.metrics {
		f.SetRange(k, w[0], w[1])
	}
	return f
}

// SortConfig returns the parsed sort. Valid after ValidateAndSetDefaults.
func (o *Options) SortConfig() graph.SortConfig { return o.resolved.sort }

// Visible applies the filters and sort of opts to p. Links survive only
// when both endpoints do.
func Visible(p *dataset.Processed, opts *Options) ([]graph.Node, []graph.Link) {
	return dataset.ApplyFiltersAndSort(p.Nodes, p.Links, opts.BuildFilters(p.Ranges), opts.resolved.sort)
}

// =============================================================================
// Layout
// =============================================================================

// Layout runs the simulation for the visible part of p until it comes to
// rest (or opts.MaxTicks), then styles the scene and fits the viewport to
// it. It returns the snapshot and the number of ticks run.
func Layout(ctx context.Context, p *dataset.Processed, opts Options) (graph.Snapshot, int, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Snapshot{}, 0, err
	}
	r := opts.resolved
	dims := opts.Dimensions()
	nodes, links := Visible(p, &opts)

	observability.Pipeline().OnLayoutStart(ctx, string(r.layout), len(nodes))
	start := time.Now()
	snap, ticks, err := runLayout(ctx, p, nodes, links, &opts)
	observability.Pipeline().OnLayoutComplete(ctx, string(r.layout), ticks, time.Since(start), err)
	if err != nil {
		return graph.Snapshot{}, ticks, err
	}

	opts.Logger.Debug("layout settled",
		"layout", r.layout,
		"nodes", len(nodes),
		"links", len(snap.Links),
		"ticks", ticks,
		"zoom", snap.Transform.K,
		"viewport", dims)
	return snap, ticks, nil
}

func runLayout(ctx context.Context, p *dataset.Processed, nodes []graph.Node, links []graph.Link, opts *Options) (graph.Snapshot, int, error) {
	r := opts.resolved
	dims := opts.Dimensions()
	params := r.params

	driver := sim.NewDriver(sim.New(sim.WithSeed(opts.Seed)), &params, opts.Logger)
	err := driver.Configure(sim.Request{
		Nodes:      nodes,
		Links:      links,
		Layout:     r.layout,
		Dimensions: dims,
		Sort:       r.sort,
	})
	switch {
	case stderrors.Is(err, sim.ErrNotReady):
		return graph.Snapshot{}, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "viewport %vx%v", dims.Width, dims.Height)
	case stderrors.Is(err, sim.ErrUnknownLayout):
		return graph.Snapshot{}, 0, errors.Wrap(errors.ErrCodeInvalidLayout, err, "%s", r.layout)
	case err != nil:
		return graph.Snapshot{}, 0, errors.Wrap(errors.ErrCodeInternal, err, "configure simulation")
	}

	sc := scene.New(dims)
	sc.Sync(nodes, links, opts.Style(p))

	ticks, err := driver.Run(ctx, opts.MaxTicks, nil)
	if err != nil {
		return graph.Snapshot{}, ticks, err
	}
	sc.Apply(driver.Sim.Frame())

	if r.layout == graph.LayoutSpiral && len(nodes) > 0 {
		sc.SetGuide(layout.SpiralGuide(len(nodes), dims, params.Spiral))
	}

	snap := sc.Snapshot(r.layout, viewport.Fit(sc.Bounds(), dims))
	snap.Move = p.Move
	snap.Scope = p.Scope
	snap.Params = params.Values(r.layout)
	snap.Ticks = ticks
	return snap, ticks, nil
}
