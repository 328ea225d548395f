// Package pipeline provides the load → layout → render pipeline shared by
// the CLI and the HTTP server.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Load: read, decode and validate a dataset ([Load])
//  2. Layout: process one move scope, apply filters and sort, run the force
//     simulation to rest, build the scene and fit the viewport ([Layout])
//  3. Render: encode the resulting [graph.Snapshot] in each requested format
//     ([RenderArtifacts])
//
// Each stage is deterministic for a given dataset, options and seed, so a
// [Runner] memoizes snapshots and artifacts in a [cache.Cache].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	src, err := runner.Load(ctx, "game.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, src, pipeline.Options{
//	    Move:    12,
//	    Layout:  "spiral",
//	    Formats: []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abid8042/chessnetviz/pkg/cache"
	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/render"
	"github.com/abid8042/chessnetviz/pkg/scene"
	"github.com/abid8042/chessnetviz/pkg/sim"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 1200.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 800.0

	// DefaultMaxTicks bounds a headless simulation run. The default decay
	// reaches alphaMin from the restart energy well before this.
	DefaultMaxTicks = 1000

	// DefaultSeed seeds the simulation jitter.
	DefaultSeed = int64(sim.DefaultSeed)

	// DefaultLayout is the layout used when none is requested.
	DefaultLayout = graph.LayoutForceDirected

	// DefaultScope is the scope used when none is requested.
	DefaultScope = graph.ScopeCombined
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. It supports JSON for server
// requests; string fields hold the same identifiers the CLI flags take.
type Options struct {
	// Move is the zero-based move index.
	Move  int    `json:"move"`
	Scope string `json:"scope,omitempty"`

	// Layout options
	Layout   string             `json:"layout,omitempty"`
	Params   map[string]float64 `json:"params,omitempty"` // overrides on the layout's defaults
	Width    float64            `json:"width,omitempty"`
	Height   float64            `json:"height,omitempty"`
	MaxTicks int                `json:"max_ticks,omitempty"`
	Seed     int64              `json:"seed,omitempty"`

	// Visible set
	Sort    string     `json:"sort,omitempty"` // "key" or "key:asc|desc"
	Filters FilterSpec `json:"filters,omitempty"`

	// Style options
	Coloring string `json:"coloring,omitempty"`
	Palette  string `json:"palette,omitempty"`
	Selected string `json:"selected,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Refresh bool     `json:"refresh,omitempty"` // bypass cache reads

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	resolved  resolved
	validated bool
}

// FilterSpec is the serializable form of dataset.Filters. Metric windows
// are keyed by metric name and applied on top of each scope's data ranges.
type FilterSpec struct {
	Search      string                `json:"search,omitempty"`
	PieceTypes  []int                 `json:"piece_types,omitempty"`
	PieceColor  string                `json:"piece_color,omitempty"`
	Components  []int                 `json:"components,omitempty"`
	Communities []int                 `json:"communities,omitempty"`
	Metrics     map[string][2]float64 `json:"metrics,omitempty"`
	Missing     string                `json:"missing,omitempty"` // "exclude" or "include"
}

// resolved holds Options parsed into typed values.
type resolved struct {
	scope    graph.Scope
	layout   graph.LayoutType
	params   layout.Params
	sort     graph.SortConfig
	coloring scene.Coloring
	palette  scene.Palette
	formats  []render.Format
	missing  dataset.MissingMetricPolicy
	metrics  map[graph.MetricKey][2]float64
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the positioned, styled scene.
	Snapshot graph.Snapshot

	// Processed is the move scope before filtering.
	Processed *dataset.Processed

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	LinkCount    int
	VisibleNodes int
	VisibleLinks int
	Ticks        int
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	SnapshotHit bool // Whether the snapshot came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and parses every identifier.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.setDefaults()

	var r resolved
	var err error

	if r.scope, err = graph.ParseScope(o.Scope); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScope, err, "scope")
	}
	if r.layout, err = graph.ParseLayoutType(o.Layout); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidLayout, err, "layout")
	}
	r.params = layout.DefaultParams()
	for _, key := range sortedKeys(o.Params) {
		if err := r.params.Set(r.layout, key, o.Params[key]); err != nil {
			return err
		}
	}
	if r.sort, err = graph.ParseSort(o.Sort); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "sort")
	}
	if r.coloring, err = scene.ParseColoring(o.Coloring); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "coloring")
	}
	if r.palette, err = scene.ParsePalette(o.Palette); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "palette")
	}
	if r.formats, err = render.ParseFormats(strings.Join(o.Formats, ",")); err != nil {
		return err
	}

	var ok bool
	if r.missing, ok = dataset.ParseMissingMetricPolicy(o.Filters.Missing); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid missing-metric policy: %q", o.Filters.Missing)
	}
	r.metrics = make(map[graph.MetricKey][2]float64, len(o.Filters.Metrics))
	for name, w := range o.Filters.Metrics {
		k, ok := graph.ParseMetricKey(name)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unknown metric filter: %q", name)
		}
		r.metrics[k] = w
	}

	if o.Move < 0 {
		return errors.New(errors.ErrCodeMoveOutOfRange, "move index %d is negative", o.Move)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "dimensions must be positive, got %vx%v", o.Width, o.Height)
	}

	o.resolved = r
	o.validated = true
	return nil
}

func (o *Options) setDefaults() {
	if o.Scope == "" {
		o.Scope = string(DefaultScope)
	}
	if o.Layout == "" {
		o.Layout = string(DefaultLayout)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MaxTicks == 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Sort == "" {
		o.Sort = graph.DefaultSort.Key + ":" + string(graph.DefaultSort.Order)
	}
	if o.Coloring == "" {
		o.Coloring = scene.DefaultColoring.ID()
	}
	if o.Palette == "" {
		o.Palette = string(scene.DefaultPalette)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{string(render.FormatSVG)}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Dimensions returns the viewport size.
func (o *Options) Dimensions() graph.Dimensions {
	return graph.Dimensions{Width: o.Width, Height: o.Height}
}

// LayoutParams returns the layout parameter records with overrides applied.
// Valid after ValidateAndSetDefaults.
func (o *Options) LayoutParams() layout.Params { return o.resolved.params }

// Style returns the scene style for the given full-scope ranges.
// Valid after ValidateAndSetDefaults.
func (o *Options) Style(p *dataset.Processed) scene.Style {
	return scene.Style{
		Coloring: o.resolved.coloring,
		Palette:  o.resolved.palette,
		Selected: o.Selected,
		Ranges:   p.Ranges,
	}
}

// SnapshotKeyOpts returns the cache key inputs of the snapshot stage.
func (o *Options) SnapshotKeyOpts() cache.SnapshotKeyOpts {
	r := o.resolved
	return cache.SnapshotKeyOpts{
		Move:     o.Move,
		Scope:    string(r.scope),
		Layout:   string(r.layout),
		Params:   r.params.Values(r.layout),
		Coloring: r.coloring.ID(),
		Palette:  string(r.palette),
		Sort:     r.sort.Key + ":" + string(r.sort.Order),
		Filters:  o.Filters.key(),
		Selected: o.Selected,
		Width:    o.Width,
		Height:   o.Height,
		MaxTicks: o.MaxTicks,
		Seed:     o.Seed,
	}
}

// key renders the filters canonically for cache keys.
func (f FilterSpec) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "s=%q;t=%v;c=%q;cmp=%v;com=%v;miss=%s", f.Search, f.PieceTypes, f.PieceColor, f.Components, f.Communities, f.Missing)
	for _, name := range sortedKeys(f.Metrics) {
		w := f.Metrics[name]
		b.WriteString(";" + name + "=" +
			strconv.FormatFloat(w[0], 'g', -1, 64) + "," +
			strconv.FormatFloat(w[1], 'g', -1, 64))
	}
	return b.String()
}
