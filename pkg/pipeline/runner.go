package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abid8042/chessnetviz/pkg/cache"
	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/observability"
	"github.com/abid8042/chessnetviz/pkg/render"
)

// Runner executes the pipeline with caching.
//
// The Runner is stateless except for the cache and logger: multiple
// goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-kind cache lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching; a nil keyer
// uses cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Load reads a dataset file.
func (r *Runner) Load(ctx context.Context, path string) (*Source, error) {
	start := time.Now()
	src, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("loaded dataset",
		"file", src.Name,
		"moves", src.Dataset.Len(),
		"duration", time.Since(start))
	return src, nil
}

// Execute runs layout and render for one move scope of src.
func (r *Runner) Execute(ctx context.Context, src *Source, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	p, err := src.Dataset.Process(opts.Move, opts.resolved.scope)
	if err != nil {
		return nil, err
	}
	result := &Result{Processed: p}
	result.Stats.NodeCount = len(p.Nodes)
	result.Stats.LinkCount = len(p.Links)

	layoutStart := time.Now()
	snap, hit, err := r.snapshot(ctx, src, p, &opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Snapshot = snap
	result.CacheInfo.SnapshotHit = hit
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Ticks = snap.Ticks
	result.Stats.VisibleNodes = len(snap.Nodes)
	result.Stats.VisibleLinks = len(snap.Links)

	r.Logger.Info("computed layout",
		"move", opts.Move,
		"scope", snap.Scope,
		"layout", snap.Layout,
		"nodes", len(snap.Nodes),
		"ticks", snap.Ticks,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, hit, err := r.artifacts(ctx, snap, opts.resolved.formats, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// ExecuteAll runs every move of src with opts, at most limit at a time
// (GOMAXPROCS when limit <= 0). fn receives each result as it completes
// and may be called concurrently. The first error cancels the rest.
func (r *Runner) ExecuteAll(ctx context.Context, src *Source, opts Options, limit int, fn func(*Result) error) error {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < src.Dataset.Len(); i++ {
		o := opts
		o.Move = i
		o.validated = false
		g.Go(func() error {
			res, err := r.Execute(ctx, src, o)
			if err != nil {
				return fmt.Errorf("move %d: %w", i, err)
			}
			return fn(res)
		})
	}
	return g.Wait()
}

// Snapshot computes (or fetches) the snapshot for one move scope.
func (r *Runner) Snapshot(ctx context.Context, src *Source, opts Options) (graph.Snapshot, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Snapshot{}, false, err
	}
	p, err := src.Dataset.Process(opts.Move, opts.resolved.scope)
	if err != nil {
		return graph.Snapshot{}, false, err
	}
	return r.snapshot(ctx, src, p, &opts)
}

func (r *Runner) snapshot(ctx context.Context, src *Source, p *dataset.Processed, opts *Options) (graph.Snapshot, bool, error) {
	key := r.Keyer.SnapshotKey(src.Hash, opts.SnapshotKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if snap, err := graph.UnmarshalSnapshot(data); err == nil {
				observability.Cache().OnCacheHit(ctx, cache.KindSnapshot)
				return snap, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "kind", cache.KindSnapshot, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, cache.KindSnapshot)
	}

	snap, _, err := Layout(ctx, p, *opts)
	if err != nil {
		return graph.Snapshot{}, false, err
	}
	if m, err := src.Dataset.Move(opts.Move); err == nil {
		snap.MoveSAN = m.SAN
		snap.FEN = m.FEN
	}

	r.store(ctx, cache.KindSnapshot, key, snap, r.ttl(cache.TTLSnapshot))
	return snap, false, nil
}

// Render encodes snap in formats with caching.
func (r *Runner) Render(ctx context.Context, snap graph.Snapshot, formats []render.Format) (map[string][]byte, bool, error) {
	return r.artifacts(ctx, snap, formats, false)
}

func (r *Runner) artifacts(ctx context.Context, snap graph.Snapshot, formats []render.Format, refresh bool) (map[string][]byte, bool, error) {
	data, err := graph.MarshalSnapshot(snap)
	if err != nil {
		return nil, false, fmt.Errorf("serialize snapshot for cache key: %w", err)
	}
	snapHash := cache.Hash(data)

	if !refresh {
		cached := make(map[string][]byte, len(formats))
		for _, f := range formats {
			v, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(snapHash, string(f)))
			if err != nil || !hit {
				break
			}
			cached[string(f)] = v
		}
		if len(cached) == len(formats) {
			observability.Cache().OnCacheHit(ctx, cache.KindArtifact)
			return cached, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, cache.KindArtifact)
	}

	out, err := RenderArtifacts(ctx, snap, formats)
	if err != nil {
		return nil, false, err
	}
	for name, v := range out {
		key := r.Keyer.ArtifactKey(snapHash, name)
		if err := r.Cache.Set(ctx, key, v, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Warn("cache write failed", "kind", cache.KindArtifact, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, cache.KindArtifact, len(v))
	}
	return out, false, nil
}

func (r *Runner) store(ctx context.Context, kind, key string, snap graph.Snapshot, ttl time.Duration) {
	data, err := graph.MarshalSnapshot(snap)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
