// Package metrics implements the observability hooks on Prometheus.
//
// A [Registry] owns its own prometheus.Registry so tests and embedded
// servers never collide on the global default. Register it with
// observability.SetPipelineHooks, SetCacheHooks and SetHTTPHooks, and
// expose [Registry.Handler] on /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abid8042/chessnetviz/pkg/observability"
)

const namespace = "chessnetviz"

// Registry holds every chessnetviz metric.
type Registry struct {
	// Pipeline
	LoadsTotal     *prometheus.CounterVec
	LoadDuration   prometheus.Histogram
	LayoutsTotal   *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec
	LayoutTicks    *prometheus.HistogramVec
	LayoutNodes    *prometheus.HistogramVec
	RendersTotal   *prometheus.CounterVec
	RenderDuration prometheus.Histogram

	// Cache
	CacheOpsTotal *prometheus.CounterVec
	CacheSetBytes *prometheus.HistogramVec

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric registered, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.initPipelineMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

// Prometheus returns the underlying registry.
func (r *Registry) Prometheus() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as the process-wide pipeline, cache and HTTP hooks.
func (r *Registry) Install() {
	observability.SetPipelineHooks(r)
	observability.SetCacheHooks(r)
	observability.SetHTTPHooks(r)
}

func (r *Registry) initPipelineMetrics() {
	f := promauto.With(r.registry)
	r.LoadsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_loads_total",
		Help:      "Dataset loads by outcome",
	}, []string{"status"})
	r.LoadDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dataset_load_duration_seconds",
		Help:      "Time to read and validate a dataset",
		Buckets:   prometheus.DefBuckets,
	})
	r.LayoutsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layouts_total",
		Help:      "Simulation runs by layout type and outcome",
	}, []string{"layout", "status"})
	r.LayoutDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_duration_seconds",
		Help:      "Wall time of a simulation run",
		Buckets:   prometheus.DefBuckets,
	}, []string{"layout"})
	r.LayoutTicks = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_ticks",
		Help:      "Ticks until a simulation run stopped",
		Buckets:   []float64{1, 10, 50, 100, 200, 300, 500, 1000},
	}, []string{"layout"})
	r.LayoutNodes = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_nodes",
		Help:      "Visible nodes per simulation run",
		Buckets:   []float64{0, 8, 16, 32, 48, 64},
	}, []string{"layout"})
	r.RendersTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renders_total",
		Help:      "Artifacts rendered by format and outcome",
	}, []string{"format", "status"})
	r.RenderDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Time to encode every requested format of one snapshot",
		Buckets:   prometheus.DefBuckets,
	})
}

func (r *Registry) initCacheMetrics() {
	f := promauto.With(r.registry)
	r.CacheOpsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_operations_total",
		Help:      "Cache lookups and writes by key kind and result",
	}, []string{"kind", "result"})
	r.CacheSetBytes = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cache_set_bytes",
		Help:      "Size of values written to the cache",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"kind"})
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)
	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	r.HTTPRequestsInFlight = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Current number of HTTP requests being processed",
	})
}

// =============================================================================
// Hook Implementations
// =============================================================================

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnLoadStart implements observability.PipelineHooks.
func (r *Registry) OnLoadStart(context.Context, string) {}

// OnLoadComplete implements observability.PipelineHooks.
func (r *Registry) OnLoadComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	r.LoadsTotal.WithLabelValues(status(err)).Inc()
	r.LoadDuration.Observe(d.Seconds())
}

// OnLayoutStart implements observability.PipelineHooks.
func (r *Registry) OnLayoutStart(_ context.Context, layout string, nodes int) {
	r.LayoutNodes.WithLabelValues(layout).Observe(float64(nodes))
}

// OnLayoutComplete implements observability.PipelineHooks.
func (r *Registry) OnLayoutComplete(_ context.Context, layout string, ticks int, d time.Duration, err error) {
	r.LayoutsTotal.WithLabelValues(layout, status(err)).Inc()
	r.LayoutDuration.WithLabelValues(layout).Observe(d.Seconds())
	if err == nil {
		r.LayoutTicks.WithLabelValues(layout).Observe(float64(ticks))
	}
}

// OnRenderStart implements observability.PipelineHooks.
func (r *Registry) OnRenderStart(context.Context, []string) {}

// OnRenderComplete implements observability.PipelineHooks.
func (r *Registry) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		r.RendersTotal.WithLabelValues(f, status(err)).Inc()
	}
	r.RenderDuration.Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (r *Registry) OnCacheHit(_ context.Context, kind string) {
	r.CacheOpsTotal.WithLabelValues(kind, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (r *Registry) OnCacheMiss(_ context.Context, kind string) {
	r.CacheOpsTotal.WithLabelValues(kind, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (r *Registry) OnCacheSet(_ context.Context, kind string, size int) {
	r.CacheOpsTotal.WithLabelValues(kind, "set").Inc()
	r.CacheSetBytes.WithLabelValues(kind).Observe(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (r *Registry) OnRequest(context.Context, string, string) {
	r.HTTPRequestsInFlight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (r *Registry) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	r.HTTPRequestsInFlight.Dec()
	s := strconv.Itoa(code)
	r.HTTPRequestsTotal.WithLabelValues(method, route, s).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, s).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Registry)(nil)
	_ observability.CacheHooks    = (*Registry)(nil)
	_ observability.HTTPHooks     = (*Registry)(nil)
)
