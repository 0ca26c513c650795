// Package metrics implements the observability hooks with Prometheus
// collectors. The server registers them at startup and exposes the registry
// on /metrics.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/treescope/pkg/observability"
)

const namespace = "treescope"

// Metrics holds every collector. It implements PipelineHooks, SearchHooks,
// CacheHooks and HTTPHooks.
type Metrics struct {
	Parses        *prometheus.CounterVec
	ParseSeconds  *prometheus.HistogramVec
	Layouts       *prometheus.CounterVec
	LayoutSeconds prometheus.Histogram
	LayoutNodes   prometheus.Histogram
	Renders       *prometheus.CounterVec
	Resolves      *prometheus.CounterVec
	CacheOps      *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec
	Requests      *prometheus.CounterVec
	InFlight      prometheus.Gauge
	RequestTime   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Documents parsed, by format and outcome.",
		}, []string{"format", "outcome"}),
		ParseSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing input documents.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		Layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_total",
			Help:      "Tree layouts built, by outcome.",
		}, []string{"outcome"}),
		LayoutSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent building tree layouts.",
			Buckets:   prometheus.DefBuckets,
		}),
		LayoutNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Node count of built layouts.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Artifact renders, by outcome.",
		}, []string{"outcome"}),
		Resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Path queries, by whether a node matched.",
		}, []string{"matched"}),
		CacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes, by key type and operation.",
		}, []string{"key_type", "op"}),
		CacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache, by key type.",
		}, []string{"key_type"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API responses, by method, route and status.",
		}, []string{"method", "route", "status"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "API requests currently being served.",
		}),
		RequestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.Parses, m.ParseSeconds,
		m.Layouts, m.LayoutSeconds, m.LayoutNodes,
		m.Renders, m.Resolves,
		m.CacheOps, m.CacheBytes,
		m.Requests, m.InFlight, m.RequestTime,
	)
	return m
}

// Install registers m as the global hook implementation for every category.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetSearchHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// Pipeline
// =============================================================================

func (m *Metrics) OnParseStart(context.Context, string, string) {}

func (m *Metrics) OnParseComplete(_ context.Context, format, _ string, d time.Duration, err error) {
	m.Parses.WithLabelValues(format, outcome(err)).Inc()
	m.ParseSeconds.WithLabelValues(format).Observe(d.Seconds())
}

func (m *Metrics) OnLayoutStart(context.Context, string) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, nodes int, d time.Duration, err error) {
	m.Layouts.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.LayoutSeconds.Observe(d.Seconds())
		m.LayoutNodes.Observe(float64(nodes))
	}
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	m.Renders.WithLabelValues(outcome(err)).Inc()
}

// =============================================================================
// Search and cache
// =============================================================================

func (m *Metrics) OnResolve(_ string, matched bool) {
	m.Resolves.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheOps.WithLabelValues(keyType, "set").Inc()
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// HTTP
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.InFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.InFlight.Dec()
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.SearchHooks   = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
