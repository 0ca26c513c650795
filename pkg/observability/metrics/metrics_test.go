package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/treescope/pkg/observability"
)

func TestMetricsHooks(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())

	m.OnParseComplete(ctx, "json", "a.json", time.Millisecond, nil)
	m.OnParseComplete(ctx, "json", "b.json", time.Millisecond, errors.New("bad"))
	if got := testutil.ToFloat64(m.Parses.WithLabelValues("json", "ok")); got != 1 {
		t.Errorf("parse ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Parses.WithLabelValues("json", "error")); got != 1 {
		t.Errorf("parse error = %v, want 1", got)
	}

	m.OnLayoutComplete(ctx, 12, time.Millisecond, nil)
	if got := testutil.ToFloat64(m.Layouts.WithLabelValues("ok")); got != 1 {
		t.Errorf("layout ok = %v, want 1", got)
	}

	m.OnResolve("$.a", true)
	m.OnResolve("$.b", false)
	m.OnResolve("$.c", false)
	if got := testutil.ToFloat64(m.Resolves.WithLabelValues("false")); got != 2 {
		t.Errorf("resolve misses = %v, want 2", got)
	}

	m.OnCacheMiss(ctx, "graph")
	m.OnCacheSet(ctx, "graph", 128)
	m.OnCacheHit(ctx, "graph")
	if got := testutil.ToFloat64(m.CacheBytes.WithLabelValues("graph")); got != 128 {
		t.Errorf("cache bytes = %v, want 128", got)
	}
	if got := testutil.ToFloat64(m.CacheOps.WithLabelValues("graph", "hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}

	m.OnRequest(ctx, "GET", "/healthz")
	if got := testutil.ToFloat64(m.InFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)
	if got := testutil.ToFloat64(m.InFlight); got != 0 {
		t.Errorf("in flight after response = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/healthz", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()

	m := New(prometheus.NewRegistry())
	m.Install()

	observability.Search().OnResolve("$.x", true)
	if got := testutil.ToFloat64(m.Resolves.WithLabelValues("true")); got != 1 {
		t.Errorf("resolve via global hooks = %v, want 1", got)
	}
}
