// Package observability lets a host watch treescope at work without the core
// packages importing a metrics backend.
//
// Four event families are exposed: the pipeline stages (parse, layout,
// render), path resolution, cache lookups and HTTP requests. Each family has
// an interface, a no-op implementation that is active by default, and a
// process-wide slot that a binary fills once at startup:
//
//	metrics.New(nil).Install() // prometheus implementation
//
// Library code reads the slot at the point of the event:
//
//	start := time.Now()
//	observability.Pipeline().OnParseStart(ctx, "yaml", "values.yaml")
//	v, err := value.Parse(value.FormatYAML, data)
//	observability.Pipeline().OnParseComplete(ctx, "yaml", "values.yaml", time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks observes the parse, layout and render stages. Complete
// events always follow their Start event, with err set on failure.
type PipelineHooks interface {
	OnParseStart(ctx context.Context, format, source string)
	OnParseComplete(ctx context.Context, format, source string, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, format string)
	OnLayoutComplete(ctx context.Context, nodeCount int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// SearchHooks observes path resolution. Resolution is synchronous and takes
// no context, so neither does the hook.
type SearchHooks interface {
	// OnResolve is called once per query with its canonical form.
	OnResolve(canonical string, matched bool)
}

// CacheHooks observes cache traffic. keyType is "graph" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks observes API requests. path is the route pattern, not the raw
// URL, so label cardinality stays bounded.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string, string)                          {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, string, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string)                                 {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, time.Duration, error)           {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                               {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)      {}

// NoopSearchHooks ignores every resolution.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnResolve(string, bool) {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every request.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// slot holds the active implementation of one hook family. Reads are
// lock-free since every pipeline stage and request consults a slot.
type slot[T any] struct {
	v    atomic.Pointer[T]
	noop T
}

func newSlot[T any](noop T) *slot[T] {
	s := &slot[T]{noop: noop}
	s.reset()
	return s
}

func (s *slot[T]) get() T { return *s.v.Load() }

func (s *slot[T]) set(h T) { s.v.Store(&h) }

func (s *slot[T]) reset() { s.set(s.noop) }

var (
	pipelineSlot = newSlot[PipelineHooks](NoopPipelineHooks{})
	searchSlot   = newSlot[SearchHooks](NoopSearchHooks{})
	cacheSlot    = newSlot[CacheHooks](NoopCacheHooks{})
	httpSlot     = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetPipelineHooks installs h for pipeline events. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.set(h)
	}
}

// SetSearchHooks installs h for resolution events. A nil h is ignored.
func SetSearchHooks(h SearchHooks) {
	if h != nil {
		searchSlot.set(h)
	}
}

// SetCacheHooks installs h for cache events. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetHTTPHooks installs h for request events. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

// Pipeline returns the active pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Search returns the active resolution hooks.
func Search() SearchHooks { return searchSlot.get() }

// Cache returns the active cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// HTTP returns the active request hooks.
func HTTP() HTTPHooks { return httpSlot.get() }

// Reset puts every family back on its no-op implementation. Tests that
// install hooks call it in t.Cleanup.
func Reset() {
	pipelineSlot.reset()
	searchSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
