package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treescope/pkg/cache"
	"github.com/matzehuels/treescope/pkg/graph"
	"github.com/matzehuels/treescope/pkg/observability"
	"github.com/matzehuels/treescope/pkg/tree"
)

// Runner executes the pipeline against a cache. It keeps no per-run state,
// so one Runner serves concurrent CLI, server and explorer calls.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a Runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	r := &Runner{Cache: c, Keyer: keyer, Logger: logger}
	if r.Cache == nil {
		r.Cache = cache.NewNullCache()
	}
	if r.Keyer == nil {
		r.Keyer = cache.NewDefaultKeyer()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// Execute lays out opts.Input and renders every format in opts.Formats.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.defaultLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res, err := r.Layout(ctx, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res.Artifacts, res.CacheInfo.RenderHit, err = r.RenderCached(ctx, res.Graph, res.GraphHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Stats.RenderTime = time.Since(start)

	if len(opts.Formats) > 0 {
		r.Logger.Info("rendered outputs", "formats", opts.Formats, "cached", res.CacheInfo.RenderHit, "duration", res.Stats.RenderTime)
	}
	return res, nil
}

// Layout parses and lays out opts.Input. The graph is cached under the raw
// input plus the layout settings; a hit skips parsing and is rebuilt from the
// stored document with a fresh build ID. Refresh bypasses the lookup but
// still stores the result.
func (r *Runner) Layout(ctx context.Context, opts Options) (*Result, error) {
	r.defaultLogger(&opts)
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}

	key := r.Keyer.GraphKey(opts.Format, cache.Hash(opts.Input), opts.GraphKeyOpts())
	res := &Result{
		GraphHash: cache.Hash([]byte(key)),
		Artifacts: map[string][]byte{},
	}

	start := time.Now()
	if !opts.Refresh {
		if g := r.loadGraph(ctx, key); g != nil {
			res.Graph = g
			res.CacheInfo.LayoutHit = true
			res.Stats.LayoutTime = time.Since(start)
			res.countGraph()
			r.Logger.Debug("layout cache hit", "key", key, "nodes", res.Stats.NodeCount)
			return res, nil
		}
	}

	v, err := Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.ParseTime = time.Since(start)

	start = time.Now()
	if res.Graph, err = GenerateLayout(ctx, v, opts); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	res.Stats.LayoutTime = time.Since(start)
	res.countGraph()

	r.Logger.Info("built layout",
		"source", opts.Source,
		"format", opts.Format,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"duration", res.Stats.ParseTime+res.Stats.LayoutTime)

	r.storeGraph(ctx, key, res.Graph)
	return res, nil
}

// RenderCached renders g in opts.Formats. Artifacts are served from the
// cache only when every requested format is cached; JSON embeds the build
// ID and is never cached. The bool reports a full cache hit.
func (r *Runner) RenderCached(ctx context.Context, g *tree.Graph, graphHash string, opts Options) (map[string][]byte, bool, error) {
	r.defaultLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if len(opts.Formats) == 0 {
		return map[string][]byte{}, false, nil
	}

	if cached := r.loadArtifacts(ctx, graphHash, opts); cached != nil {
		return cached, true, nil
	}

	rendered, err := Render(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}
	r.storeArtifacts(ctx, graphHash, rendered, opts)
	return rendered, false, nil
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache == nil {
		return nil
	}
	return r.Cache.Close()
}

// loadGraph returns the cached graph for key, or nil. Entries that fail to
// decode are deleted.
func (r *Runner) loadGraph(ctx context.Context, key string) *tree.Graph {
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, cache.KeyTypeGraph)
		return nil
	}

	g, err := decodeGraph(data)
	if err != nil {
		r.Logger.Debug("discarding cached layout", "key", key, "error", err)
		_ = r.Cache.Delete(ctx, key)
		hooks.OnCacheMiss(ctx, cache.KeyTypeGraph)
		return nil
	}
	hooks.OnCacheHit(ctx, cache.KeyTypeGraph)
	return g
}

func decodeGraph(data []byte) (*tree.Graph, error) {
	doc, err := graph.UnmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	doc.BuildID = ""
	return graph.ToTree(doc)
}

// storeGraph caches g. Graphs holding NaN or an infinity are skipped since
// the wire document would turn those numbers into null.
func (r *Runner) storeGraph(ctx context.Context, key string, g *tree.Graph) {
	if !g.Root().Value.Finite() {
		r.Logger.Debug("not caching layout with non-finite numbers", "key", key)
		return
	}
	data, err := graph.MarshalDocument(g)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.GraphTTL); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeGraph, len(data))
}

// loadArtifacts returns every requested artifact from the cache, or nil if
// any one is missing.
func (r *Runner) loadArtifacts(ctx context.Context, graphHash string, opts Options) map[string][]byte {
	hooks := observability.Cache()
	if graphHash == "" {
		return nil
	}

	out := make(map[string][]byte, len(opts.Formats))
	for _, f := range opts.Formats {
		if f == FormatJSON {
			hooks.OnCacheMiss(ctx, cache.KeyTypeArtifact)
			return nil
		}
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(f)))
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, cache.KeyTypeArtifact)
			return nil
		}
		out[f] = data
	}
	for range out {
		hooks.OnCacheHit(ctx, cache.KeyTypeArtifact)
	}
	return out
}

func (r *Runner) storeArtifacts(ctx context.Context, graphHash string, rendered map[string][]byte, opts Options) {
	if graphHash == "" {
		return
	}
	for f, data := range rendered {
		if f == FormatJSON {
			continue
		}
		key := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(f))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, cache.KeyTypeArtifact, len(data))
	}
}

func (res *Result) countGraph() {
	res.Stats.NodeCount = res.Graph.Len()
	res.Stats.EdgeCount = len(res.Graph.Edges())
	res.Stats.MaxDepth = res.Graph.MaxDepth()
}

func (r *Runner) defaultLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
