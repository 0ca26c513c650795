// Package explorer holds the interactive state behind the treescope explorer:
// the current graph, the highlighted node and the last search outcome.
//
// A [Session] starts empty and becomes valid on the first successful load.
// Each later successful load replaces the graph wholesale. A failed load
// keeps the previous graph and reports the parser's message through
// [Session.Snapshot]. Searches never change which graph is loaded.
package explorer

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/pipeline"
	"github.com/matzehuels/treescope/pkg/search"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/treepath"
	"github.com/matzehuels/treescope/pkg/value"
	"github.com/matzehuels/treescope/pkg/viewport"
)

// DefaultQuery is the query the explorer offers before the user types one.
const DefaultQuery = "$.user.address.city"

// State is the load state of a session.
type State int

const (
	StateEmpty State = iota
	StateValid
)

func (s State) String() string {
	if s == StateValid {
		return "valid"
	}
	return "empty"
}

// Status is the outcome of the most recent search.
type Status int

const (
	StatusNone Status = iota
	StatusFound
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "Match found"
	case StatusNotFound:
		return "No match found"
	}
	return ""
}

// Snapshot is a consistent copy of session state.
type Snapshot struct {
	State     State
	Graph     *tree.Graph
	Source    string
	Format    string
	Highlight tree.NodeID
	Status    Status
	Query     string
	LoadErr   error // Last failed load, cleared by the next success
}

// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	runner    *pipeline.Runner
	view      viewport.Viewport
	logger    *log.Logger
	base      pipeline.Options
	debounce  time.Duration
	graph     *tree.Graph
	source    string
	format    string
	highlight tree.NodeID
	status    Status
	query     string
	loadErr   error
	loads     uint64 // Incremented per Load; only the newest may install its graph
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPipelineOptions sets the layout and limit settings applied to every
// load. Input, Format and Source are ignored.
func WithPipelineOptions(o pipeline.Options) Option {
	return func(s *Session) { s.base = o }
}

// WithDebounce sets how long Watch waits for writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates an empty session. A nil runner builds without caching; a nil
// view uses a headless camera.
func New(runner *pipeline.Runner, view viewport.Viewport, opts ...Option) *Session {
	s := &Session{
		runner:    runner,
		view:      view,
		logger:    log.Default(),
		debounce:  100 * time.Millisecond,
		highlight: tree.NoNode,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.view == nil {
		s.view = viewport.NewCamera(viewport.WithLogger(s.logger))
	}
	return s
}

// Viewport returns the surface the session drives.
func (s *Session) Viewport() viewport.Viewport { return s.view }

// Load parses data and replaces the graph. On failure the previous graph,
// highlight and status are kept and the error is returned and recorded.
// Loads may overlap; a load that finishes after a newer one started is
// discarded, whatever its outcome.
func (s *Session) Load(ctx context.Context, data []byte, format, source string) error {
	s.mu.Lock()
	s.loads++
	seq := s.loads
	s.mu.Unlock()

	opts := s.base
	opts.Input = data
	opts.Format = format
	opts.Source = source
	opts.Formats = nil
	opts.Logger = nil

	res, err := s.runner.Layout(ctx, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loads {
		s.logger.Debug("discarding superseded load", "source", source)
		return err
	}
	if err != nil {
		s.loadErr = err
		s.logger.Warn("load failed, keeping previous graph", "source", source, "error", errors.UserMessage(err))
		return err
	}

	s.graph = res.Graph
	s.source = source
	s.format = opts.Format
	if s.format == "" {
		s.format = string(pipeline.DefaultInputFormat)
	}
	s.highlight = tree.NoNode
	s.status = StatusNone
	s.loadErr = nil

	s.view.Show(res.Graph)
	s.view.Highlight(tree.NoNode)
	s.view.FitAll()
	return nil
}

// LoadFile reads path and loads it, inferring the format from the
// extension. Unknown extensions are parsed as JSON.
func (s *Session) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		return err
	}
	format, ferr := value.FormatFromPath(path)
	if ferr != nil {
		format = value.FormatJSON
	}
	return s.Load(ctx, data, string(format), path)
}

// LoadSample loads the built-in demo document.
func (s *Session) LoadSample(ctx context.Context) error {
	return s.Load(ctx, value.SampleJSON(), string(value.FormatJSON), "sample")
}

// Search resolves raw against the loaded graph. A match becomes the
// highlighted node and the view focuses it; a miss keeps the previous
// highlight. With no graph loaded nothing changes.
func (s *Session) Search(raw string) search.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph == nil {
		return search.Result{NodeID: tree.NoNode, Canonical: treepath.Normalize(raw)}
	}
	s.query = raw
	res := search.Resolve(raw, s.graph)
	if !res.Matched {
		s.status = StatusNotFound
		return res
	}

	s.status = StatusFound
	s.highlight = res.NodeID
	s.view.Highlight(res.NodeID)
	if err := s.view.Focus(res.NodeID); err != nil {
		s.logger.Debug("focus failed", "node", res.NodeID, "error", err)
	}
	return res
}

// FitAll frames the whole graph.
func (s *Session) FitAll() { s.view.FitAll() }

// ZoomIn zooms the view in one step.
func (s *Session) ZoomIn() { s.view.ZoomIn() }

// ZoomOut zooms the view out one step.
func (s *Session) ZoomOut() { s.view.ZoomOut() }

// Export writes the current graph as an image. An empty filename uses
// DefaultExportFilename. It returns the filename written.
func (s *Session) Export(ctx context.Context, filename string) (string, error) {
	s.mu.RLock()
	loaded := s.graph != nil
	s.mu.RUnlock()
	if !loaded {
		return "", errors.New(errors.ErrCodeGraphNotFound, "nothing to export: no document loaded")
	}
	if filename == "" {
		filename = DefaultExportFilename(time.Now())
	}
	if err := s.view.ExportImage(ctx, filename); err != nil {
		return "", err
	}
	s.logger.Info("exported", "file", filename)
	return filename, nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := StateEmpty
	if s.graph != nil {
		st = StateValid
	}
	return Snapshot{
		State:     st,
		Graph:     s.graph,
		Source:    s.source,
		Format:    s.format,
		Highlight: s.highlight,
		Status:    s.status,
		Query:     s.query,
		LoadErr:   s.loadErr,
	}
}

var exportReplacer = strings.NewReplacer(":", "-", ".", "-")

// DefaultExportFilename returns "json-tree-<UTC timestamp>.png" with the
// timestamp's colons and dots turned into dashes.
func DefaultExportFilename(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return "json-tree-" + exportReplacer.Replace(ts) + ".png"
}
