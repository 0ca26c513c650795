package explorer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/observability"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/viewport"
)

// recorder is a Viewport that logs every call.
type recorder struct {
	mu    sync.Mutex
	calls []string
	shown *tree.Graph
}

func (r *recorder) log(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Show(g *tree.Graph)       { r.shown = g; r.log("show") }
func (r *recorder) Highlight(id tree.NodeID) { r.log("highlight " + id.String()) }
func (r *recorder) Focus(id tree.NodeID) error {
	r.log("focus " + id.String())
	return nil
}
func (r *recorder) FitAll()  { r.log("fit") }
func (r *recorder) ZoomIn()  { r.log("in") }
func (r *recorder) ZoomOut() { r.log("out") }
func (r *recorder) ExportImage(_ context.Context, name string) error {
	r.log("export " + name)
	return nil
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.calls
	r.calls = nil
	return out
}

var _ viewport.Viewport = (*recorder)(nil)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func newSession(view viewport.Viewport) *Session {
	return New(nil, view, WithLogger(quietLogger()))
}

func TestSessionLoad(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := newSession(rec)

	if snap := s.Snapshot(); snap.State != StateEmpty || snap.Graph != nil {
		t.Fatalf("new session = %+v, want empty", snap)
	}

	if err := s.Load(ctx, []byte(`{"a":[1,2]}`), "json", "doc.json"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateValid || snap.Graph.Len() != 4 {
		t.Fatalf("after Load: state %v, graph %v", snap.State, snap.Graph)
	}
	if snap.Source != "doc.json" || snap.Format != "json" {
		t.Errorf("Source/Format = %q/%q", snap.Source, snap.Format)
	}
	got := strings.Join(rec.take(), ",")
	if got != "show,highlight n_-1,fit" {
		t.Errorf("viewport calls = %q, want show, clear highlight, fit", got)
	}
	if rec.shown != snap.Graph {
		t.Error("viewport should show the loaded graph")
	}
}

func TestSessionFailedLoadKeepsGraph(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := newSession(rec)

	if err := s.Load(ctx, []byte(`{"a":1}`), "json", "a"); err != nil {
		t.Fatal(err)
	}
	s.Search("a")
	before := s.Snapshot()
	rec.take()

	err := s.Load(ctx, []byte(`{"a":`), "json", "b")
	if err == nil {
		t.Fatal("Load(malformed) should fail")
	}
	after := s.Snapshot()
	if after.Graph != before.Graph || after.Highlight != before.Highlight || after.Status != before.Status {
		t.Error("failed load must leave graph, highlight and status untouched")
	}
	if after.Source != "a" {
		t.Errorf("Source = %q, want a", after.Source)
	}
	if after.LoadErr == nil || after.LoadErr.Error() != "unexpected end of JSON input" {
		t.Errorf("LoadErr = %v, want parser message", after.LoadErr)
	}
	if calls := rec.take(); len(calls) != 0 {
		t.Errorf("failed load touched the viewport: %v", calls)
	}

	// Next success clears the error
	if err := s.Load(ctx, []byte(`[]`), "json", "c"); err != nil {
		t.Fatal(err)
	}
	if s.Snapshot().LoadErr != nil {
		t.Error("successful load should clear LoadErr")
	}
}

func TestSessionReloadReplacesGraph(t *testing.T) {
	ctx := context.Background()
	s := newSession(&recorder{})

	_ = s.Load(ctx, []byte(`{"x":{"y":1}}`), "json", "")
	first := s.Snapshot().Graph
	s.Search("$.x.y")
	if s.Snapshot().Highlight == tree.NoNode {
		t.Fatal("search should highlight")
	}

	_ = s.Load(ctx, []byte(`{"x":{"y":1}}`), "json", "")
	snap := s.Snapshot()
	if snap.Graph == first || snap.Graph.BuildID() == first.BuildID() {
		t.Error("reload should produce an independent graph")
	}
	if snap.Highlight != tree.NoNode || snap.Status != StatusNone {
		t.Errorf("reload should clear highlight and status, got %v %v", snap.Highlight, snap.Status)
	}
}

// parkedParse holds the parse of one source until released.
type parkedParse struct {
	observability.NoopPipelineHooks
	source  string
	started chan struct{}
	release chan struct{}
}

func (p *parkedParse) OnParseStart(_ context.Context, _, source string) {
	if source == p.source {
		close(p.started)
		<-p.release
	}
}

func TestSessionNewestLoadWins(t *testing.T) {
	ctx := context.Background()
	s := newSession(&recorder{})

	hooks := &parkedParse{source: "old", started: make(chan struct{}), release: make(chan struct{})}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	done := make(chan error, 1)
	go func() { done <- s.Load(ctx, []byte(`{"old":1}`), "json", "old") }()
	<-hooks.started

	if err := s.Load(ctx, []byte(`{"new":[1,2]}`), "json", "new"); err != nil {
		t.Fatalf("newer Load: %v", err)
	}
	close(hooks.release)
	if err := <-done; err != nil {
		t.Fatalf("older Load: %v", err)
	}

	snap := s.Snapshot()
	if snap.Source != "new" {
		t.Errorf("Source = %q, want new", snap.Source)
	}
	if _, ok := snap.Graph.Lookup("$.new"); !ok {
		t.Error("older load overwrote the newer graph")
	}
}

func TestSessionSearch(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := newSession(rec)

	// No graph: nothing happens
	if res := s.Search("$.a"); res.Matched {
		t.Error("Search on empty session should not match")
	}
	if s.Snapshot().Status != StatusNone {
		t.Error("Search on empty session should not set a status")
	}

	if err := s.LoadSample(ctx); err != nil {
		t.Fatalf("LoadSample: %v", err)
	}
	rec.take()

	res := s.Search(DefaultQuery)
	if !res.Matched {
		t.Fatalf("Search(%q) should match the sample", DefaultQuery)
	}
	snap := s.Snapshot()
	if snap.Status != StatusFound || snap.Highlight != res.NodeID {
		t.Errorf("after match: status %v, highlight %v", snap.Status, snap.Highlight)
	}
	want := []string{"highlight " + res.NodeID.String(), "focus " + res.NodeID.String()}
	if got := rec.take(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("viewport calls = %v, want %v", got, want)
	}

	graph := snap.Graph
	miss := s.Search("$.nope")
	if miss.Matched {
		t.Error("Search($.nope) should miss")
	}
	snap = s.Snapshot()
	if snap.Status != StatusNotFound || snap.Status.String() != "No match found" {
		t.Errorf("after miss: status %v", snap.Status)
	}
	if snap.Highlight != res.NodeID {
		t.Error("a miss keeps the previous highlight")
	}
	if snap.Graph != graph {
		t.Error("queries must not replace the graph")
	}
	if len(rec.take()) != 0 {
		t.Error("a miss should not move the viewport")
	}
}

func TestSessionLoadFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newSession(&recorder{})

	path := filepath.Join(dir, "conf.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if snap := s.Snapshot(); snap.Format != "yaml" {
		t.Errorf("Format = %q, want yaml", snap.Format)
	}
	if res := s.Search("server.port"); !res.Matched {
		t.Error("server.port should resolve")
	}

	if err := s.LoadFile(ctx, filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}
	if s.Snapshot().State != StateValid {
		t.Error("missing file should keep the loaded graph")
	}
}

func TestSessionExport(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := newSession(rec)

	_, err := s.Export(ctx, "")
	if !errors.Is(err, errors.ErrCodeGraphNotFound) {
		t.Errorf("Export() on empty session = %v, want GRAPH_NOT_FOUND", err)
	}

	_ = s.LoadSample(ctx)
	rec.take()
	name, err := s.Export(ctx, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasPrefix(name, "json-tree-") || !strings.HasSuffix(name, ".png") {
		t.Errorf("default export name = %q", name)
	}
	if got := rec.take(); len(got) != 1 || got[0] != "export "+name {
		t.Errorf("viewport calls = %v", got)
	}
}

func TestSessionWithCamera(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil, WithLogger(quietLogger()))
	if err := s.LoadSample(ctx); err != nil {
		t.Fatal(err)
	}
	cam := s.Viewport().(*viewport.Camera)
	fitZoom := cam.State().Zoom

	res := s.Search("$.items[1].price")
	if !res.Matched {
		t.Fatal("$.items[1].price should match")
	}
	st := cam.State()
	n, _ := s.Snapshot().Graph.Node(res.NodeID)
	if st.Center != n.Position {
		t.Errorf("camera center = %+v, want node position %+v", st.Center, n.Position)
	}
	if st.Zoom < fitZoom {
		t.Errorf("focus zoom %v should not be below fit zoom %v", st.Zoom, fitZoom)
	}

	out := filepath.Join(t.TempDir(), "tree.dot")
	if _, err := s.Export(ctx, out); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestDefaultExportFilename(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.UTC)
	if got, want := DefaultExportFilename(ts), "json-tree-2024-03-09T14-05-07-123Z.png"; got != want {
		t.Errorf("DefaultExportFilename() = %q, want %q", got, want)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(`{"a":1}`), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(nil, &recorder{}, WithLogger(quietLogger()), WithDebounce(50*time.Millisecond))
	if err := s.LoadFile(ctx, path); err != nil {
		t.Fatal(err)
	}

	reloads := make(chan error, 8)
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, path, func(err error) { reloads <- err }) }()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`{"a":1,"b":[true]}`), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-reloads:
		if err != nil {
			t.Fatalf("reload error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	if _, ok := s.Snapshot().Graph.Lookup("$.b[0]"); !ok {
		t.Error("reloaded graph should contain $.b[0]")
	}

	before := s.Snapshot().Graph
	if err := os.WriteFile(path, []byte(`{"broken`), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-reloads:
		if err == nil {
			t.Fatal("broken file should report a reload error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after broken write")
	}
	if s.Snapshot().Graph != before {
		t.Error("failed reload should keep the previous graph")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() = %v, want nil on cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}
