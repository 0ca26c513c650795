package viewport

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	treeerrors "github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/layout"
	"github.com/matzehuels/treescope/pkg/render/nodelink"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/value"
)

// Positions: $ (240,0), a (40,110), b (340,110), b[0] (240,220), b[1] (440,220).
func testGraph(t *testing.T) *tree.Graph {
	t.Helper()
	v := value.Object(
		value.Field("a", value.Int(1)),
		value.Field("b", value.Array(value.Bool(true), value.Null())),
	)
	g, err := layout.Build(v)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFitAll(t *testing.T) {
	c := NewCamera()
	c.FitAll() // no graph: no-op
	if st := c.State(); st.Zoom != 1 {
		t.Errorf("FitAll() without graph changed zoom to %v", st.Zoom)
	}

	c.Show(testGraph(t))
	c.FitAll()
	st := c.State()
	if !approx(st.Center.X, 240) || !approx(st.Center.Y, 110) {
		t.Errorf("FitAll() center = %+v, want (240,110)", st.Center)
	}
	// Box (-40,-20)-(520,240) with 20% padding on a 1024x520 screen.
	if want := 1024.0 / (560 * 1.2); !approx(st.Zoom, want) {
		t.Errorf("FitAll() zoom = %v, want %v", st.Zoom, want)
	}
	if got := len(c.VisibleNodes()); got != 5 {
		t.Errorf("VisibleNodes() after FitAll = %d, want 5", got)
	}
}

func TestFocus(t *testing.T) {
	c := NewCamera()
	if err := c.Focus(0); !errors.Is(err, ErrNoGraph) {
		t.Errorf("Focus() without graph = %v, want ErrNoGraph", err)
	}

	c.Show(testGraph(t))
	if err := c.Focus(3); err != nil {
		t.Fatalf("Focus(3): %v", err)
	}
	st := c.State()
	if !approx(st.Center.X, 240) || !approx(st.Center.Y, 220) {
		t.Errorf("Focus(3) center = %+v, want (240,220)", st.Center)
	}
	if st.Zoom != DefaultMaxZoom {
		t.Errorf("Focus(3) zoom = %v, want clamp to %v", st.Zoom, DefaultMaxZoom)
	}

	if err := c.Focus(99); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Focus(99) = %v, want ErrUnknownNode", err)
	}
}

func TestZoom(t *testing.T) {
	c := NewCamera()
	c.ZoomIn()
	if got := c.State().Zoom; !approx(got, 1.2) {
		t.Errorf("ZoomIn() = %v, want 1.2", got)
	}
	for i := 0; i < 10; i++ {
		c.ZoomIn()
	}
	if got := c.State().Zoom; got != DefaultMaxZoom {
		t.Errorf("ZoomIn() x11 = %v, want %v", got, DefaultMaxZoom)
	}
	for i := 0; i < 20; i++ {
		c.ZoomOut()
	}
	if got := c.State().Zoom; got != DefaultMinZoom {
		t.Errorf("ZoomOut() x20 = %v, want %v", got, DefaultMinZoom)
	}

	custom := NewCamera(WithZoomRange(0.1, 10), WithSize(100, 100))
	for i := 0; i < 5; i++ {
		custom.ZoomOut()
	}
	if got := custom.State().Zoom; got >= DefaultMinZoom {
		t.Errorf("custom range ZoomOut() = %v, want below %v", got, DefaultMinZoom)
	}
}

func TestShowClearsHighlight(t *testing.T) {
	c := NewCamera()
	c.Show(testGraph(t))
	c.Highlight(2)
	if got := c.State().Highlight; got != 2 {
		t.Errorf("Highlight = %v, want n_2", got)
	}
	c.Show(testGraph(t))
	if got := c.State().Highlight; got != tree.NoNode {
		t.Errorf("Highlight after Show = %v, want NoNode", got)
	}
}

func TestExportImage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewCamera()

	if err := c.ExportImage(ctx, filepath.Join(dir, "tree.dot")); !errors.Is(err, ErrNoGraph) {
		t.Errorf("ExportImage() without graph = %v, want ErrNoGraph", err)
	}

	c.Show(testGraph(t))
	c.Highlight(1)
	out := filepath.Join(dir, "nested", "tree.dot")
	if err := c.ExportImage(ctx, out); err != nil {
		t.Fatalf("ExportImage: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), nodelink.HighlightColor) {
		t.Error("exported DOT should ring the highlighted node")
	}

	err = c.ExportImage(ctx, filepath.Join(dir, "tree.gif"))
	if !treeerrors.Is(err, treeerrors.ErrCodeInvalidFormat) {
		t.Errorf("ExportImage(.gif) = %v, want INVALID_FORMAT", err)
	}
	err = c.ExportImage(ctx, "../escape.png")
	if !treeerrors.Is(err, treeerrors.ErrCodeInvalidPath) {
		t.Errorf("ExportImage(../) = %v, want INVALID_PATH", err)
	}
}
