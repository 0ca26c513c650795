// Package viewport defines the camera abstraction the explorer drives and a
// headless implementation of it.
//
// A [Viewport] knows which graph is on screen, where it is looking and how
// far it is zoomed in. [Camera] tracks that state in layout coordinates and
// exports images through the nodelink renderer, so it works the same in a
// terminal, behind the HTTP server, or in tests.
package viewport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	treeerrors "github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/render/nodelink"
	"github.com/matzehuels/treescope/pkg/tree"
)

// Camera defaults.
const (
	DefaultWidth   = 1024.0
	DefaultHeight  = 520.0
	DefaultMinZoom = 0.5
	DefaultMaxZoom = 2.0
	ZoomStep       = 1.2
	FitPadding     = 0.2
	FocusPadding   = 0.4
)

var (
	// ErrNoGraph is returned when an operation needs a graph and none is shown.
	ErrNoGraph = errors.New("viewport: no graph loaded")

	// ErrUnknownNode is returned by Focus for an id outside the shown graph.
	ErrUnknownNode = errors.New("viewport: unknown node")
)

// Viewport is what the explorer needs from a rendering surface.
type Viewport interface {
	// Show replaces the displayed graph. A nil graph clears the surface.
	Show(g *tree.Graph)

	// Highlight rings one node. tree.NoNode clears the ring.
	Highlight(id tree.NodeID)

	// Focus centers on one node with FocusPadding around it.
	Focus(id tree.NodeID) error

	// FitAll frames the whole graph with FitPadding around it.
	FitAll()

	ZoomIn()
	ZoomOut()

	// ExportImage writes the displayed graph to filename. The format follows
	// the extension (.png, .svg or .dot).
	ExportImage(ctx context.Context, filename string) error
}

// State is a snapshot of a camera.
type State struct {
	Center    tree.Point
	Zoom      float64
	Highlight tree.NodeID
	Visible   tree.Rect
}

// Camera is a headless [Viewport]. It is safe for concurrent use.
type Camera struct {
	mu        sync.RWMutex
	graph     *tree.Graph
	width     float64
	height    float64
	minZoom   float64
	maxZoom   float64
	zoom      float64
	center    tree.Point
	highlight tree.NodeID
	render    nodelink.Options
	logger    *log.Logger
}

// Option configures a Camera.
type Option func(*Camera)

// WithSize sets the screen size in pixels.
func WithSize(width, height float64) Option {
	return func(c *Camera) {
		if width > 0 {
			c.width = width
		}
		if height > 0 {
			c.height = height
		}
	}
}

// WithZoomRange bounds the zoom factor.
func WithZoomRange(min, max float64) Option {
	return func(c *Camera) {
		if min > 0 && max >= min {
			c.minZoom, c.maxZoom = min, max
		}
	}
}

// WithRenderOptions sets background and pixel ratio for exports.
func WithRenderOptions(o nodelink.Options) Option {
	return func(c *Camera) { c.render = o }
}

// WithLogger sets the logger used for export messages.
func WithLogger(l *log.Logger) Option {
	return func(c *Camera) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCamera returns an empty camera at zoom 1.
func NewCamera(opts ...Option) *Camera {
	c := &Camera{
		width:     DefaultWidth,
		height:    DefaultHeight,
		minZoom:   DefaultMinZoom,
		maxZoom:   DefaultMaxZoom,
		zoom:      1,
		highlight: tree.NoNode,
		render:    nodelink.DefaultOptions(),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show replaces the graph. The camera keeps its zoom; callers usually follow
// with FitAll.
func (c *Camera) Show(g *tree.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graph = g
	c.highlight = tree.NoNode
}

// Graph returns the displayed graph, or nil.
func (c *Camera) Graph() *tree.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph
}

// Highlight sets the ringed node.
func (c *Camera) Highlight(id tree.NodeID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.highlight = id
}

// Focus frames node id.
func (c *Camera) Focus(id tree.NodeID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		return ErrNoGraph
	}
	n, ok := c.graph.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	c.fit(nodeBox(n.Position, n.Position), FocusPadding)
	return nil
}

// FitAll frames the whole graph. It does nothing when no graph is shown.
func (c *Camera) FitAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		return
	}
	b := c.graph.Bounds()
	c.fit(nodeBox(b.Min, b.Max), FitPadding)
}

// ZoomIn multiplies the zoom by ZoomStep up to the maximum.
func (c *Camera) ZoomIn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = c.clamp(c.zoom * ZoomStep)
}

// ZoomOut divides the zoom by ZoomStep down to the minimum.
func (c *Camera) ZoomOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = c.clamp(c.zoom / ZoomStep)
}

// State returns the current camera state.
func (c *Camera) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hw, hh := c.width/c.zoom/2, c.height/c.zoom/2
	return State{
		Center:    c.center,
		Zoom:      c.zoom,
		Highlight: c.highlight,
		Visible: tree.Rect{
			Min: tree.Point{X: c.center.X - hw, Y: c.center.Y - hh},
			Max: tree.Point{X: c.center.X + hw, Y: c.center.Y + hh},
		},
	}
}

// VisibleNodes returns the nodes whose centers are on screen, in pre-order.
func (c *Camera) VisibleNodes() []tree.Node {
	st := c.State()
	g := c.Graph()
	if g == nil {
		return nil
	}
	var out []tree.Node
	for _, n := range g.Nodes() {
		p := n.Position
		if p.X >= st.Visible.Min.X && p.X <= st.Visible.Max.X &&
			p.Y >= st.Visible.Min.Y && p.Y <= st.Visible.Max.Y {
			out = append(out, n)
		}
	}
	return out
}

// Render returns the displayed graph in the given format with the current
// highlight.
func (c *Camera) Render(ctx context.Context, format nodelink.Format) ([]byte, error) {
	c.mu.RLock()
	g, opts := c.graph, c.render
	opts.Highlight = c.highlight
	c.mu.RUnlock()
	if g == nil {
		return nil, ErrNoGraph
	}
	return nodelink.Render(ctx, g, format, opts)
}

// ExportImage renders the graph and writes it to filename.
func (c *Camera) ExportImage(ctx context.Context, filename string) error {
	if err := treeerrors.ValidateExportFilename(filename); err != nil {
		return err
	}
	format, err := nodelink.FormatFromFilename(filename)
	if err != nil {
		return treeerrors.Wrap(treeerrors.ErrCodeInvalidFormat, err, "export %s", filename)
	}
	data, err := c.Render(ctx, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}
	c.logger.Debug("exported image", "file", filename, "format", format, "bytes", len(data))
	return nil
}

// fit centers on r and zooms so r plus padding fills the screen.
func (c *Camera) fit(r tree.Rect, padding float64) {
	zx := c.width / (r.Width() * (1 + padding))
	zy := c.height / (r.Height() * (1 + padding))
	c.zoom = c.clamp(math.Min(zx, zy))
	c.center = r.Center()
}

func (c *Camera) clamp(z float64) float64 {
	return math.Max(c.minZoom, math.Min(c.maxZoom, z))
}

// nodeBox grows the box spanned by two node centers to cover the nodes.
func nodeBox(min, max tree.Point) tree.Rect {
	hw, hh := nodelink.NodeWidth/2, nodelink.NodeHeight/2
	return tree.Rect{
		Min: tree.Point{X: min.X - hw, Y: min.Y - hh},
		Max: tree.Point{X: max.X + hw, Y: max.Y + hh},
	}
}

var _ Viewport = (*Camera)(nil)
