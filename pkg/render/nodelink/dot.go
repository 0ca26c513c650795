package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/treescope/pkg/tree"
)

// Format is an export format.
type Format string

// Supported formats.
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatDOT Format = "dot"
)

// Formats lists every supported format.
var Formats = []Format{FormatPNG, FormatSVG, FormatDOT}

// Rendering defaults.
const (
	DefaultBackground = "#ffffff"
	DefaultPixelRatio = 2.0
	HighlightColor    = "#6366f180"

	NodeWidth  = 160.0
	NodeHeight = 40.0
	pointsPer  = 72.0
)

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// FormatFromFilename infers the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Options configures node-link rendering.
type Options struct {
	// Highlight draws a ring around one node. Use tree.NoNode for none.
	Highlight tree.NodeID

	// Background is the canvas color. Empty means DefaultBackground.
	Background string

	// PixelRatio scales PNG output. Zero means DefaultPixelRatio.
	PixelRatio float64
}

// DefaultOptions returns white-background, 2x, no-highlight options.
func DefaultOptions() Options {
	return Options{Highlight: tree.NoNode, Background: DefaultBackground, PixelRatio: DefaultPixelRatio}
}

func (o Options) withDefaults() Options {
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.PixelRatio <= 0 {
		o.PixelRatio = DefaultPixelRatio
	}
	return o
}

// ToDOT converts a laid-out graph to Graphviz DOT with every node pinned at
// its computed position. Graphviz's y axis points up, so y is flipped.
//
// Nodes are filled with their kind color; the highlighted node, if any, gets
// a thick translucent indigo outline.
func ToDOT(g *tree.Graph, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", opts.Background)
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, fontcolor=white, color=\"#ffffff40\", penwidth=2, margin=\"0.11,0.11\"];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#b1b1b7\"];\n")
	buf.WriteString("\n")

	if g == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	for _, n := range g.Nodes() {
		attrs := fmtAttrs(n, n.ID == opts.Highlight)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID.String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source.String(), e.Target.String())
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n tree.Node, highlighted bool) []string {
	attrs := []string{
		"label=" + dotQuote(n.Label),
		"tooltip=" + dotQuote(n.Path),
		fmt.Sprintf("fillcolor=%q", n.Kind.Color()),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(n.Position.X), fmtFloat(0-n.Position.Y)),
		fmt.Sprintf("width=%s", fmtFloat(NodeWidth/pointsPer)),
		fmt.Sprintf("height=%s", fmtFloat(NodeHeight/pointsPer)),
	}
	if highlighted {
		attrs = append(attrs, fmt.Sprintf("color=%q", HighlightColor), "penwidth=6")
	}
	return attrs
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// dotQuote quotes s as a DOT label string. A backslash in s stays a literal
// backslash, so sequences like \l in document text are not interpreted.
func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Render draws g in the requested format. DOT output skips Graphviz.
func Render(ctx context.Context, g *tree.Graph, format Format, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	dot := ToDOT(g, opts)
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot, opts.PixelRatio)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// RenderSVG lays out DOT with neato (positions stay pinned) and returns SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT to PNG. A scale of 2.0 doubles the resolution.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = DefaultPixelRatio
	}
	dpi := fmt.Sprintf("  dpi=%s;\n", fmtFloat(pointsPer*scale))
	scaled := strings.Replace(dot, "digraph G {\n", "digraph G {\n"+dpi, 1)
	return renderDOT(ctx, scaled, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
