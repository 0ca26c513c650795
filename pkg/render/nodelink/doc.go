// Package nodelink renders laid-out trees as node-link images.
//
// Node positions come from [layout.Build] and are pinned in the generated
// DOT, so Graphviz (neato) only draws; it never re-lays out the tree.
//
//	dot := nodelink.ToDOT(g, nodelink.DefaultOptions())
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//
// Or in one call, choosing the format from a file name:
//
//	f, _ := nodelink.FormatFromFilename("tree.png")
//	data, err := nodelink.Render(ctx, g, f, opts)
//
// Objects are blue, arrays green and primitives amber. Setting
// [Options.Highlight] outlines one node.
//
// [layout.Build]: github.com/matzehuels/treescope/pkg/layout.Build
package nodelink
