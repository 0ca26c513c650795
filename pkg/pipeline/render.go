package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/treescope/pkg/graph"
	"github.com/matzehuels/treescope/pkg/observability"
	"github.com/matzehuels/treescope/pkg/render/nodelink"
	"github.com/matzehuels/treescope/pkg/search"
	"github.com/matzehuels/treescope/pkg/tree"
)

// Render generates output artifacts in the requested formats.
//
// Image formats go through the nodelink renderer; "json" is the graph
// document. When opts.Highlight resolves to a node, images ring it; a
// highlight that matches nothing is ignored.
func Render(ctx context.Context, g *tree.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, g, opts)

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, g *tree.Graph, opts Options) (map[string][]byte, error) {
	linkOpts := RenderOptions(g, opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = graph.MarshalDocument(g)
		case FormatPNG, FormatSVG, FormatDOT:
			data, err = nodelink.Render(ctx, g, nodelink.Format(format), linkOpts)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// RenderOptions converts pipeline options to nodelink options, resolving the
// highlight query against g.
func RenderOptions(g *tree.Graph, opts Options) nodelink.Options {
	o := nodelink.Options{
		Highlight:  tree.NoNode,
		Background: opts.Background,
		PixelRatio: opts.PixelRatio,
	}
	if opts.Highlight != "" {
		if r := search.Resolve(opts.Highlight, g); r.Matched {
			o.Highlight = r.NodeID
		}
	}
	return o
}
