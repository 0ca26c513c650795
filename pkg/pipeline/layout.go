package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/treescope/pkg/layout"
	"github.com/matzehuels/treescope/pkg/observability"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/value"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout builds the positioned tree for v with the layout settings
// in opts. Every call yields a new graph with a fresh build ID.
func GenerateLayout(ctx context.Context, v value.Value, opts Options) (*tree.Graph, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Format)
	start := time.Now()

	g, err := layout.Build(v, layout.WithConfig(opts.LayoutConfig()))

	nodes := 0
	if g != nil {
		nodes = g.Len()
	}
	hooks.OnLayoutComplete(ctx, nodes, time.Since(start), err)
	return g, err
}
