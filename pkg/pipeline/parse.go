package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/treescope/pkg/observability"
	"github.com/matzehuels/treescope/pkg/value"
)

// Parse decodes opts.Input. Malformed input returns a *value.ParseError
// whose message is the parser's own; nesting beyond opts.MaxDepth returns a
// STRUCTURE_TOO_DEEP error.
func Parse(ctx context.Context, opts Options) (value.Value, error) {
	if err := opts.ValidateForParse(); err != nil {
		return value.Value{}, err
	}
	opts.SetLayoutDefaults()

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, opts.Format, opts.Source)
	start := time.Now()

	v, err := value.Parse(value.Format(opts.Format), opts.Input, value.WithMaxDepth(opts.MaxDepth))

	hooks.OnParseComplete(ctx, opts.Format, opts.Source, time.Since(start), err)
	if err != nil {
		opts.Logger.Debug("parse failed", "format", opts.Format, "source", opts.Source, "error", err)
		return value.Value{}, err
	}
	return v, nil
}
