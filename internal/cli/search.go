package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/config"
	"github.com/matzehuels/treescope/pkg/search"
	"github.com/matzehuels/treescope/pkg/tree"
)

type searchOpts struct {
	format  string
	sample  bool
	noCache bool
}

// searchCommand creates the search command that resolves a path query.
func (c *CLI) searchCommand() *cobra.Command {
	var opts searchOpts

	cmd := &cobra.Command{
		Use:   "search [file] <query>",
		Short: "Resolve a path query against a document",
		Long: `Resolve a path query against a document and print the node it names.

Queries may use dot or bracket notation, with or without the leading $:
  $.user.address.city   user.address.city   items[0].price   $['a.b']

A query that names nothing prints "No match found" and exits with status 0.`,
		Example: `  treescope search config.yaml server.port
  treescope search --sample '$.user.address.city'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			var path string
			query := args[len(args)-1]
			if len(args) == 2 {
				path = args[0]
			}
			return c.runSearch(cmd.Context(), cfg, path, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "input-format", "i", "", "input format: json, yaml or toml (default: from extension)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "use the built-in sample document")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd)
	addCacheFlags(cmd)

	return cmd
}

func (c *CLI) runSearch(ctx context.Context, cfg *config.Config, path, query string, opts searchOpts) error {
	in, err := readInput(path, opts.format, opts.sample)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	popts := cfg.PipelineOptions()
	popts.Input = in.data
	popts.Format = in.format
	popts.Source = in.source

	res, err := runner.Layout(ctx, popts)
	if err != nil {
		return fmt.Errorf("layout %s: %w", in.source, err)
	}

	r := search.Resolve(query, res.Graph)
	c.Logger.Debug("resolved", "query", query, "canonical", r.Canonical, "matched", r.Matched)
	if !r.Matched {
		printWarning("No match found")
		if r.Canonical != "" {
			printDetail("normalized: %s", r.Canonical)
		}
		return nil
	}

	n, _ := res.Graph.Node(r.NodeID)
	printSuccess("Match found")
	printKeyValue("Node", n.ID.String())
	printKeyValue("Path", n.Path)
	printKeyValue("Kind", kindStyle(n.Kind).Render(n.Kind.String()))
	printKeyValue("Label", n.Label)
	printKeyValue("Position", fmt.Sprintf("%.0f, %.0f", n.Position.X, n.Position.Y))
	if n.Kind == tree.KindPrimitive {
		return nil
	}
	printNewline()
	printDetail("%d children: %s", len(res.Graph.Children(n.ID)), childLabels(res.Graph, n.ID))
	return nil
}

// childLabels lists up to five child labels of id.
func childLabels(g *tree.Graph, id tree.NodeID) string {
	const max = 5
	kids := g.Children(id)
	labels := make([]string, 0, max+1)
	for i, k := range kids {
		if i == max {
			labels = append(labels, fmt.Sprintf("… %d more", len(kids)-max))
			break
		}
		n, _ := g.Node(k)
		labels = append(labels, n.Label)
	}
	return strings.Join(labels, ", ")
}
