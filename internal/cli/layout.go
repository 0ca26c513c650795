package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/config"
	"github.com/matzehuels/treescope/pkg/graph"
	"github.com/matzehuels/treescope/pkg/pipeline"
)

// layoutOpts holds the flags of the layout command.
type layoutOpts struct {
	output  string
	format  string
	sample  bool
	noCache bool
	refresh bool
}

// layoutCommand creates the layout command that writes the graph document.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute the tree layout of a document",
		Long: `Compute the tree layout of a JSON, YAML or TOML document.

The output is a graph document (<input>.tree.json by default, - for stdout)
holding every node with its position, kind, label and canonical path, the
parent/child edges, and the path index. Use 'export' to render it as an image.

Layouts are cached by document content and layout settings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.runLayout(cmd.Context(), cfg, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.tree.json, - for stdout)")
	cmd.Flags().StringVarP(&opts.format, "input-format", "i", "", "input format: json, yaml or toml (default: from extension)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "use the built-in sample document")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached layouts")
	addLayoutFlags(cmd)
	addCacheFlags(cmd)

	return cmd
}

// runLayout reads the input, builds the graph and writes the document.
func (c *CLI) runLayout(ctx context.Context, cfg *config.Config, path string, opts layoutOpts) error {
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
	popts.Refresh = opts.refresh

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	res, err := runner.Layout(ctx, popts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("layout %s: %w", in.source, err)
	}
	spinner.Stop()
	prog.done("laid out "+in.source, "nodes", res.Stats.NodeCount, "cached", res.CacheInfo.LayoutHit)

	if opts.output == "-" {
		return graph.WriteDocument(res.Graph, c.Out)
	}
	outputPath := opts.output
	if outputPath == "" {
		outputPath = basePath("", in.source) + ".tree.json"
	}
	if err := graph.WriteDocumentFile(res.Graph, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.MaxDepth, res.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", fmt.Sprintf("%s export %s -o %s.%s", appName, in.sourceArg(), basePath("", in.source), pipeline.FormatSVG))
	return nil
}

// sourceArg is how the input is named on a follow-up command line.
func (in input) sourceArg() string {
	if in.source == "sample" {
		return "--sample"
	}
	if _, err := os.Stat(in.source); err != nil {
		return "-"
	}
	return in.source
}
