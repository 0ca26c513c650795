package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/config"
	"github.com/matzehuels/treescope/pkg/explorer"
	"github.com/matzehuels/treescope/pkg/pipeline"
	"github.com/matzehuels/treescope/pkg/search"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output     string   // output file (single format) or base path (multiple)
	formats    []string // png, svg, dot, json
	format     string   // input format override
	sample     bool
	highlight  string  // path query of the node to ring
	pixelRatio float64 // PNG scale factor
	background string
	noCache    bool
}

// exportCommand creates the export command that renders a document's tree.
func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr string
	opts := exportOpts{pixelRatio: pipeline.DefaultPixelRatio}

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Render the tree of a document as PNG, SVG, DOT or JSON",
		Long: `Render the tree of a document.

With no --output and no --format the image is written as a PNG named
json-tree-<timestamp>.png, like the explorer's export button. Otherwise the
format follows --format, or the extension of --output. Several formats
(--format svg,png) are written next to each other using --output as a base.`,
		Example: `  treescope export --sample
  treescope export config.yaml -o config.svg --highlight server.port
  treescope export data.json --format svg,png,dot -o out/data`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.formats = exportFormats(formatsStr, opts.output)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.runExport(cmd.Context(), cfg, path, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple), - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png, svg, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.format, "input-format", "i", "", "input format: json, yaml or toml (default: from extension)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "use the built-in sample document")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "path query of the node to highlight")
	cmd.Flags().Float64Var(&opts.pixelRatio, "pixel-ratio", opts.pixelRatio, "PNG scale factor")
	cmd.Flags().StringVar(&opts.background, "background", "", "background color (default white)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd)
	addCacheFlags(cmd)

	return cmd
}

// exportFormats decides the output formats. An explicit list wins, then the
// extension of output, then PNG.
func exportFormats(formatsStr, output string) []string {
	if formatsStr != "" {
		return parseFormats(formatsStr)
	}
	if ext := strings.TrimPrefix(filepath.Ext(output), "."); pipeline.ValidFormats[ext] {
		return []string{ext}
	}
	return []string{pipeline.FormatPNG}
}

func (c *CLI) runExport(ctx context.Context, cfg *config.Config, path string, opts *exportOpts) error {
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
	popts.Formats = opts.formats
	popts.Highlight = opts.highlight
	popts.PixelRatio = opts.pixelRatio
	popts.Background = opts.background

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	res, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Export failed")
		return err
	}
	spinner.Stop()
	prog.done("rendered "+in.source, "formats", strings.Join(opts.formats, ","), "cached", res.CacheInfo.RenderHit)

	paths := exportPaths(opts.output, in.source, opts.formats, time.Now())
	formats := make([]string, 0, len(paths))
	for f := range paths {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	for _, f := range formats {
		if err := writeArtifact(paths[f], res.Artifacts[f]); err != nil {
			return err
		}
	}
	if opts.output == "-" {
		return nil
	}

	printSuccess("Export complete")
	for _, f := range formats {
		printFile(paths[f])
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.MaxDepth, res.CacheInfo.RenderHit)
	if opts.highlight != "" && !search.Resolve(opts.highlight, res.Graph).Matched {
		printWarning("highlight %q matched no node", opts.highlight)
	}
	return nil
}

// exportPaths maps each format to its output file. With one format, output
// is used as is; with several, output (or the input name) is a base path
// that gets each extension.
func exportPaths(output, source string, formats []string, now time.Time) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 {
		f := formats[0]
		switch {
		case output != "":
			paths[f] = output
		case f == pipeline.FormatPNG:
			paths[f] = explorer.DefaultExportFilename(now)
		default:
			paths[f] = strings.TrimSuffix(explorer.DefaultExportFilename(now), ".png") + "." + f
		}
		return paths
	}
	base := basePath(output, source)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for path, stdout for "-". Missing parent
// directories are created.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

func writeArtifact(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
