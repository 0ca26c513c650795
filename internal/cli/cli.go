// Package cli implements the treescope command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/buildinfo"
	"github.com/matzehuels/treescope/pkg/cache"
	"github.com/matzehuels/treescope/pkg/config"
	"github.com/matzehuels/treescope/pkg/layout"
	"github.com/matzehuels/treescope/pkg/pipeline"
	"github.com/matzehuels/treescope/pkg/value"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "treescope"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Logs go to the logger's writer.
	Out io.Writer

	cfgFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Treescope lays out JSON, YAML and TOML documents as navigable trees",
		Long: `Treescope turns a structured document into a positioned node-link tree,
indexes every node by its canonical path, and resolves path queries such as
$.user.address.city or items[0].price to the node they name.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: ./treescope.yaml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// addLayoutFlags registers the flags shared by every command that builds a
// graph. Values reach the pipeline through config.Load.
func addLayoutFlags(cmd *cobra.Command) {
	def := layout.DefaultConfig()
	cmd.Flags().Float64("h-gap", def.HGap, "horizontal spacing per leaf column")
	cmd.Flags().Float64("v-gap", def.VGap, "vertical spacing per depth level")
	cmd.Flags().Float64("margin", def.Margin, "left inset of the leftmost node")
	cmd.Flags().Int("max-depth", def.MaxDepth, "deepest nesting accepted (0 disables the limit)")
	cmd.Flags().Int64("max-input-bytes", 0, "largest document accepted (default 8 MiB)")
}

// addCacheFlags registers the cache backend flags.
func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().String("cache", cache.BackendFile, "cache backend: file, redis, mongo or none")
	cmd.Flags().String("cache-dir", "", "file cache directory")
	cmd.Flags().String("cache-url", "", "redis:// or mongodb:// address for remote caches")
}

// loadConfig merges defaults, the config file, env vars and cmd's flags.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if lvl := cfg.LogLevel(); lvl < c.Logger.GetLevel() {
		c.SetLogLevel(lvl)
	}
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
// A cache that cannot be opened degrades to no caching.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(c.openCache(ctx, cfg, noCache), nil, c.Logger)
}

func (c *CLI) openCache(ctx context.Context, cfg *config.Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	cc, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "backend", cfg.Cache.Backend, "error", err)
		return cache.NewNullCache()
	}
	return cc
}

// =============================================================================
// Input
// =============================================================================

// input is a document read from disk, stdin or the built-in sample.
type input struct {
	data   []byte
	format string
	source string
}

// readInput loads path ("-" for stdin) or the sample document. format
// overrides the extension-based guess; unknown extensions parse as JSON.
func readInput(path, format string, sample bool) (input, error) {
	if sample {
		return input{data: value.SampleJSON(), format: string(value.FormatJSON), source: "sample"}, nil
	}
	if path == "" {
		return input{}, fmt.Errorf("no input: pass a file, - for stdin, or --sample")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return input{}, fmt.Errorf("read %s: %w", path, err)
	}

	if format == "" {
		if f, ferr := value.FormatFromPath(path); ferr == nil {
			format = string(f)
		}
	}
	return input{data: data, format: format, source: path}, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats splits a comma-separated format list, dropping blanks.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{pipeline.FormatSVG}
	}
	return out
}

// basePath derives the output path without extension. A known output
// extension on output is stripped; an empty output uses the input name.
func basePath(output, source string) string {
	if output == "" {
		if source == "" || source == "-" || source == "sample" {
			return appName
		}
		return strings.TrimSuffix(source, filepath.Ext(source))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
