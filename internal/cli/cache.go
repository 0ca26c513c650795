package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/cache"
	"github.com/matzehuels/treescope/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout and image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			cc, err := cache.Open(ctx, cfg.Cache)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				printInfo("Nothing to clear for the %s backend", backendName(cfg))
				return nil
			}
			count, err := clearer.Clear(ctx)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Location: %s", cacheLocation(cfg))
			return nil
		},
	}
	addCacheFlags(cmd)
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, cacheLocation(cfg))
			return nil
		},
	}
	addCacheFlags(cmd)
	return cmd
}

func backendName(cfg *config.Config) string {
	if b := strings.ToLower(cfg.Cache.Backend); b != "" {
		return b
	}
	return cache.BackendFile
}

// cacheLocation is the directory of a file cache or the address of a remote
// one.
func cacheLocation(cfg *config.Config) string {
	switch backendName(cfg) {
	case cache.BackendFile:
		if cfg.Cache.Dir != "" {
			return cfg.Cache.Dir
		}
		dir, err := cache.DefaultDir()
		if err != nil {
			return "(unknown: " + err.Error() + ")"
		}
		return dir
	case cache.BackendNone:
		return "(disabled)"
	}
	return cfg.Cache.URL
}
