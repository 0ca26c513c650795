package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/config"
	"github.com/matzehuels/treescope/pkg/observability/metrics"
	"github.com/matzehuels/treescope/pkg/server"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout and search HTTP API",
		Long: `Run the treescope HTTP API.

POST a document to /api/layout to get its positioned graph and a graph id,
then resolve queries against it with /api/graphs/{id}/resolve or render it
with /api/graphs/{id}/export. Prometheus metrics are served on /metrics.

With --watch the file is laid out at startup and again whenever it changes;
its latest graph is always available as /api/graphs/current.`,
		Example: `  treescope serve --addr :8080
  treescope serve --watch config.yaml --cache redis --cache-url redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			metrics.New(nil).Install()

			runner := c.newRunner(ctx, cfg, noCache)
			defer runner.Close()

			srv := server.New(server.Config{
				Addr:      cfg.Server.Addr,
				Runner:    runner,
				Logger:    c.Logger,
				Base:      cfg.PipelineOptions(),
				MaxGraphs: cfg.Server.MaxGraphs,
				Watch:     cfg.Server.Watch,
			})

			printInfo("Serving on %s", StyleLink.Render("http://"+cfg.Server.Addr))
			if cfg.Server.Watch != "" {
				printDetail("watching %s as /api/graphs/%s", cfg.Server.Watch, server.CurrentGraphID)
			}
			if err := srv.Serve(ctx); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "listen address (default "+config.DefaultAddr+")")
	cmd.Flags().String("watch", "", "document to serve as the current graph, reloaded on change")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd)
	addCacheFlags(cmd)

	return cmd
}
