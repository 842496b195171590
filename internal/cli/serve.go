package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/engine"
	"github.com/matzehuels/phosphograph/pkg/observability/prom"
	"github.com/matzehuels/phosphograph/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	network string
	watch   bool
	noCache bool
}

// serveCommand runs the HTTP API over a single engine.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attributed graph over HTTP",
		Long: `Serve loads a network from the catalog and exposes the engine over HTTP:
graph rendering, node and edge lookups, overlay and focus changes, search,
and Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg := c.settings()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = opts.addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = opts.watch
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			prom.New(reg).Install()

			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(engine.New(logger), server.Options{
				Config:   cfg,
				Runner:   runner,
				Gatherer: reg,
				Logger:   logger,
			})

			name := opts.network
			if name == "" {
				if def, ok := cfg.DefaultNetwork(); ok {
					name = def.Name
				}
			}
			if name != "" {
				snap, err := srv.LoadNetwork(ctx, name)
				if err != nil {
					return err
				}
				logger.Info("loaded network", "name", name, "nodes", snap.Graph.NodeCount(), "edges", snap.Graph.EdgeCount())
			} else {
				logger.Warn("no network configured; upload one with PUT /v1/dataset")
			}

			p := newPrinter(cmd.OutOrStdout())
			p.info("Serving %s", StyleHighlight.Render(appName))
			p.keyValue("addr", cfg.Server.Addr)
			p.keyValue("network", orDash(name))
			p.keyValue("watch", fmt.Sprint(cfg.Server.Watch))
			p.keyValue("cache", cacheLocation(cfg.Cache))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVarP(&opts.network, "network", "n", "", "network to load at startup (default: first in catalog)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the dataset when its file changes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}
