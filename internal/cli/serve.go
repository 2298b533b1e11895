package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphreveal/internal/config"
	"github.com/matzehuels/graphreveal/pkg/observability"
	"github.com/matzehuels/graphreveal/pkg/observability/prom"
	"github.com/matzehuels/graphreveal/pkg/server"
	"github.com/matzehuels/graphreveal/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		sessionID string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve <dataset>",
		Short: "Serve a dataset over HTTP and WebSocket",
		Long: `Start an HTTP server for one dataset.

Clients send pointer events (hover, modifier changes, double-click, drag)
and receive the resulting frames on /ws. Prometheus metrics are exposed on
/metrics. Session routes are available unless the store backend is "none".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.config().Server.Addr
			}
			return c.runServe(cmd.Context(), args[0], addr, sessionID, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to start from (an id prefix is enough)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable dataset caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path, addr, sessionID string, noCache bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := prom.New(reg)
	observability.SetEngineHooks(hooks)
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ds, err := c.loadDataset(ctx, path, noCache)
	if err != nil {
		return err
	}
	eng, _, err := c.newEngine(ctx, ds.Dataset)
	if err != nil {
		return err
	}
	defer eng.Close()

	vs, err := c.openSession(ctx, eng, ds, sessionID)
	if err != nil {
		return err
	}
	vs.Close()

	var store session.Store
	if c.config().Store.Backend != config.StoreNone {
		store, err = c.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	srv := server.New(eng, server.Options{
		Logger:        c.Logger,
		Gatherer:      reg,
		Store:         store,
		DatasetPath:   absPath(ds.Path),
		DatasetHash:   ds.Fingerprint,
		SettleRefresh: c.config().Layout.Settle + 50*time.Millisecond,
	})

	printSuccess("Serving %s", ds.Path)
	printStats(len(ds.Nodes), len(ds.Edges), ds.Cached)
	printKeyValue("URL", StyleLink.Render("http://"+addr))
	printKeyValue("Metrics", StyleLink.Render("http://"+addr+"/metrics"))
	printDetail("Press Ctrl+C to stop")

	return srv.Run(ctx, addr)
}
