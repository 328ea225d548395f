package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/internal/server"
	"github.com/abid8042/chessnetviz/pkg/metrics"
)

// serveCommand creates the serve command: the HTTP API over datasets.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		dataDir   string
		watch     bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve datasets over HTTP",
		Long: `Start the HTTP API. Datasets are uploaded with POST /api/v1/datasets or
loaded from --data-dir at startup; each move scope is served filtered and
sorted with its color domains resolved. Prometheus metrics are exposed on
/metrics.`,
		Example: `  chessnetviz serve --addr :8080 --data-dir games/ --watch`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			fs := cmd.Flags()
			setIfChanged(fs.Changed("addr"), &cfg.Addr, addr)
			setIfChanged(fs.Changed("data-dir"), &cfg.DataDir, dataDir)
			setIfChanged(fs.Changed("watch"), &cfg.Watch, watch)

			sc := server.Config{
				Addr:           cfg.Addr,
				DataDir:        cfg.DataDir,
				Watch:          cfg.Watch,
				MaxUploadBytes: cfg.MaxUploadBytes,
				Defaults:       c.Config.PipelineOptions(),
				Logger:         c.Logger,
			}
			if !noMetrics {
				reg := metrics.NewRegistry()
				reg.Install()
				sc.Metrics = reg.Handler()
			}
			return c.runServe(cmd.Context(), sc)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory of *.json datasets to load at startup")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload datasets in --data-dir when they change")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config) error {
	s := server.New(cfg)
	if err := s.LoadDir(ctx); err != nil {
		return err
	}
	printSuccess("Serving on http://%s", cfg.Addr)
	if cfg.DataDir != "" {
		printDetail("datasets from %s", cfg.DataDir)
	}
	return s.Run(ctx)
}
