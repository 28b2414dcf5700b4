package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/console/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/console/internal/server"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing/llm"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		filters filterFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live trace feed to local dashboards",
		Long: `Run a live engine and expose its state over HTTP and a websocket stream.
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filters.validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = a.cfg.Server.Addr()
			}
			logger := a.logger.Component("serve")
			notices := server.NewNotices(0, logger.Logger)
			view := &server.View{}

			engine, err := a.newEngine(engineOptions{live: true, notifier: notices, navigator: view})
			if err != nil {
				return err
			}
			defer engine.Close()

			srv := server.New(engine, server.Options{
				Addr:        addr,
				Development: a.cfg.Logging.Development,
				CORS:        middleware.DefaultCORSConfig().WithOrigins(a.cfg.Server.Origins...),
				RateLimit:   middleware.DefaultRateLimitConfig(),
				Notices:     notices,
				View:        view,
				Metrics:     a.metrics,
				LogLevel:    a.logger.Level(),
				Logger:      a.logger.Logger,
			})

			engine.SetQuery(filters.query)
			if err := engine.SetFilter(llm.FilterStatus, filters.status); err != nil {
				return err
			}
			go func() {
				if !engine.Initialize(ctx, filters.route()) {
					logger.Warn("initial page load failed; serving empty state")
				}
			}()

			logger.Info("serving trace feed", zap.String("addr", addr), zap.String("api_url", a.cfg.API.URL))
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default HOST:PORT from the environment)")
	filters.register(cmd.Flags())
	return cmd
}
