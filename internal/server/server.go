package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/console/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/console/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
	"github.com/GriffinCanCode/AgentOS/console/internal/ws"
)

// Options configures the dashboard server.
type Options struct {
	Addr            string
	Development     bool
	ShutdownTimeout time.Duration

	CORS      middleware.CORSConfig
	RateLimit middleware.RateLimitConfig

	// Notices and View should be the ones handed to the engine so the
	// server can report what the engine surfaced.
	Notices *Notices
	View    *View

	Metrics *monitoring.Metrics
	// LogLevel, when set, is mounted at /log/level (GET reads, PUT changes).
	LogLevel http.Handler
	Logger   *zap.Logger
}

// Server exposes one engine over HTTP.
type Server[T tracing.Record, S any] struct {
	engine  *tracing.Engine[T, S]
	router  *gin.Engine
	addr    string
	notices *Notices
	view    *View
	metrics *monitoring.Metrics
	level   http.Handler
	logger  *zap.Logger
	started time.Time

	shutdownTimeout time.Duration
}

// New creates a server for engine and registers its routes.
func New[T tracing.Record, S any](engine *tracing.Engine[T, S], opts Options) *Server[T, S] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("server")
	if opts.Notices == nil {
		opts.Notices = NewNotices(0, logger)
	}
	if opts.View == nil {
		opts.View = &View{}
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.CORS.AllowMethods == nil {
		opts.CORS = middleware.DefaultCORSConfig()
	}

	if !opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	if opts.Metrics != nil {
		router.Use(monitoring.Middleware(opts.Metrics))
	}
	router.Use(middleware.CORS(opts.CORS))
	if opts.RateLimit.RequestsPerSecond > 0 {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", opts.RateLimit.RequestsPerSecond),
			zap.Int("burst", opts.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(opts.RateLimit))
	}

	s := &Server[T, S]{
		engine:          engine,
		router:          router,
		addr:            opts.Addr,
		notices:         opts.Notices,
		view:            opts.View,
		metrics:         opts.Metrics,
		level:           opts.LogLevel,
		logger:          logger,
		started:         time.Now(),
		shutdownTimeout: opts.ShutdownTimeout,
	}
	s.routes()
	return s
}

func (s *Server[T, S]) routes() {
	r := s.router

	r.GET("/", s.root)
	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/snapshot", s.snapshot)
	api.GET("/rows", s.rows)
	api.GET("/statistics", s.statistics)
	api.GET("/filters", s.filters)
	api.POST("/filter", s.applyFilter)
	api.POST("/filter/reset", s.resetFilter)
	api.POST("/page", s.setPage)
	api.GET("/traces/:id", s.detail)
	api.DELETE("/detail", s.closeDetail)
	api.GET("/view", s.currentView)
	api.POST("/view/:id", s.viewDetail)
	api.DELETE("/view", s.backToList)
	api.POST("/refresh", s.refresh)
	api.POST("/connect", s.connect)
	api.POST("/disconnect", s.disconnect)
	api.GET("/notices", s.listNotices)

	r.GET("/stream", ws.NewHandler[T](s.engine, s.logger).HandleConnection)

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	if s.level != nil {
		r.GET("/log/level", gin.WrapH(s.level))
		r.PUT("/log/level", gin.WrapH(s.level))
	}
}

// Handler returns the router.
func (s *Server[T, S]) Handler() http.Handler {
	return middleware.Compress(s.router, "/stream", "/metrics")
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server[T, S]) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
