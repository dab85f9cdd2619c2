package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/moneta/moneta/internal/metrics"
	"github.com/moneta/moneta/moneta"
	"github.com/moneta/moneta/moneta/config"
	"github.com/moneta/moneta/moneta/request"
	"github.com/moneta/moneta/moneta/topic"
)

// Searcher is the part of *moneta.Service the HTTP layer uses.
type Searcher interface {
	Search(ctx context.Context, c request.Coordinates, opts moneta.SearchOptions) (moneta.Result, error)
	Topics() []topic.Topic
	Ping(ctx context.Context) map[string]error
}

type Server struct {
	svc     Searcher
	cfg     config.ServerConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
	router  *gin.Engine
}

func New(svc Searcher, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		svc:     svc,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		router:  gin.New(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(CorrelationMiddleware(logger))
	s.router.Use(MetricsMiddleware(s.metrics))
	s.router.Use(PerformanceMiddleware(cfg.SlowRequestThreshold))

	s.router.GET("/healthcheck", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	base := s.router.Group(strings.TrimSuffix(cfg.ContextPath, "/"))
	base.GET("/moneta/topic/*path", s.handleSearch)
	base.GET("/moneta/topics", s.handleTopics)

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the collectors the server reports to.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Str("context_path", s.cfg.ContextPath).Msg("moneta server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
