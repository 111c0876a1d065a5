package api

import (
	"context"
	"net/http"
	"time"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/api/handlers"
	"example.com/promo/services/events/internal/api/middleware"
	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/repositories"
	"example.com/promo/services/events/internal/services"
	"example.com/promo/services/events/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
}

// Services bundles everything the HTTP layer exposes
type Services struct {
	Events     *services.EventService
	Dashboard  *services.DashboardService
	Comparison *services.ComparisonService
	Channels   *repositories.ChannelRepository
	Metrics    *metrics.Metrics
	Tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, svcs Services) *Server {
	server := &Server{
		config: cfg,
	}

	server.router = server.setupRouter(svcs)
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter(svcs Services) *gin.Engine {
	if s.config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.NewRelicMiddleware(svcs.Tracer.Application()))

	eventHandler := handlers.NewEventHandler(svcs.Events, svcs.Dashboard, svcs.Comparison, svcs.Channels, svcs.Tracer)
	eventHandler.RegisterRoutes(router)

	metricsHandler := handlers.NewMetricsHandler(svcs.Metrics, svcs.Tracer)
	router.GET("/metrics", metricsHandler.HandleGetMetrics)
	router.GET("/health", metricsHandler.HandleGetHealthCheck)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
