package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/freema/agentlink/internal/clients"
	"github.com/freema/agentlink/internal/config"
	"github.com/freema/agentlink/internal/engine"
	"github.com/freema/agentlink/internal/server/handlers"
	"github.com/freema/agentlink/internal/server/middleware"
)

// Server is the HTTP server exposing the execution engine.
type Server struct {
	httpServer *http.Server
	health     *handlers.HealthHandler
}

// New creates and configures the HTTP server with all routes and middleware.
func New(cfg *config.Config, registry *clients.Registry, eng *engine.Engine, version string) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimw.Recoverer)

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(registry, version)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	invokeHandler := handlers.NewInvokeHandler(eng)
	clientsHandler := handlers.NewClientsHandler(registry)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.AuthToken != "" {
			r.Use(middleware.BearerAuth(cfg.Server.AuthToken))
		}

		r.Post("/invoke", invokeHandler.Invoke)
		r.Get("/clients", clientsHandler.List)
		r.Get("/clients/{name}", clientsHandler.Get)
		r.Post("/reload", clientsHandler.Reload)
	})

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		// Invocations can legitimately take minutes; no write timeout so
		// the CLI's own timeout_seconds stays the only budget.
		Handler:     otelhttp.NewHandler(r, "agentlink.http"),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		health:     healthHandler,
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}
