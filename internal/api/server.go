// Package api provides the HTTP query interface.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-ocean/reefwatch/internal/assess"
	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/rules"
	"github.com/opensource-ocean/reefwatch/internal/snapshot"
	"github.com/opensource-ocean/reefwatch/internal/worker"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, holder *snapshot.Holder, engine *rules.Engine, processor *assess.Processor, history domain.HistoryProvider, alerts *worker.Worker, version string) *Server {
	handler := NewHandler(repo, cache, bus, holder, engine, processor, history, alerts, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Ranked vessel table and suspicion buckets
	router.Get("/rankings", handler.Rankings)
	router.Get("/score-buckets", handler.ScoreBuckets)

	// Per-vessel views
	router.Route("/vessels/{mmsi}", func(r chi.Router) {
		r.Get("/timeline", handler.Timeline)
		r.Get("/summary", handler.Summary)
		r.Get("/events.csv", handler.ExportEvents)
		r.Get("/track", handler.Track)
	})

	// Alerts from the latest sweep
	router.Get("/alerts", handler.Alerts)

	// Rule management
	router.Get("/rules", handler.ListRules)
	router.Get("/rules/{id}", handler.GetRule)
	router.Post("/rules", handler.CreateRule)
	router.Post("/rules/reload", handler.ReloadRules)

	// Snapshot management
	router.Post("/snapshot/reload", handler.ReloadSnapshot)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
