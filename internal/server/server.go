// Package server exposes the headless HTTP + WebSocket API over the status
// facade.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arbradar/arbradar/internal/server/handler"
	"github.com/arbradar/arbradar/internal/server/middleware"
	"github.com/arbradar/arbradar/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health        *handler.HealthHandler
	Status        *handler.StatusHandler
	Markets       *handler.MarketHandler
	Opportunities *handler.OpportunityHandler
	Admin         *handler.AdminHandler
}

// Server is the HTTP + WebSocket API server for the arbitrage scanner.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (auth, logging, CORS) applied.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required by clients polling liveness).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Read side.
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	mux.HandleFunc("GET /api/stats", handlers.Status.GetStats)
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/opportunities", handlers.Opportunities.ListOpportunities)
	mux.HandleFunc("GET /api/quality", handlers.Admin.GetQuality)

	// Operational triggers.
	mux.HandleFunc("POST /api/sync", handlers.Admin.TriggerSync)
	mux.HandleFunc("POST /api/maintenance", handlers.Admin.RunMaintenance)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
