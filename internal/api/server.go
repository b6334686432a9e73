package api

import (
	"context"
	"net/http"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/auth"
	"github.com/hoylabs/hoy-analytics/internal/config"
)

// Server wraps the HTTP server around the routed handler set.
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
}

// NewServer creates the API server. A nil verifier disables authentication,
// which is only useful in tests.
func NewServer(cfg config.ServerConfig, handlers *Handlers, verifier *auth.Verifier) *Server {
	return &Server{
		config:   cfg,
		handler:  SetupRoutes(handlers, verifier),
		handlers: handlers,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
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

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
