package server

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/infrastructure/logging"
	"net/http"
	"time"
)

// Server encapsulates HTTP server configuration
type Server struct {
	httpServer *http.Server
	port       int
}

// NewServer creates a new server instance.
// WriteTimeout es amplio porque POST /api/v1/reprice bloquea hasta procesar todos los listings.
func NewServer(handler http.Handler, port int) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		port: port,
	}
}

// Start bloquea sirviendo HTTP; retorna nil tras un Stop ordenado
func (s *Server) Start() error {
	ctx := context.Background()

	logging.Info(ctx, "HTTP server starting", logging.Fields{
		"port": s.port,
		"endpoints": []string{
			fmt.Sprintf("GET  http://localhost:%d/health", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/listings", s.port),
			fmt.Sprintf("POST http://localhost:%d/api/v1/reprice", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/status", s.port),
			fmt.Sprintf("WS   ws://localhost:%d/api/v1/events", s.port),
			fmt.Sprintf("GET  http://localhost:%d/swagger/index.html", s.port),
		},
	})

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	logging.Info(ctx, "Stopping HTTP server gracefully", logging.Fields{
		"port": s.port,
	})
	return s.httpServer.Shutdown(ctx)
}

// GetPort returns the configured port
func (s *Server) GetPort() int {
	return s.port
}
