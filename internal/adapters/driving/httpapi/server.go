// Package httpapi exposes search and document management as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
)

// ErrMissingService is returned when a required port is nil.
var ErrMissingService = errors.New("httpapi: search and document services are required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Search   driving.SearchService
	Document driving.DocumentService
	Index    driving.IndexService
}

// Server serves the HTTP API.
type Server struct {
	ports     *Ports
	rateLimit float64
	handler   http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit allows rps requests per second per client. Zero disables.
func WithRateLimit(rps float64) Option {
	return func(s *Server) {
		s.rateLimit = rps
	}
}

// NewServer builds the router and middleware chain.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if ports == nil || ports.Search == nil || ports.Document == nil {
		return nil, ErrMissingService
	}
	s := &Server{ports: ports}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("POST /documents", s.handleCreateDocument)
	mux.HandleFunc("PUT /documents/{id}", s.handleUpdateDocument)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	if s.rateLimit > 0 {
		h = newClientLimiter(s.rateLimit).middleware(h)
	}
	s.handler = requestID(accessLog(h))
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("http: listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http: %w", err)
}
