// Package api exposes the optional status HTTP interface for a run.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sitefetch/sitefetch/internal/progress/sinks"
)

// Server serves live run counters and Prometheus metrics while a fetch
// run is in progress. It is only started when a listen address is
// configured.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer constructs a Server reading counters from store.
func NewServer(addr string, store *sinks.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Get("/progress", s.progressHandler(store))
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("status server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("status server stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the server, waiting up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) progressHandler(store *sinks.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, store.Snapshot())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
