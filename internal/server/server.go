// Package server exposes the scan pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cosmoswatch/upgradewatch/internal/core/domain"
	"github.com/cosmoswatch/upgradewatch/internal/scan"
)

// Scanner runs a batch scan for the requested networks.
type Scanner interface {
	ScanAll(ctx context.Context, req scan.Request) []domain.NetworkResult
}

// Server serves the fetch endpoint plus health and metrics.
type Server struct {
	scanner Scanner
	server  *http.Server
	log     *slog.Logger
}

// NewServer creates the HTTP server.
func NewServer(scanner Scanner, port int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		scanner: scanner,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		log: logger,
	}

	mux.HandleFunc("/fetch", s.handleFetch)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("fetch handler panicked", "error", rec)
			s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("%v", rec))
		}
	}()

	var req scan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Mainnets) == 0 && len(req.Testnets) == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	results := s.scanner.ScanAll(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		s.log.Error("error writing fetch response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
