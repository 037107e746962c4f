// Package inspect is the read-only HTTP surface an operator uses to check
// on the detector: health, the current opportunity snapshot, and a
// Prometheus scrape endpoint (§4.5). The http.Server construction (explicit
// timeouts, bounded graceful Shutdown) is adapted from the teacher's
// dashboard api.Server; the WebSocket hub and position views it also had
// are dropped, since this system has no streaming consumer surface and no
// positions to show.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"arbmon/internal/obsv"
	"arbmon/internal/types"
)

// SnapshotProvider is the read-only dependency the server needs from the
// arbitrage engine.
type SnapshotProvider interface {
	Snapshot() []types.Opportunity
}

// Server wraps an *http.Server exposing /healthz, /arbs, and /metrics.
type Server struct {
	provider SnapshotProvider
	server   *http.Server
	logger   *slog.Logger
}

// NewServer builds the server bound to addr (HTTP_ADDR). Timeouts match
// §5: 10s read/write, 60s idle.
func NewServer(addr string, provider SnapshotProvider, logger *slog.Logger) *Server {
	s := &Server{
		provider: provider,
		logger:   logger.With("component", "inspect-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/arbs", s.handleArbs)
	mux.Handle("/metrics", obsv.Handler())

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until the server is stopped or fails.
func (s *Server) Start() error {
	s.logger.Info("inspection server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("inspect server: %w", err)
	}
	return nil
}

// Stop gracefully drains in-flight requests, bounded at 10s (§5).
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleHealthz never gates on venue status (§4.5): if the process is up,
// it answers ok.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleArbs takes a value-copy of the snapshot so JSON encoding never
// holds the engine's lock (§4.5).
func (s *Server) handleArbs(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Snapshot()
	if snap == nil {
		snap = []types.Opportunity{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("failed to encode snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
