// Package ops exposes the operational surface over HTTP: route health
// reporting and reset, gas quotes, escalation review, and prometheus metrics.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/gas"
	"github.com/vietddude/sentinel/internal/infra/storage"
	"github.com/vietddude/sentinel/internal/routes"
)

// Server provides HTTP endpoints for inspection and control.
type Server struct {
	tracker *routes.Tracker
	oracle  *gas.Oracle
	journal storage.EscalationJournal
	log     *slog.Logger
	server  *http.Server
	started time.Time
}

// NewServer wires the handlers.
func NewServer(tracker *routes.Tracker, oracle *gas.Oracle, journal storage.EscalationJournal, port int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		tracker: tracker,
		oracle:  oracle,
		journal: journal,
		log:     log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		started: time.Now(),
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/routes", s.handleRoutes)
	mux.HandleFunc("/routes/reset", s.handleRouteReset)
	mux.HandleFunc("/gas", s.handleGas)
	mux.HandleFunc("/escalations", s.handleEscalations)
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

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Report())
}

// handleRouteReset resets one route. Resetting an unknown route is a normal
// outcome reported as not_found, not an error status.
func (s *Server) handleRouteReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}

	id, err := domain.ParseRouteID(r.URL.Query().Get("route"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	switch err := s.tracker.Reset(id); {
	case errors.Is(err, domain.ErrRouteNotFound):
		writeJSON(w, http.StatusOK, map[string]string{"status": "not_found", "route": id.String()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		s.log.Info("route reset via ops", "route", id.String())
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "route": id.String()})
	}
}

func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = "ethereum"
	}
	writeJSON(w, http.StatusOK, s.oracle.Price(r.Context(), key))
}

func (s *Server) handleEscalations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
