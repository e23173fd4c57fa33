// Package server exposes a liveness endpoint for the long-running scheduled
// mode, reporting when the last pairing round ran and how it went.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// RunStatus records the outcome of the most recent pairing round. Safe for
// concurrent use: the scheduler goroutine writes, HTTP handlers read.
type RunStatus struct {
	mu      sync.Mutex
	runs    int
	lastRun time.Time
	lastErr string
}

// NewRunStatus creates an empty RunStatus.
func NewRunStatus() *RunStatus {
	return &RunStatus{}
}

// Record notes the outcome of one round.
func (s *RunStatus) Record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	s.lastRun = time.Now()
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Runs    int    `json:"runs"`
	LastRun string `json:"last_run,omitempty"`
	LastErr string `json:"last_error,omitempty"`
}

func (s *RunStatus) snapshot() statusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := statusResponse{Status: "ok", Runs: s.runs, LastErr: s.lastErr}
	if !s.lastRun.IsZero() {
		resp.LastRun = s.lastRun.UTC().Format(time.RFC3339)
	}
	return resp
}

// Server is the health HTTP server.
type Server struct {
	httpServer *http.Server
}

// New creates a Server serving GET /healthz from status.
func New(addr string, status *RunStatus) *Server {
	router := chi.NewRouter()
	router.Use(chimw.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status.snapshot()); err != nil {
			log.Error().Err(err).Msg("encoding health response")
		}
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called. A closed-server error is not
// reported as a failure.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
