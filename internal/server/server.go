// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package server exposes the HTTP surface: health, Prometheus metrics,
// refresh status, and a manual refresh trigger.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/harmoniq-app/harmoniq/internal/config"
	"github.com/harmoniq-app/harmoniq/internal/logging"
	"github.com/harmoniq-app/harmoniq/internal/refresh"
)

// StatusProvider reports the outcome of the most recent refresh cycle.
type StatusProvider interface {
	Status() refresh.Status
}

// Trigger queues manual refresh cycles and reports the next scheduled one.
type Trigger interface {
	Trigger() bool
	NextRun() time.Time
}

// Server is the supervised HTTP server.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// New creates the HTTP server for the given config.
func New(cfg config.ServerConfig, status StatusProvider, sched Trigger) *Server {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           NewRouter(status, sched),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
		},
		shutdownTimeout: timeout,
		logger:          logging.With().Str("component", "server").Logger(),
	}
}

// NewRouter builds the route tree. Split out so tests can drive it with
// httptest without binding a port.
func NewRouter(status StatusProvider, sched Trigger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(120, time.Minute))
		r.Get("/status", handleStatus(status, sched))
		r.Post("/refresh", handleRefresh(sched))
	})

	return r
}

// Serve implements suture.Service: ListenAndServe until the context is
// canceled, then shut down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *Server) String() string {
	return "http-server"
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusResponse is the /api/v1/status payload: the last cycle's outcome
// plus the next scheduled run.
type statusResponse struct {
	refresh.Status
	NextRunAt time.Time `json:"next_run_at"`
}

func handleStatus(status StatusProvider, sched Trigger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{
			Status:    status.Status(),
			NextRunAt: sched.NextRun(),
		})
	}
}

func handleRefresh(sched Trigger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !sched.Trigger() {
			writeJSON(w, http.StatusConflict, map[string]string{"status": "refresh already pending"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh queued"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}
