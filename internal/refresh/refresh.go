// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package refresh orchestrates one full refresh cycle: generate the flow
// playlist, sync it to Plex, then rebuild the optional Last.fm playlists.
// The runner keeps the last cycle's outcome for the status endpoint.
package refresh

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harmoniq-app/harmoniq/internal/flow"
	"github.com/harmoniq-app/harmoniq/internal/logging"
	"github.com/harmoniq-app/harmoniq/internal/metrics"
)

// Engine generates the flow playlist for a point in time.
type Engine interface {
	GenerateFlow(ctx context.Context, now time.Time, rng *rand.Rand) (*flow.Result, error)
}

// Library syncs playlists to the media server.
type Library interface {
	UpsertPlaylist(ctx context.Context, title, summary string, trackIDs []string) error
}

// ChartSource rebuilds external chart playlists. Optional.
type ChartSource interface {
	Refresh(ctx context.Context) error
}

// Status is a snapshot of the most recent refresh cycle.
type Status struct {
	LastRunAt  time.Time    `json:"last_run_at"`
	LastError  string       `json:"last_error,omitempty"`
	LastResult *flow.Result `json:"last_result,omitempty"`
	Cycles     int          `json:"cycles"`
}

// Runner executes refresh cycles. Safe for concurrent Status reads while
// a cycle is running.
type Runner struct {
	engine       Engine
	library      Library
	charts       ChartSource
	playlistName string
	loc          *time.Location
	logger       zerolog.Logger

	// newRNG seeds the per-cycle shuffle source. Swapped in tests.
	newRNG func() *rand.Rand

	mu     sync.RWMutex
	status Status
}

// NewRunner creates a refresh runner. charts may be nil when Last.fm is
// not configured; loc defaults to UTC.
func NewRunner(engine Engine, library Library, charts ChartSource, playlistName string, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		engine:       engine,
		library:      library,
		charts:       charts,
		playlistName: playlistName,
		loc:          loc,
		logger:       logging.With().Str("component", "refresh").Logger(),
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// RunCycle generates the flow playlist and syncs everything to Plex. An
// empty generation keeps the previous playlist in place. Chart playlist
// failures are logged but do not fail the cycle.
func (r *Runner) RunCycle(ctx context.Context) error {
	start := time.Now()
	now := start.In(r.loc)

	result, err := r.engine.GenerateFlow(ctx, now, r.newRNG())
	if err != nil {
		metrics.FlowCyclesTotal.WithLabelValues("error").Inc()
		r.recordFailure(now, err)
		return fmt.Errorf("generate flow: %w", err)
	}
	metrics.FlowCyclesTotal.WithLabelValues("success").Inc()
	metrics.FlowCycleDuration.Observe(time.Since(start).Seconds())
	metrics.RecordFlowResult(len(result.TrackIDs),
		result.Counts.VibeAnchors, result.Counts.FamiliarAnchors,
		result.Counts.Bridges, result.Counts.Expanded)

	if len(result.TrackIDs) == 0 {
		r.logger.Warn().Str("cycle_id", result.CycleID).Str("period", result.Period).
			Msg("flow cycle produced no tracks; keeping previous playlist")
		r.recordSuccess(now, result)
		return nil
	}

	if err := r.library.UpsertPlaylist(ctx, r.playlistName, result.Summary(), result.TrackIDs); err != nil {
		r.recordFailure(now, err)
		return fmt.Errorf("sync playlist %q: %w", r.playlistName, err)
	}
	r.recordSuccess(now, result)
	r.logger.Info().
		Str("cycle_id", result.CycleID).
		Str("period", result.Period).
		Int("tracks", len(result.TrackIDs)).
		Dur("duration", time.Since(start)).
		Msg("flow playlist refreshed")

	if r.charts != nil {
		if err := r.charts.Refresh(ctx); err != nil {
			r.logger.Error().Err(err).Msg("chart playlists refresh failed")
		}
	}
	return nil
}

// Status returns a snapshot of the last cycle's outcome.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Runner) recordSuccess(at time.Time, result *flow.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastRunAt = at
	r.status.LastError = ""
	r.status.LastResult = result
	r.status.Cycles++
}

func (r *Runner) recordFailure(at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastRunAt = at
	r.status.LastError = err.Error()
	r.status.Cycles++
}
