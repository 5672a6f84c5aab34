// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package scheduler drives refresh cycles on a fixed interval. It runs as
// a supervised service and exposes a manual trigger for the HTTP API.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/harmoniq-app/harmoniq/internal/logging"
	"github.com/harmoniq-app/harmoniq/internal/metrics"
)

// Runner executes one refresh cycle.
type Runner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler runs the Runner on an interval. Cycles execute one at a time;
// a tick or trigger that lands while a cycle is still running is skipped
// rather than queued behind it.
type Scheduler struct {
	runner       Runner
	interval     time.Duration
	runOnStartup bool
	logger       zerolog.Logger

	triggerCh chan struct{}
	inFlight  atomic.Bool
	wg        sync.WaitGroup

	mu      sync.Mutex
	nextRun time.Time
}

// New creates a scheduler. interval must be positive; runOnStartup runs
// one cycle immediately when Serve starts.
func New(runner Runner, interval time.Duration, runOnStartup bool) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		runOnStartup: runOnStartup,
		logger:       logging.With().Str("component", "scheduler").Logger(),
		triggerCh:    make(chan struct{}, 1),
	}
}

// Trigger queues a manual refresh. Returns false when a trigger is
// already pending.
func (s *Scheduler) Trigger() bool {
	select {
	case s.triggerCh <- struct{}{}:
		return true
	default:
		return false
	}
}

// NextRun returns when the next interval-driven cycle is due.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	s.nextRun = t
	s.mu.Unlock()
}

// Serve implements suture.Service. It blocks until the context is
// canceled, then waits for any in-flight cycle to finish.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Bool("run_on_startup", s.runOnStartup).
		Msg("scheduler starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.setNextRun(time.Now().Add(s.interval))

	if s.runOnStartup {
		s.execute(ctx, "startup")
	}

	for {
		select {
		case <-ticker.C:
			s.setNextRun(time.Now().Add(s.interval))
			s.execute(ctx, "interval")
		case <-s.triggerCh:
			s.execute(ctx, "manual")
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *Scheduler) String() string {
	return "flow-scheduler"
}

// execute starts one cycle unless one is already in flight.
func (s *Scheduler) execute(ctx context.Context, reason string) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn().Str("reason", reason).Msg("previous cycle still running; skipping")
		metrics.SchedulerRunsTotal.WithLabelValues("skipped").Inc()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)

		start := time.Now()
		s.logger.Info().Str("reason", reason).Msg("refresh cycle starting")

		err := s.runner.RunCycle(ctx)
		metrics.SchedulerLastRunTimestamp.SetToCurrentTime()
		switch {
		case err == nil:
			metrics.SchedulerRunsTotal.WithLabelValues("success").Inc()
			s.logger.Info().Str("reason", reason).Dur("duration", time.Since(start)).
				Msg("refresh cycle complete")
		case errors.Is(err, context.Canceled):
			s.logger.Info().Str("reason", reason).Msg("refresh cycle canceled during shutdown")
		default:
			metrics.SchedulerRunsTotal.WithLabelValues("error").Inc()
			s.logger.Error().Err(err).Str("reason", reason).Msg("refresh cycle failed")
		}
	}()
}
