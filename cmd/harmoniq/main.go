// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package main is the Harmoniq entry point.
//
// Harmoniq generates a time-aware "flow" playlist from your Plex music
// library: it learns the vibe of each period of the day from your listening
// history, anchors the playlist with discovery and familiar tracks, expands
// it with sonically similar neighbors, and orders the result into a smooth
// listening arc. Optional Last.fm integration adds global chart and
// recommendation playlists matched against the library.
//
// Startup order:
//
//  1. Configuration: environment variables over config.yaml over defaults
//     (Koanf v2)
//  2. Plex client: token auth, retry, circuit breaker
//  3. Flow engine: period resolver, vibe learner, anchors, sonic expansion
//  4. Last.fm charts (optional): ENABLE_LASTFM_CHARTS / ENABLE_LASTFM_RECS
//  5. Scheduler: one refresh cycle per RUN_INTERVAL_MINUTES
//  6. HTTP server: /healthz, /metrics, /api/v1/status, /api/v1/refresh
//
// The scheduler and HTTP server run under a suture supervision tree and
// shut down gracefully on SIGINT and SIGTERM.
//
// Example usage:
//
//	export PLEX_URL=http://localhost:32400
//	export PLEX_TOKEN=your-plex-token
//	export TIMEZONE=Europe/Berlin
//	export RUN_INTERVAL_MINUTES=60
//	./harmoniq
//
// With Last.fm chart playlists:
//
//	export ENABLE_LASTFM_CHARTS=true
//	export LASTFM_API_KEY=your-api-key
//	./harmoniq
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/harmoniq-app/harmoniq/internal/charts"
	"github.com/harmoniq-app/harmoniq/internal/config"
	"github.com/harmoniq-app/harmoniq/internal/flow"
	"github.com/harmoniq-app/harmoniq/internal/logging"
	"github.com/harmoniq-app/harmoniq/internal/plex"
	"github.com/harmoniq-app/harmoniq/internal/refresh"
	"github.com/harmoniq-app/harmoniq/internal/scheduler"
	"github.com/harmoniq-app/harmoniq/internal/server"
	"github.com/harmoniq-app/harmoniq/internal/supervisor"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("plex_url", cfg.Plex.URL).
		Str("playlist", cfg.Flow.PlaylistName).
		Int("interval_minutes", cfg.Scheduler.IntervalMinutes).
		Str("timezone", cfg.Scheduler.Timezone).
		Msg("Starting Harmoniq")

	flowCfg, err := cfg.FlowConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid flow configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid timezone")
	}

	plexClient := plex.NewClient(cfg.Plex)
	if err := plexClient.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to reach Plex (will retry on first cycle)")
	} else {
		logging.Info().Msg("Connected to Plex successfully")
	}

	engine, err := flow.NewEngine(plexClient, flowCfg, logging.With().Str("component", "flow").Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create flow engine")
	}

	// Last.fm playlists are optional; a nil source disables them entirely.
	var chartSource refresh.ChartSource
	if cfg.Lastfm.ChartsEnabled || cfg.Lastfm.RecsEnabled {
		chartSource = charts.NewBuilder(plexClient, charts.NewClient(cfg.Lastfm), cfg.Lastfm)
		logging.Info().
			Bool("charts", cfg.Lastfm.ChartsEnabled).
			Bool("recommendations", cfg.Lastfm.RecsEnabled).
			Msg("Last.fm playlists enabled")
	}

	runner := refresh.NewRunner(engine, plexClient, chartSource, flowCfg.PlaylistName, loc)
	sched := scheduler.New(runner, cfg.Interval(), cfg.Scheduler.RunOnStartup)
	srv := server.New(cfg.Server, runner, sched)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultConfig())
	tree.AddEngineService(sched)
	tree.AddAPIService(srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Harmoniq stopped gracefully")
}
