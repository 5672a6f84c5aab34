// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package metrics provides Prometheus instrumentation for:
//   - Flow generation cycles (count, duration, playlist size)
//   - Plex API requests and circuit breaker state
//   - Last.fm API requests
//   - Scheduler runs
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Flow Engine Metrics

	FlowCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmoniq_flow_cycles_total",
			Help: "Total number of Flow generation cycles by outcome",
		},
		[]string{"outcome"}, // "success", "error"
	)

	FlowCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harmoniq_flow_cycle_duration_seconds",
			Help:    "Duration of Flow generation cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlowPlaylistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "harmoniq_flow_playlist_size",
			Help: "Track count of the most recently generated Flow playlist",
		},
	)

	FlowTracksBySource = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "harmoniq_flow_tracks_by_source",
			Help: "Track count of the most recent Flow playlist by selection source",
		},
		[]string{"source"}, // "vibe_anchor", "familiar_anchor", "bridge", "expansion"
	)

	// Plex API Metrics

	PlexRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmoniq_plex_requests_total",
			Help: "Total number of Plex API requests by endpoint and result",
		},
		[]string{"endpoint", "result"}, // result: "success", "failure", "rejected"
	)

	PlexRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harmoniq_plex_request_duration_seconds",
			Help:    "Duration of Plex API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "harmoniq_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmoniq_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Last.fm API Metrics

	LastfmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmoniq_lastfm_requests_total",
			Help: "Total number of Last.fm API requests by method and result",
		},
		[]string{"method", "result"},
	)

	// Scheduler Metrics

	SchedulerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmoniq_scheduler_runs_total",
			Help: "Total number of scheduled refresh runs by outcome",
		},
		[]string{"outcome"}, // "success", "error", "skipped"
	)

	SchedulerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "harmoniq_scheduler_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed refresh run",
		},
	)
)

// RecordFlowResult updates the per-cycle playlist gauges.
func RecordFlowResult(size, vibeAnchors, familiarAnchors, bridges, expanded int) {
	FlowPlaylistSize.Set(float64(size))
	FlowTracksBySource.WithLabelValues("vibe_anchor").Set(float64(vibeAnchors))
	FlowTracksBySource.WithLabelValues("familiar_anchor").Set(float64(familiarAnchors))
	FlowTracksBySource.WithLabelValues("bridge").Set(float64(bridges))
	FlowTracksBySource.WithLabelValues("expansion").Set(float64(expanded))
}
