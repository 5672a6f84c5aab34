// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine runs the Flow generation pipeline. It holds no mutable state
// between invocations and is a pure function of (now, config, catalog
// snapshot, rng). The caller guarantees single-flight per playlist; the
// engine is not internally reentrant-safe.
type Engine struct {
	catalog  Catalog
	config   *Config
	distance DistanceFunc
	logger   zerolog.Logger
}

// NewEngine creates a Flow engine. The config is validated up front so
// misconfiguration fails at startup, not mid-cycle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(catalog Catalog, cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("flow: catalog must not be nil")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flow config: %w", err)
	}
	return &Engine{
		catalog:  catalog,
		config:   cfg,
		distance: CosineDistance,
		logger:   logger.With().Str("component", "flow").Logger(),
	}, nil
}

// SetDistanceFunc replaces the sonic distance function. Intended for
// catalogs that resolve similarity remotely, and for tests.
func (e *Engine) SetDistanceFunc(d DistanceFunc) {
	if d != nil {
		e.distance = d
	}
}

// GenerateFlow runs one synchronous generation cycle. All randomness comes
// from rng; the wall clock is never read beyond the now parameter.
func (e *Engine) GenerateFlow(ctx context.Context, now time.Time, rng *rand.Rand) (*Result, error) {
	cycleID := uuid.NewString()
	logger := e.logger.With().Str("cycle_id", cycleID).Logger()

	// Stage 1: period resolution. Configuration problems are fatal.
	period, err := ResolvePeriod(e.config.Periods, now)
	if err != nil {
		return nil, fmt.Errorf("resolve period: %w", err)
	}
	logger.Debug().Str("period", period.Name).Int("hour", now.Hour()).Msg("resolved active period")

	// Stage 2: mine history for the personal vibe. Missing history is
	// non-fatal; the base vibe stands alone.
	lookback := e.config.Learner.LookbackDays
	if e.config.Anchors.HistoryLookbackDays > lookback {
		lookback = e.config.Anchors.HistoryLookbackDays
	}
	history, err := e.catalog.TrackHistory(ctx, lookback)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	learned := LearnVibe(history, now, e.config.Learner)
	if learned.IsEmpty() {
		logger.Debug().Msg("no learned vibe; using base vibe only")
	}

	// Stage 3: synthesize the effective criteria.
	vibe := SynthesizeVibe(period, learned)
	if vibe.IsEmpty() {
		logger.Warn().Str("period", period.Name).Msg("vibe criteria empty; flow will be empty")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: candidate selection.
	tracks, err := e.catalog.TracksByTag(ctx, vibe.Moods(), vibe.Styles())
	if err != nil {
		return nil, fmt.Errorf("fetch tracks by tag: %w", err)
	}
	candidates := SelectCandidates(tracks, vibe, e.config.Refine, now)
	if len(candidates) == 0 {
		logger.Warn().Int("matched", len(tracks)).Msg("no candidates after refinement")
	}

	// Stage 5: anchors.
	anchors := SelectAnchors(candidates, history, vibe, e.config.Anchors, e.config.Refine, now, rng)
	if len(anchors.Vibe) < anchors.VibeTarget || len(anchors.Familiar) < anchors.FamiliarTarget {
		logger.Warn().
			Int("vibe", len(anchors.Vibe)).Int("vibe_target", anchors.VibeTarget).
			Int("familiar", len(anchors.Familiar)).Int("familiar_target", anchors.FamiliarTarget).
			Msg("anchor targets under-filled")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 6: sonic expansion and bridging over the candidate pool.
	byID := indexTracks(candidates, history)
	selected := make(map[string]struct{}, anchors.Size())
	sources := make(map[string]TrackSource, anchors.Size())
	for _, id := range anchors.Vibe {
		selected[id] = struct{}{}
		sources[id] = SourceVibeAnchor
	}
	for _, id := range anchors.Familiar {
		selected[id] = struct{}{}
		sources[id] = SourceFamiliarAnchor
	}

	expanded := expandAnchors(anchors, candidates, byID, e.distance, e.config.Sonic, e.config.TargetSize, selected)
	for _, id := range expanded {
		sources[id] = SourceExpansion
	}

	var bridges []string
	if e.config.Sonic.Bridging {
		bridges = bridgeAnchors(anchors, candidates, byID, e.distance, e.config.Sonic, selected)
		for _, id := range bridges {
			sources[id] = SourceBridge
		}
	}

	merged := make([]string, 0, len(selected))
	merged = append(merged, anchors.Seeds()...)
	merged = append(merged, bridges...)
	merged = append(merged, expanded...)

	// Stage 7: greedy nearest-neighbor ordering.
	start := ""
	if len(anchors.Vibe) > 0 {
		start = anchors.Vibe[0]
	} else if len(anchors.Familiar) > 0 {
		start = anchors.Familiar[0]
	} else if len(merged) > 0 {
		start = merged[0]
	}
	ordered := sonicSort(merged, byID, start, e.distance, e.config.Sonic.SortSimilarityLimit, e.config.Sonic.SortMaxDistance)

	// Stage 8: assemble.
	final := assembleResult(ordered, e.config.TargetSize)
	result := &Result{
		CycleID:     cycleID,
		GeneratedAt: now,
		Period:      period.Name,
		VibeTags:    vibe.Tags(),
		TrackIDs:    final,
		TargetSize:  e.config.TargetSize,
	}
	for _, id := range final {
		switch sources[id] {
		case SourceVibeAnchor:
			result.Counts.VibeAnchors++
		case SourceFamiliarAnchor:
			result.Counts.FamiliarAnchors++
		case SourceBridge:
			result.Counts.Bridges++
		case SourceExpansion:
			result.Counts.Expanded++
		}
	}

	if len(final) < e.config.TargetSize {
		logger.Warn().Int("size", len(final)).Int("target", e.config.TargetSize).Msg("flow under target size")
	}
	logger.Info().
		Str("period", period.Name).
		Strs("vibe", result.VibeTags).
		Int("tracks", len(final)).
		Int("anchors", anchors.Size()).
		Int("bridges", len(bridges)).
		Int("expanded", len(expanded)).
		Msg("flow generated")

	return result, nil
}

// indexTracks builds an ID index over candidates, backfilled with history
// snapshots so familiar anchors outside the candidate pool still resolve
// for distance lookups.
func indexTracks(candidates []Track, history []HistoryEntry) map[string]*Track {
	byID := make(map[string]*Track, len(candidates)+len(history))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}
	for i := range history {
		t := &history[i].Track
		if _, ok := byID[t.ID]; !ok {
			byID[t.ID] = t
		}
	}
	return byID
}
