// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"fmt"
)

// SkipFilterDisabled disables the skip-count refinement filter when used as
// RefineConfig.MaxSkipCount.
const SkipFilterDisabled = -1

// Config contains all tunables for one Flow playlist.
type Config struct {
	// PlaylistName is the playlist title used by the sync collaborator.
	PlaylistName string `json:"playlist_name" koanf:"playlist_name"`

	// TargetSize is the desired playlist length. The result may be shorter
	// when the library lacks matching tracks; it is never longer.
	TargetSize int `json:"target_size" koanf:"target_size"`

	// Periods is the configured day segmentation. Must be non-empty with
	// distinct start hours.
	Periods []Period `json:"periods" koanf:"periods"`

	// Learner tunes history mining.
	Learner LearnerConfig `json:"learner" koanf:"learner"`

	// Refine tunes the post-match candidate filters.
	Refine RefineConfig `json:"refine" koanf:"refine"`

	// Anchors tunes anchor selection.
	Anchors AnchorConfig `json:"anchors" koanf:"anchors"`

	// Sonic tunes similarity expansion, bridging, and ordering.
	Sonic SonicConfig `json:"sonic" koanf:"sonic"`
}

// LearnerConfig tunes how recent history is mined for dominant tags.
type LearnerConfig struct {
	// LookbackDays bounds the history window.
	LookbackDays int `json:"lookback_days" koanf:"lookback_days"`

	// TopMoods is the number of learned mood tags to retain.
	TopMoods int `json:"top_moods" koanf:"top_moods"`

	// TopStyles is the number of learned style tags to retain.
	TopStyles int `json:"top_styles" koanf:"top_styles"`

	// MinOccurrences is the minimum tally for a tag to survive.
	MinOccurrences int `json:"min_occurrences" koanf:"min_occurrences"`

	// CountOncePerTrack tallies each distinct track once instead of once
	// per play. Default false: repeated plays reinforce a tag.
	CountOncePerTrack bool `json:"count_once_per_track" koanf:"count_once_per_track"`
}

// RefineConfig tunes the refinement filters applied after vibe matching.
type RefineConfig struct {
	// MinRating keeps only tracks rated at least this (unrated tracks
	// always pass). 0 disables the filter.
	MinRating float64 `json:"min_rating" koanf:"min_rating"`

	// ExcludePlayedDays drops tracks played within this many days.
	// 0 disables the filter; never-played tracks always pass.
	ExcludePlayedDays int `json:"exclude_played_days" koanf:"exclude_played_days"`

	// MaxSkipCount drops tracks skipped more than this many times.
	// SkipFilterDisabled (-1) disables the filter.
	MaxSkipCount int `json:"max_skip_count" koanf:"max_skip_count"`
}

// AnchorConfig tunes discovery and familiar anchor selection.
type AnchorConfig struct {
	// VibeCount is the target number of discovery anchors.
	VibeCount int `json:"vibe_count" koanf:"vibe_count"`

	// HistoryCount is the target number of familiar anchors.
	HistoryCount int `json:"history_count" koanf:"history_count"`

	// HistoryMinPlays is the minimum play count for a familiar anchor.
	HistoryMinPlays int `json:"history_min_plays" koanf:"history_min_plays"`

	// HistoryMinRating is the minimum rating for a familiar anchor.
	HistoryMinRating float64 `json:"history_min_rating" koanf:"history_min_rating"`

	// HistoryLookbackDays bounds the familiar anchor history window.
	HistoryLookbackDays int `json:"history_lookback_days" koanf:"history_lookback_days"`
}

// SonicConfig tunes similarity-graph expansion, bridging, and ordering.
type SonicConfig struct {
	// SeedTracks is how many anchors seed expansion, vibe anchors first.
	SeedTracks int `json:"seed_tracks" koanf:"seed_tracks"`

	// SimilarPerSeed caps expansions admitted per seed.
	SimilarPerSeed int `json:"similar_per_seed" koanf:"similar_per_seed"`

	// MaxDistance is the admission threshold for expansion and bridging.
	MaxDistance float64 `json:"max_distance" koanf:"max_distance"`

	// FinalMixRatio is the fraction of the final playlist reserved for
	// expansion versus anchors.
	FinalMixRatio float64 `json:"final_mix_ratio" koanf:"final_mix_ratio"`

	// Bridging inserts at most one intermediate track between consecutive
	// anchors when enabled.
	Bridging bool `json:"bridging" koanf:"bridging"`

	// SortSimilarityLimit restricts each greedy sort step to the nearest
	// N unvisited tracks.
	SortSimilarityLimit int `json:"sort_similarity_limit" koanf:"sort_similarity_limit"`

	// SortMaxDistance is the preferred transition threshold while sorting;
	// the sorter falls back to the globally closest track beyond it.
	SortMaxDistance float64 `json:"sort_max_distance" koanf:"sort_max_distance"`
}

// DefaultConfig returns production defaults mirroring the canonical four
// period day.
func DefaultConfig() *Config {
	return &Config{
		PlaylistName: "Daily Flow",
		TargetSize:   40,
		Periods: []Period{
			{Name: "Morning", StartHour: 5},
			{Name: "Afternoon", StartHour: 12},
			{Name: "Evening", StartHour: 18},
			{Name: "Night", StartHour: 22},
		},
		Learner: LearnerConfig{
			LookbackDays:   14,
			TopMoods:       3,
			TopStyles:      3,
			MinOccurrences: 2,
		},
		Refine: RefineConfig{
			MinRating:         0,
			ExcludePlayedDays: 3,
			MaxSkipCount:      SkipFilterDisabled,
		},
		Anchors: AnchorConfig{
			VibeCount:           8,
			HistoryCount:        5,
			HistoryMinPlays:     3,
			HistoryMinRating:    3,
			HistoryLookbackDays: 90,
		},
		Sonic: SonicConfig{
			SeedTracks:          6,
			SimilarPerSeed:      5,
			MaxDistance:         0.35,
			FinalMixRatio:       0.6,
			Bridging:            false,
			SortSimilarityLimit: 10,
			SortMaxDistance:     0.45,
		},
	}
}

// Validate checks the configuration. Period problems are fatal per the
// error contract; threshold problems are plain validation errors.
func (c *Config) Validate() error {
	if c.PlaylistName == "" {
		return fmt.Errorf("playlist_name must not be empty")
	}
	if c.TargetSize <= 0 {
		return fmt.Errorf("target_size must be positive, got %d", c.TargetSize)
	}
	if err := validatePeriods(c.Periods); err != nil {
		return err
	}
	if c.Learner.LookbackDays < 0 {
		return fmt.Errorf("learner.lookback_days must not be negative")
	}
	if c.Learner.MinOccurrences < 1 {
		return fmt.Errorf("learner.min_occurrences must be at least 1")
	}
	if c.Refine.MinRating < 0 || c.Refine.MinRating > 5 {
		return fmt.Errorf("refine.min_rating must be within 0-5, got %g", c.Refine.MinRating)
	}
	if c.Refine.MaxSkipCount < SkipFilterDisabled {
		return fmt.Errorf("refine.max_skip_count must be %d (disabled) or non-negative", SkipFilterDisabled)
	}
	if c.Anchors.VibeCount < 0 || c.Anchors.HistoryCount < 0 {
		return fmt.Errorf("anchor counts must not be negative")
	}
	if c.Sonic.MaxDistance < 0 || c.Sonic.MaxDistance > 1 {
		return fmt.Errorf("sonic.max_distance must be within 0-1, got %g", c.Sonic.MaxDistance)
	}
	if c.Sonic.FinalMixRatio < 0 || c.Sonic.FinalMixRatio > 1 {
		return fmt.Errorf("sonic.final_mix_ratio must be within 0-1, got %g", c.Sonic.FinalMixRatio)
	}
	if c.Sonic.SortSimilarityLimit < 1 {
		return fmt.Errorf("sonic.sort_similarity_limit must be at least 1")
	}
	return nil
}

// validatePeriods enforces the period invariants shared by Validate and
// ResolvePeriod.
func validatePeriods(periods []Period) error {
	if len(periods) == 0 {
		return ErrNoPeriods
	}
	seen := make(map[int]string, len(periods))
	for _, p := range periods {
		if p.StartHour < 0 || p.StartHour > 23 {
			return fmt.Errorf("%w: %q starts at %d", ErrInvalidPeriodHour, p.Name, p.StartHour)
		}
		if prev, ok := seen[p.StartHour]; ok {
			return fmt.Errorf("%w: %q and %q both start at %d", ErrDuplicatePeriodStart, prev, p.Name, p.StartHour)
		}
		seen[p.StartHour] = p.Name
	}
	return nil
}
