// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Configuration errors are fatal to a generation cycle (no partial playlist
// is written). Everything else degrades.
var (
	// ErrNoPeriods indicates an empty period list.
	ErrNoPeriods = errors.New("flow: no periods configured")

	// ErrDuplicatePeriodStart indicates two periods sharing a start hour.
	ErrDuplicatePeriodStart = errors.New("flow: duplicate period start hour")

	// ErrInvalidPeriodHour indicates a start hour outside 0-23.
	ErrInvalidPeriodHour = errors.New("flow: period start hour out of range")
)

// Track is a read-only snapshot of a library track, valid for the duration
// of one generation cycle. The catalog owns the underlying data.
type Track struct {
	// ID is the catalog identity (Plex rating key).
	ID string `json:"id"`

	// Artist is the performing artist name.
	Artist string `json:"artist"`

	// Title is the track title.
	Title string `json:"title"`

	// Moods is the set of mood tags (e.g. "Calm", "Energetic").
	Moods []string `json:"moods"`

	// Styles is the set of style tags (e.g. "Jazz", "Indie Rock").
	Styles []string `json:"styles"`

	// Rating is the user rating on a 0-5 scale; 0 means unrated.
	Rating float64 `json:"rating"`

	// LastPlayedAt is the most recent play; nil when never played.
	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`

	// SkipCount is the number of recorded skips.
	SkipCount int `json:"skip_count"`

	// PlayCount is the number of recorded plays.
	PlayCount int `json:"play_count"`

	// Features is the sonic analysis vector; nil when the track has not
	// been analyzed. Only consumable through a DistanceFunc.
	Features []float64 `json:"-"`
}

// Rated reports whether the track carries a user rating.
func (t *Track) Rated() bool {
	return t.Rating > 0
}

// HistoryEntry records one past play. Entries are immutable snapshots
// supplied fresh each cycle by the history collaborator.
type HistoryEntry struct {
	// Track is the played track's snapshot.
	Track Track `json:"track"`

	// PlayedAt is when the play occurred.
	PlayedAt time.Time `json:"played_at"`

	// Rating is the track's rating at the time of play.
	Rating float64 `json:"rating"`
}

// Period is a named slice of the day. Periods are configuration data loaded
// once per cycle.
type Period struct {
	// Name uniquely identifies the period (e.g. "Morning").
	Name string `json:"name" koanf:"name"`

	// StartHour is the hour (0-23) at which the period begins.
	StartHour int `json:"start_hour" koanf:"start_hour"`

	// Moods optionally overrides the built-in mood set for this period.
	Moods []string `json:"moods,omitempty" koanf:"moods"`

	// Styles optionally overrides the built-in style set for this period.
	Styles []string `json:"styles,omitempty" koanf:"styles"`
}

// VibeCriteria is the mood/style tag union currently governing selection.
// It is built once per cycle and never mutated afterwards; tag comparison
// is case-insensitive.
type VibeCriteria struct {
	moods  []string
	styles []string

	moodSet  map[string]struct{}
	styleSet map[string]struct{}
}

// NewVibeCriteria builds criteria from mood and style tags. Duplicates
// collapse case-insensitively; the first-seen casing is kept for display.
func NewVibeCriteria(moods, styles []string) VibeCriteria {
	v := VibeCriteria{
		moodSet:  make(map[string]struct{}, len(moods)),
		styleSet: make(map[string]struct{}, len(styles)),
	}
	for _, tag := range moods {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			continue
		}
		if _, ok := v.moodSet[key]; !ok {
			v.moodSet[key] = struct{}{}
			v.moods = append(v.moods, strings.TrimSpace(tag))
		}
	}
	for _, tag := range styles {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			continue
		}
		if _, ok := v.styleSet[key]; !ok {
			v.styleSet[key] = struct{}{}
			v.styles = append(v.styles, strings.TrimSpace(tag))
		}
	}
	return v
}

// Moods returns the mood tags in insertion order.
func (v VibeCriteria) Moods() []string { return v.moods }

// Styles returns the style tags in insertion order.
func (v VibeCriteria) Styles() []string { return v.styles }

// IsEmpty reports whether the criteria carry no tags at all.
func (v VibeCriteria) IsEmpty() bool {
	return len(v.moods) == 0 && len(v.styles) == 0
}

// Tags returns all tags, moods first, for display.
func (v VibeCriteria) Tags() []string {
	tags := make([]string, 0, len(v.moods)+len(v.styles))
	tags = append(tags, v.moods...)
	tags = append(tags, v.styles...)
	return tags
}

// Matches reports whether the track carries at least one mood or style tag
// present in the criteria.
func (v VibeCriteria) Matches(t *Track) bool {
	for _, tag := range t.Moods {
		if _, ok := v.moodSet[strings.ToLower(tag)]; ok {
			return true
		}
	}
	for _, tag := range t.Styles {
		if _, ok := v.styleSet[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}

// Overlap counts how many of the track's tags appear in the criteria.
func (v VibeCriteria) Overlap(t *Track) int {
	n := 0
	for _, tag := range t.Moods {
		if _, ok := v.moodSet[strings.ToLower(tag)]; ok {
			n++
		}
	}
	for _, tag := range t.Styles {
		if _, ok := v.styleSet[strings.ToLower(tag)]; ok {
			n++
		}
	}
	return n
}

// AnchorSet holds the two disjoint anchor sequences that seed a playlist:
// vibe anchors (discovery) and familiar anchors (history-derived).
type AnchorSet struct {
	// Vibe is the ordered discovery anchor track IDs.
	Vibe []string `json:"vibe"`

	// Familiar is the ordered history-derived anchor track IDs.
	Familiar []string `json:"familiar"`

	// VibeTarget is the requested vibe anchor count.
	VibeTarget int `json:"vibe_target"`

	// FamiliarTarget is the requested familiar anchor count.
	FamiliarTarget int `json:"familiar_target"`
}

// Seeds returns all anchor IDs, vibe anchors first.
func (a AnchorSet) Seeds() []string {
	seeds := make([]string, 0, len(a.Vibe)+len(a.Familiar))
	seeds = append(seeds, a.Vibe...)
	seeds = append(seeds, a.Familiar...)
	return seeds
}

// Size returns the total anchor count.
func (a AnchorSet) Size() int {
	return len(a.Vibe) + len(a.Familiar)
}

// TrackSource identifies how a track entered the playlist.
type TrackSource string

// Track sources, in pipeline order.
const (
	SourceVibeAnchor     TrackSource = "vibe_anchor"
	SourceFamiliarAnchor TrackSource = "familiar_anchor"
	SourceBridge         TrackSource = "bridge"
	SourceExpansion      TrackSource = "expansion"
)

// SourceCounts breaks the final playlist down by track source.
type SourceCounts struct {
	VibeAnchors     int `json:"vibe_anchors"`
	FamiliarAnchors int `json:"familiar_anchors"`
	Bridges         int `json:"bridges"`
	Expanded        int `json:"expanded"`
}

// Catalog is the music library collaborator. Implementations may block on
// network I/O; timeout and retry policy are theirs, not the engine's.
type Catalog interface {
	// TracksByTag returns tracks carrying at least one of the given mood
	// or style tags.
	TracksByTag(ctx context.Context, moods, styles []string) ([]Track, error)

	// TrackHistory returns play history within the lookback window, most
	// recent first.
	TrackHistory(ctx context.Context, lookbackDays int) ([]HistoryEntry, error)
}

// DistanceFunc computes sonic distance between two tracks in [0,1]; lower
// is more similar. A track without a feature vector is infinitely distant
// from everything.
type DistanceFunc func(a, b *Track) float64
