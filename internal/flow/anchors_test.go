// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func assertAnchorInvariants(t *testing.T, anchors AnchorSet) {
	t.Helper()
	seen := make(map[string]string)
	for _, id := range anchors.Vibe {
		if prev, ok := seen[id]; ok {
			t.Errorf("id %q appears twice (%s and vibe)", id, prev)
		}
		seen[id] = "vibe"
	}
	for _, id := range anchors.Familiar {
		if prev, ok := seen[id]; ok {
			t.Errorf("id %q appears twice (%s and familiar)", id, prev)
		}
		seen[id] = "familiar"
	}
}

func TestSelectAnchors(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }
	lastPlayed := func(d int) *time.Time {
		at := daysAgo(d)
		return &at
	}
	vibe := NewVibeCriteria([]string{"Calm"}, []string{"Jazz"})

	loved := Track{ID: "h1", Moods: []string{"Calm"}, Rating: 5, PlayCount: 10, LastPlayedAt: lastPlayed(10)}
	offVibe := Track{ID: "h2", Moods: []string{"Angry"}, Rating: 4, PlayCount: 8, LastPlayedAt: lastPlayed(12)}
	candidates := []Track{
		{ID: "c1", Moods: []string{"Calm"}},
		{ID: "c2", Moods: []string{"Calm"}},
		{ID: "c3", Styles: []string{"Jazz"}},
		loved, // also in qualifying history: must not be a vibe anchor
	}
	history := []HistoryEntry{
		{Track: loved, PlayedAt: daysAgo(10), Rating: 5},
		{Track: offVibe, PlayedAt: daysAgo(12), Rating: 4},
	}
	cfg := AnchorConfig{
		VibeCount:           2,
		HistoryCount:        2,
		HistoryMinPlays:     3,
		HistoryMinRating:    3,
		HistoryLookbackDays: 90,
	}

	anchors := SelectAnchors(candidates, history, vibe, cfg, RefineConfig{MaxSkipCount: SkipFilterDisabled}, now, rand.New(rand.NewSource(7)))
	assertAnchorInvariants(t, anchors)

	if len(anchors.Vibe) != 2 {
		t.Fatalf("len(Vibe) = %d, want 2", len(anchors.Vibe))
	}
	for _, id := range anchors.Vibe {
		if id == "h1" || id == "h2" {
			t.Errorf("history track %q chosen as discovery anchor", id)
		}
	}
	if len(anchors.Familiar) != 2 {
		t.Fatalf("len(Familiar) = %d, want 2", len(anchors.Familiar))
	}
	// The vibe-overlapping history track is preferred first.
	if anchors.Familiar[0] != "h1" {
		t.Errorf("Familiar[0] = %q, want vibe-overlapping %q", anchors.Familiar[0], "h1")
	}
}

func TestSelectAnchorsEmptyCandidates(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	cfg := AnchorConfig{VibeCount: 5, HistoryCount: 5, HistoryLookbackDays: 30}

	anchors := SelectAnchors(nil, nil, NewVibeCriteria(nil, nil), cfg, RefineConfig{}, now, rand.New(rand.NewSource(1)))
	if len(anchors.Vibe) != 0 || len(anchors.Familiar) != 0 {
		t.Errorf("expected empty AnchorSet, got %+v", anchors)
	}
	if anchors.VibeTarget != 5 || anchors.FamiliarTarget != 5 {
		t.Errorf("targets not preserved: %+v", anchors)
	}
}

func TestSelectAnchorsFamiliarGates(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }
	lastPlayed := func(d int) *time.Time {
		at := daysAgo(d)
		return &at
	}
	cfg := AnchorConfig{
		HistoryCount:        5,
		HistoryMinPlays:     3,
		HistoryMinRating:    3,
		HistoryLookbackDays: 30,
	}

	tests := []struct {
		name    string
		entry   HistoryEntry
		refine  RefineConfig
		wantIDs []string
	}{
		{
			name:    "qualifying track selected",
			entry:   HistoryEntry{Track: Track{ID: "a", Rating: 4, PlayCount: 5, LastPlayedAt: lastPlayed(10)}, PlayedAt: daysAgo(10)},
			wantIDs: []string{"a"},
		},
		{
			name:    "below min plays rejected",
			entry:   HistoryEntry{Track: Track{ID: "a", Rating: 4, PlayCount: 2, LastPlayedAt: lastPlayed(10)}, PlayedAt: daysAgo(10)},
			wantIDs: nil,
		},
		{
			name:    "below min rating rejected",
			entry:   HistoryEntry{Track: Track{ID: "a", Rating: 2, PlayCount: 5, LastPlayedAt: lastPlayed(10)}, PlayedAt: daysAgo(10)},
			wantIDs: nil,
		},
		{
			name:    "outside lookback rejected",
			entry:   HistoryEntry{Track: Track{ID: "a", Rating: 4, PlayCount: 5, LastPlayedAt: lastPlayed(40)}, PlayedAt: daysAgo(40)},
			wantIDs: nil,
		},
		{
			name:    "recency filter still applies to familiar anchors",
			entry:   HistoryEntry{Track: Track{ID: "a", Rating: 4, PlayCount: 5, LastPlayedAt: lastPlayed(1)}, PlayedAt: daysAgo(1)},
			refine:  RefineConfig{ExcludePlayedDays: 3},
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchors := SelectAnchors(nil, []HistoryEntry{tt.entry}, NewVibeCriteria(nil, nil), cfg, tt.refine, now, rand.New(rand.NewSource(1)))
			if !reflect.DeepEqual(anchors.Familiar, tt.wantIDs) {
				t.Errorf("Familiar = %v, want %v", anchors.Familiar, tt.wantIDs)
			}
		})
	}
}

func TestSelectAnchorsDeterministicForFixedSeed(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	vibe := NewVibeCriteria([]string{"Calm"}, nil)
	candidates := make([]Track, 0, 20)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		candidates = append(candidates, Track{ID: id, Moods: []string{"Calm"}})
	}
	cfg := AnchorConfig{VibeCount: 4, HistoryLookbackDays: 30}

	first := SelectAnchors(candidates, nil, vibe, cfg, RefineConfig{}, now, rand.New(rand.NewSource(99)))
	second := SelectAnchors(candidates, nil, vibe, cfg, RefineConfig{}, now, rand.New(rand.NewSource(99)))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced different AnchorSets:\n%+v\n%+v", first, second)
	}

	third := SelectAnchors(candidates, nil, vibe, cfg, RefineConfig{}, now, rand.New(rand.NewSource(100)))
	if reflect.DeepEqual(first.Vibe, third.Vibe) {
		t.Logf("different seeds drew the same sample (possible but unlikely): %v", first.Vibe)
	}
}
