// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"math/rand"
	"sort"
	"time"
)

// familiarCandidate is a history-derived track qualifying as a familiar
// anchor, with its most recent play for ranking.
type familiarCandidate struct {
	track      Track
	lastPlayed time.Time
}

// SelectAnchors chooses the playlist's seed tracks.
//
// Vibe anchors are a random sample (without replacement) of candidates that
// do NOT appear in the qualifying history set, biasing toward discovery.
// Familiar anchors come from history entries within the lookback window
// whose tracks clear the play-count and rating gates; tracks overlapping
// the vibe are preferred. Familiar anchors bypass the rating and skip
// refinement filters but still respect the recency filter.
//
// All randomness is drawn from rng; a fixed seed reproduces the AnchorSet.
// Under-filled targets are not an error.
func SelectAnchors(candidates []Track, history []HistoryEntry, vibe VibeCriteria, cfg AnchorConfig, refine RefineConfig, now time.Time, rng *rand.Rand) AnchorSet {
	anchors := AnchorSet{
		VibeTarget:     cfg.VibeCount,
		FamiliarTarget: cfg.HistoryCount,
	}

	familiar := qualifyingHistory(history, cfg, refine, now)
	familiarIDs := make(map[string]struct{}, len(familiar))
	for i := range familiar {
		familiarIDs[familiar[i].track.ID] = struct{}{}
	}

	anchors.Vibe = sampleVibeAnchors(candidates, familiarIDs, cfg.VibeCount, rng)

	chosen := make(map[string]struct{}, len(anchors.Vibe))
	for _, id := range anchors.Vibe {
		chosen[id] = struct{}{}
	}
	anchors.Familiar = pickFamiliarAnchors(familiar, vibe, cfg.HistoryCount, chosen, rng)

	return anchors
}

// qualifyingHistory collapses history entries within the lookback window to
// distinct tracks clearing the familiar anchor gates.
func qualifyingHistory(history []HistoryEntry, cfg AnchorConfig, refine RefineConfig, now time.Time) []familiarCandidate {
	cutoff := now.AddDate(0, 0, -cfg.HistoryLookbackDays)
	byID := make(map[string]*familiarCandidate)
	order := make([]string, 0, len(history))

	for i := range history {
		entry := &history[i]
		if entry.PlayedAt.Before(cutoff) || entry.PlayedAt.After(now) {
			continue
		}
		t := &entry.Track
		if t.PlayCount < cfg.HistoryMinPlays {
			continue
		}
		if t.Rating < cfg.HistoryMinRating {
			continue
		}
		// Recency still applies to familiar anchors.
		if refine.ExcludePlayedDays > 0 && t.LastPlayedAt != nil {
			recent := now.AddDate(0, 0, -refine.ExcludePlayedDays)
			if t.LastPlayedAt.After(recent) {
				continue
			}
		}
		fc, ok := byID[t.ID]
		if !ok {
			byID[t.ID] = &familiarCandidate{track: *t, lastPlayed: entry.PlayedAt}
			order = append(order, t.ID)
			continue
		}
		if entry.PlayedAt.After(fc.lastPlayed) {
			fc.lastPlayed = entry.PlayedAt
		}
	}

	result := make([]familiarCandidate, 0, len(order))
	for _, id := range order {
		result = append(result, *byID[id])
	}
	return result
}

// sampleVibeAnchors draws up to target discovery anchors from candidates
// outside the qualifying history set.
func sampleVibeAnchors(candidates []Track, familiarIDs map[string]struct{}, target int, rng *rand.Rand) []string {
	if target <= 0 {
		return nil
	}

	pool := make([]string, 0, len(candidates))
	for i := range candidates {
		if _, ok := familiarIDs[candidates[i].ID]; ok {
			continue
		}
		pool = append(pool, candidates[i].ID)
	}
	// Sort before shuffling so the draw depends only on the rng seed, not
	// on catalog iteration order.
	sort.Strings(pool)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	if len(pool) > target {
		pool = pool[:target]
	}
	return pool
}

// pickFamiliarAnchors samples up to target distinct tracks, preferring vibe
// overlap. A shuffle followed by a stable sort on overlap keeps the draw
// random within each preference tier but deterministic for a fixed seed.
func pickFamiliarAnchors(familiar []familiarCandidate, vibe VibeCriteria, target int, exclude map[string]struct{}, rng *rand.Rand) []string {
	if target <= 0 || len(familiar) == 0 {
		return nil
	}

	pool := make([]familiarCandidate, len(familiar))
	copy(pool, familiar)
	sort.Slice(pool, func(i, j int) bool { return pool[i].track.ID < pool[j].track.ID })
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	sort.SliceStable(pool, func(i, j int) bool {
		return vibe.Overlap(&pool[i].track) > vibe.Overlap(&pool[j].track)
	})

	ids := make([]string, 0, target)
	for i := range pool {
		id := pool[i].track.ID
		if _, ok := exclude[id]; ok {
			continue
		}
		ids = append(ids, id)
		exclude[id] = struct{}{}
		if len(ids) == target {
			break
		}
	}
	return ids
}
