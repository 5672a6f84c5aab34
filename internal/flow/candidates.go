// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import "time"

// SelectCandidates filters catalog tracks down to the cycle's candidate
// pool: a track qualifies when it carries at least one vibe tag, then must
// pass every active refinement filter. An empty result is not an error;
// downstream stages under-fill gracefully.
func SelectCandidates(tracks []Track, vibe VibeCriteria, cfg RefineConfig, now time.Time) []Track {
	candidates := make([]Track, 0, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		if !vibe.Matches(t) {
			continue
		}
		if !passesRefinement(t, cfg, now) {
			continue
		}
		candidates = append(candidates, *t)
	}
	return candidates
}

// passesRefinement applies the rating, recency, and skip filters as an AND
// of all active filters.
func passesRefinement(t *Track, cfg RefineConfig, now time.Time) bool {
	// Rating filter: unrated tracks always pass.
	if cfg.MinRating > 0 && t.Rated() && t.Rating < cfg.MinRating {
		return false
	}

	// Recency filter: never-played tracks always pass.
	if cfg.ExcludePlayedDays > 0 && t.LastPlayedAt != nil {
		cutoff := now.AddDate(0, 0, -cfg.ExcludePlayedDays)
		if t.LastPlayedAt.After(cutoff) {
			return false
		}
	}

	// Skip filter.
	if cfg.MaxSkipCount != SkipFilterDisabled && t.SkipCount > cfg.MaxSkipCount {
		return false
	}

	return true
}
