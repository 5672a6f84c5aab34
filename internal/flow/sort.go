// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"math"
	"sort"
)

// sonicSort orders the merged track set for smooth transitions using a
// greedy nearest-neighbor walk starting from startID (which must be in
// ids). At each step only the nearest `limit` unvisited tracks are
// considered; the closest one within maxDistance wins. When none
// qualifies, the globally closest remaining track is taken regardless of
// the threshold, so every track is eventually placed. Equal distances
// break toward the lexically smaller ID.
//
// The output is a permutation of ids; it is not distance-optimal.
func sonicSort(ids []string, byID map[string]*Track, startID string, d DistanceFunc, limit int, maxDistance float64) []string {
	if len(ids) <= 1 {
		out := make([]string, len(ids))
		copy(out, ids)
		return out
	}
	if limit < 1 {
		limit = 1
	}

	remaining := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remaining[id] = struct{}{}
	}
	if _, ok := remaining[startID]; !ok {
		startID = ids[0]
	}

	ordered := make([]string, 0, len(ids))
	ordered = append(ordered, startID)
	delete(remaining, startID)
	current := startID

	for len(remaining) > 0 {
		next := nextTrack(current, remaining, byID, d, limit, maxDistance)
		ordered = append(ordered, next)
		delete(remaining, next)
		current = next
	}
	return ordered
}

// nextTrack picks the walk's next step among the remaining tracks.
func nextTrack(currentID string, remaining map[string]struct{}, byID map[string]*Track, d DistanceFunc, limit int, maxDistance float64) string {
	current := byID[currentID]

	ranked := make([]neighbor, 0, len(remaining))
	for id := range remaining {
		dist := math.Inf(1)
		if t, ok := byID[id]; ok && current != nil {
			dist = d(current, t)
		}
		ranked = append(ranked, neighbor{id: id, dist: dist})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].id < ranked[j].id
	})

	window := ranked
	if len(window) > limit {
		window = window[:limit]
	}
	for _, n := range window {
		if n.dist <= maxDistance {
			return n.id
		}
	}
	// No qualifier within the window: fall back to the globally closest
	// remaining track so the walk always terminates.
	return ranked[0].id
}
