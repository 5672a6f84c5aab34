// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"math"
	"sort"
)

// neighbor pairs a candidate track with its distance to a reference track.
type neighbor struct {
	id   string
	dist float64
}

// nearestNeighbors ranks the candidate tracks by distance to ref, nearest
// first, ties broken by lexically smaller ID. Tracks in the selected set
// are skipped; infinite distances are dropped.
func nearestNeighbors(ref *Track, candidates []Track, d DistanceFunc, selected map[string]struct{}) []neighbor {
	neighbors := make([]neighbor, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ID == ref.ID {
			continue
		}
		if _, ok := selected[c.ID]; ok {
			continue
		}
		dist := d(ref, c)
		if math.IsInf(dist, 1) {
			continue
		}
		neighbors = append(neighbors, neighbor{id: c.ID, dist: dist})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].dist != neighbors[j].dist {
			return neighbors[i].dist < neighbors[j].dist
		}
		return neighbors[i].id < neighbors[j].id
	})
	return neighbors
}

// expandAnchors grows the selection along the similarity graph. Each of up
// to cfg.SeedTracks seeds (vibe anchors first, then familiar) contributes
// up to cfg.SimilarPerSeed candidates within cfg.MaxDistance, bounded by an
// overall budget of FinalMixRatio * targetSize expansion slots. The
// selected set is updated in place; returns the admitted IDs in order.
func expandAnchors(anchors AnchorSet, candidates []Track, byID map[string]*Track, d DistanceFunc, cfg SonicConfig, targetSize int, selected map[string]struct{}) []string {
	budget := int(math.Round(cfg.FinalMixRatio * float64(targetSize)))
	if budget <= 0 || cfg.SeedTracks <= 0 || cfg.SimilarPerSeed <= 0 {
		return nil
	}

	seeds := anchors.Seeds()
	if len(seeds) > cfg.SeedTracks {
		seeds = seeds[:cfg.SeedTracks]
	}

	var expanded []string
	for _, seedID := range seeds {
		if len(expanded) >= budget {
			break
		}
		seed, ok := byID[seedID]
		if !ok {
			continue
		}
		admitted := 0
		for _, n := range nearestNeighbors(seed, candidates, d, selected) {
			if n.dist > cfg.MaxDistance {
				break // sorted ascending; nothing closer remains
			}
			expanded = append(expanded, n.id)
			selected[n.id] = struct{}{}
			admitted++
			if admitted == cfg.SimilarPerSeed || len(expanded) >= budget {
				break
			}
		}
	}
	return expanded
}

// bridgeAnchors attempts to place at most one intermediate track between
// each consecutive anchor pair in traversal order (vibe anchors first). A
// bridge must sit within cfg.MaxDistance of both endpoints; among
// qualifiers the one minimizing the worse of its two endpoint distances
// wins, ties broken by ID. Pairs with no qualifier stay adjacent — not an
// error. The selected set is updated in place; returns the bridge IDs in
// placement order.
func bridgeAnchors(anchors AnchorSet, candidates []Track, byID map[string]*Track, d DistanceFunc, cfg SonicConfig, selected map[string]struct{}) []string {
	order := anchors.Seeds()
	if len(order) < 2 {
		return nil
	}

	var bridges []string
	for i := 0; i < len(order)-1; i++ {
		a, okA := byID[order[i]]
		b, okB := byID[order[i+1]]
		if !okA || !okB {
			continue
		}
		if id, ok := findBridge(a, b, candidates, d, cfg.MaxDistance, selected); ok {
			bridges = append(bridges, id)
			selected[id] = struct{}{}
		}
	}
	return bridges
}

// findBridge picks the unselected candidate closest to both endpoints.
func findBridge(a, b *Track, candidates []Track, d DistanceFunc, maxDistance float64, selected map[string]struct{}) (string, bool) {
	bestID := ""
	bestDist := math.Inf(1)
	for i := range candidates {
		c := &candidates[i]
		if c.ID == a.ID || c.ID == b.ID {
			continue
		}
		if _, ok := selected[c.ID]; ok {
			continue
		}
		da := d(a, c)
		db := d(c, b)
		if da > maxDistance || db > maxDistance {
			continue
		}
		worst := math.Max(da, db)
		if worst < bestDist || (worst == bestDist && c.ID < bestID) {
			bestID = c.ID
			bestDist = worst
		}
	}
	return bestID, bestID != ""
}
