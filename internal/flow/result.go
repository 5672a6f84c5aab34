// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"fmt"
	"strings"
	"time"
)

// Result is the final ordered, deduplicated playlist produced by one
// generation cycle. The engine hands it off and retains nothing.
type Result struct {
	// CycleID uniquely identifies the generation cycle.
	CycleID string `json:"cycle_id"`

	// GeneratedAt is the `now` the cycle was invoked with.
	GeneratedAt time.Time `json:"generated_at"`

	// Period is the active period's name.
	Period string `json:"period"`

	// VibeTags are the tags that governed selection, moods first.
	VibeTags []string `json:"vibe_tags"`

	// TrackIDs is the ordered playlist, length <= TargetSize, no
	// duplicates.
	TrackIDs []string `json:"track_ids"`

	// Counts breaks the playlist down by source.
	Counts SourceCounts `json:"counts"`

	// TargetSize is the configured playlist size for this cycle.
	TargetSize int `json:"target_size"`
}

// Summary renders a human-readable description for the playlist metadata,
// e.g. written into the Plex playlist summary by the sync collaborator.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s flow", r.Period)
	if len(r.VibeTags) > 0 {
		fmt.Fprintf(&b, " — vibe: %s", strings.Join(r.VibeTags, ", "))
	}
	fmt.Fprintf(&b, ". %d tracks: %d discovery, %d familiar",
		len(r.TrackIDs), r.Counts.VibeAnchors, r.Counts.FamiliarAnchors)
	if r.Counts.Bridges > 0 {
		fmt.Fprintf(&b, ", %d bridges", r.Counts.Bridges)
	}
	if r.Counts.Expanded > 0 {
		fmt.Fprintf(&b, ", %d sonic expansions", r.Counts.Expanded)
	}
	b.WriteString(". Generated by Harmoniq.")
	return b.String()
}

// assembleResult deduplicates the ordered IDs (first occurrence wins) and
// truncates to the target size. Under-filled lists are left as-is; the
// caller logs the shortfall.
func assembleResult(ordered []string, targetSize int) []string {
	seen := make(map[string]struct{}, len(ordered))
	final := make([]string, 0, len(ordered))
	for _, id := range ordered {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		final = append(final, id)
		if len(final) == targetSize {
			break
		}
	}
	return final
}
