// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"sort"
	"strings"
	"time"
)

// LearnedVibe is the (possibly empty) tag augmentation mined from history.
type LearnedVibe struct {
	Moods  []string `json:"moods"`
	Styles []string `json:"styles"`
}

// IsEmpty reports whether nothing was learned.
func (l LearnedVibe) IsEmpty() bool {
	return len(l.Moods) == 0 && len(l.Styles) == 0
}

// tagTally accumulates occurrence counts for one tag, case-insensitively.
type tagTally struct {
	display  string
	count    int
	lastSeen time.Time
}

// LearnVibe mines recent history for the listener's dominant mood and style
// tags. Each play contributes one count per tag its track carries (or each
// distinct track once, when CountOncePerTrack is set). Tags below
// MinOccurrences are dropped; survivors are ranked by count, ties broken by
// most recent occurrence. Empty history yields an empty augmentation, never
// an error.
func LearnVibe(history []HistoryEntry, now time.Time, cfg LearnerConfig) LearnedVibe {
	if len(history) == 0 || (cfg.TopMoods <= 0 && cfg.TopStyles <= 0) {
		return LearnedVibe{}
	}

	cutoff := now.AddDate(0, 0, -cfg.LookbackDays)
	moods := make(map[string]*tagTally)
	styles := make(map[string]*tagTally)
	counted := make(map[string]struct{})

	for i := range history {
		entry := &history[i]
		if entry.PlayedAt.Before(cutoff) || entry.PlayedAt.After(now) {
			continue
		}
		if cfg.CountOncePerTrack {
			if _, ok := counted[entry.Track.ID]; ok {
				continue
			}
			counted[entry.Track.ID] = struct{}{}
		}
		for _, tag := range entry.Track.Moods {
			tallyTag(moods, tag, entry.PlayedAt)
		}
		for _, tag := range entry.Track.Styles {
			tallyTag(styles, tag, entry.PlayedAt)
		}
	}

	return LearnedVibe{
		Moods:  topTags(moods, cfg.MinOccurrences, cfg.TopMoods),
		Styles: topTags(styles, cfg.MinOccurrences, cfg.TopStyles),
	}
}

func tallyTag(tallies map[string]*tagTally, tag string, playedAt time.Time) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	key := strings.ToLower(tag)
	t, ok := tallies[key]
	if !ok {
		t = &tagTally{display: tag}
		tallies[key] = t
	}
	t.count++
	if playedAt.After(t.lastSeen) {
		t.lastSeen = playedAt
	}
}

// topTags keeps tags with count >= minOccurrences and returns the top n by
// count, ties broken by most recent occurrence, then tag name for
// determinism.
func topTags(tallies map[string]*tagTally, minOccurrences, n int) []string {
	if n <= 0 {
		return nil
	}

	survivors := make([]*tagTally, 0, len(tallies))
	for _, t := range tallies {
		if t.count >= minOccurrences {
			survivors = append(survivors, t)
		}
	}
	sort.Slice(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.count != b.count {
			return a.count > b.count
		}
		if !a.lastSeen.Equal(b.lastSeen) {
			return a.lastSeen.After(b.lastSeen)
		}
		return a.display < b.display
	})

	if len(survivors) == 0 {
		return nil
	}
	if len(survivors) > n {
		survivors = survivors[:n]
	}
	tags := make([]string, len(survivors))
	for i, t := range survivors {
		tags[i] = t.display
	}
	return tags
}
