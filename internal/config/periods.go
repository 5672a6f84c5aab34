// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harmoniq-app/harmoniq/internal/flow"
)

// ParsePeriods parses the compact period spec string used by FLOW_PERIODS.
//
// Grammar, entries separated by semicolons:
//
//	Name:StartHour[:mood|mood...[:style|style...]]
//
// Example:
//
//	Morning:5:Calm|Peaceful:Acoustic|Folk;Afternoon:12;Night:22:Moody
//
// Moods and styles are optional per entry; entries without them fall back
// to the engine's built-in vibe for that period name.
func ParsePeriods(spec string) ([]flow.Period, error) {
	entries := strings.Split(spec, ";")
	periods := make([]flow.Period, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid period entry %q: want Name:StartHour[:moods[:styles]]", entry)
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("invalid period entry %q: empty name", entry)
		}

		hour, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid period entry %q: start hour: %w", entry, err)
		}

		period := flow.Period{Name: name, StartHour: hour}
		if len(parts) >= 3 {
			period.Moods = splitTags(parts[2])
		}
		if len(parts) == 4 {
			period.Styles = splitTags(parts[3])
		}
		periods = append(periods, period)
	}

	if len(periods) == 0 {
		return nil, fmt.Errorf("period spec %q contains no entries", spec)
	}
	return periods, nil
}

// splitTags splits a pipe-separated tag list, dropping empty segments.
func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, "|") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
