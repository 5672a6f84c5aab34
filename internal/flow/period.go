// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import (
	"sort"
	"time"
)

// ResolvePeriod determines the active period for the given local time.
//
// Periods are considered in ascending start-hour order; the active one has
// the greatest start hour at or before the current hour. Before the
// earliest start hour the day wraps: yesterday's last period is still
// active (Night@23 covers 03:00).
//
// An empty period list or duplicate start hours is a configuration error.
func ResolvePeriod(periods []Period, now time.Time) (Period, error) {
	if err := validatePeriods(periods); err != nil {
		return Period{}, err
	}

	sorted := make([]Period, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartHour < sorted[j].StartHour })

	hour := now.Hour()
	// Wrap-around default: the latest period of the previous day.
	active := sorted[len(sorted)-1]
	for _, p := range sorted {
		if p.StartHour <= hour {
			active = p
		}
	}
	return active, nil
}
