// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import "strings"

// defaultVibe is the built-in tag set applied when a period declares no
// override of its own.
type defaultVibe struct {
	moods  []string
	styles []string
}

// defaultPeriodVibes maps the canonical period names (lower-cased) to their
// built-in vibes. Unknown period names without an override yield an empty
// base vibe, which the learner augmentation may still populate.
var defaultPeriodVibes = map[string]defaultVibe{
	"morning": {
		moods:  []string{"Calm", "Peaceful", "Gentle"},
		styles: []string{"Acoustic", "Folk", "Singer-Songwriter"},
	},
	"afternoon": {
		moods:  []string{"Upbeat", "Energetic", "Bright"},
		styles: []string{"Pop", "Indie Rock", "Funk"},
	},
	"evening": {
		moods:  []string{"Smooth", "Warm", "Relaxed"},
		styles: []string{"Jazz", "Soul", "R&B"},
	},
	"night": {
		moods:  []string{"Moody", "Atmospheric", "Dreamy"},
		styles: []string{"Electronic", "Downtempo", "Ambient"},
	},
}

// SynthesizeVibe merges the active period's base tags with the learner's
// augmentation into one immutable VibeCriteria. A period without an
// explicit override falls back to the built-in default for its name.
// Deterministic given identical inputs.
func SynthesizeVibe(period Period, learned LearnedVibe) VibeCriteria {
	baseMoods := period.Moods
	baseStyles := period.Styles
	if len(baseMoods) == 0 && len(baseStyles) == 0 {
		if def, ok := defaultPeriodVibes[strings.ToLower(period.Name)]; ok {
			baseMoods = def.moods
			baseStyles = def.styles
		}
	}

	moods := make([]string, 0, len(baseMoods)+len(learned.Moods))
	moods = append(moods, baseMoods...)
	moods = append(moods, learned.Moods...)

	styles := make([]string, 0, len(baseStyles)+len(learned.Styles))
	styles = append(styles, baseStyles...)
	styles = append(styles, learned.Styles...)

	return NewVibeCriteria(moods, styles)
}
