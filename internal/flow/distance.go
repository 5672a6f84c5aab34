// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package flow

import "math"

// CosineDistance is the default DistanceFunc: 1 minus the cosine similarity
// of the feature vectors, clamped to [0,1]. Tracks without a vector (or
// with mismatched dimensions) are infinitely distant and never similar.
func CosineDistance(a, b *Track) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	if len(a.Features) == 0 || len(b.Features) == 0 || len(a.Features) != len(b.Features) {
		return math.Inf(1)
	}

	var dot, normA, normB float64
	for i := range a.Features {
		dot += a.Features[i] * b.Features[i]
		normA += a.Features[i] * a.Features[i]
		normB += b.Features[i] * b.Features[i]
	}
	if normA == 0 || normB == 0 {
		return math.Inf(1)
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	d := 1 - sim
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}
