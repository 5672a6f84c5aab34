// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package plex is the Plex Media Server API client. It implements the
// flow.Catalog interface over the music library and provides playlist
// upsert for the sync step.
//
// Request handling:
//   - X-Plex-Token authentication on every request
//   - Automatic retry with exponential backoff on HTTP 429
//   - Circuit breaker (sony/gobreaker) around all requests so a dead or
//     overloaded server fails fast instead of stalling refresh cycles
//
// Sonic features:
// Plex does not expose raw audio embeddings, so feature vectors are built
// from the per-track loudness analysis (loudness, LRA, gain) that Plex
// stores after music analysis runs. Tracks the server has not analyzed
// get no vector and are treated as infinitely distant by the engine.
package plex
