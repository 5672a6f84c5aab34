// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package flow implements the Flow generation engine: a single dynamic
// playlist whose content follows the time of day and the listener's own
// history.
//
// One generation cycle is a linear pipeline:
//
//	resolve period -> learn vibe from history -> synthesize criteria ->
//	select candidates -> pick anchors -> sonic expansion/bridging ->
//	sonic sort -> assemble result
//
// The engine is a pure function of its inputs plus the catalog snapshot:
// the current time and the random source are passed into GenerateFlow, so a
// fixed seed reproduces an identical playlist against the same library.
// Network I/O, scheduling, and playlist writes belong to collaborators; the
// engine only consumes the Catalog interface and produces a Result.
//
// Degradation is deliberate: an empty candidate pool, under-filled anchor
// targets, or unreachable bridges shrink the playlist instead of failing
// the cycle. Only configuration problems (no periods, duplicate period
// start hours) abort a run.
package flow
