// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package config loads and validates application configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built-in sensible defaults for every optional setting
//  2. Config file: optional YAML file (config.yaml) for persistent settings
//  3. Environment variables: override any setting (highest priority)
//
// Environment variable names follow the flat legacy scheme (PLEX_URL,
// RUN_INTERVAL_MINUTES, PLAYLIST_NAME_TIME) and are mapped onto the nested
// structure; unmapped variables are ignored so unrelated environment noise
// never pollutes the config.
//
// Config is immutable after Load and safe for concurrent reads.
package config
