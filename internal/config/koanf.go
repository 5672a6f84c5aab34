// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/harmoniq/config.yaml",
	"/etc/harmoniq/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. The result is validated before it
// is returned; a misconfigured process fails at startup.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, CONFIG_PATH first, then the
// default paths. Returns empty string when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps flat legacy environment variable names onto the
// nested koanf paths.
//
// Examples:
//   - PLEX_URL -> plex.url
//   - RUN_INTERVAL_MINUTES -> scheduler.interval_minutes
//   - PLAYLIST_NAME_TIME -> flow.playlist_name
//   - ENABLE_LASTFM_CHARTS -> lastfm.charts_enabled
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Plex mappings
		"plex_url":            "plex.url",
		"plex_token":          "plex.token",
		"plex_music_section":  "plex.music_section",
		"plex_timeout":        "plex.timeout",
		"plex_retry_attempts": "plex.retry_attempts",
		"plex_retry_delay":    "plex.retry_delay",

		// Flow mappings (PLAYLIST_*_TIME are the legacy names)
		"playlist_name_time":        "flow.playlist_name",
		"playlist_size_time":        "flow.target_size",
		"flow_playlist_name":        "flow.playlist_name",
		"flow_target_size":          "flow.target_size",
		"flow_periods":              "flow.periods_spec",
		"flow_lookback_days":        "flow.learner.lookback_days",
		"flow_top_moods":            "flow.learner.top_moods",
		"flow_top_styles":           "flow.learner.top_styles",
		"flow_min_occurrences":      "flow.learner.min_occurrences",
		"flow_count_once_per_track": "flow.learner.count_once_per_track",
		"flow_min_rating":           "flow.refine.min_rating",
		"flow_exclude_played_days":  "flow.refine.exclude_played_days",
		"flow_max_skip_count":       "flow.refine.max_skip_count",
		"flow_vibe_anchors":         "flow.anchors.vibe_count",
		"flow_history_anchors":      "flow.anchors.history_count",
		"flow_history_min_plays":    "flow.anchors.history_min_plays",
		"flow_history_min_rating":   "flow.anchors.history_min_rating",
		"flow_history_lookback":     "flow.anchors.history_lookback_days",
		"flow_seed_tracks":          "flow.sonic.seed_tracks",
		"flow_similar_per_seed":     "flow.sonic.similar_per_seed",
		"flow_sonic_max_distance":   "flow.sonic.max_distance",
		"flow_final_mix_ratio":      "flow.sonic.final_mix_ratio",
		"flow_sonic_bridging":       "flow.sonic.bridging",
		"flow_sort_limit":           "flow.sonic.sort_similarity_limit",
		"flow_sort_max_distance":    "flow.sonic.sort_max_distance",

		// Last.fm mappings
		"enable_lastfm_charts":       "lastfm.charts_enabled",
		"enable_lastfm_recs":         "lastfm.recs_enabled",
		"lastfm_api_key":             "lastfm.api_key",
		"lastfm_username":            "lastfm.username",
		"playlist_name_charts":       "lastfm.chart_playlist_name",
		"playlist_name_recs":         "lastfm.recs_playlist_name",
		"lastfm_limit":               "lastfm.limit",
		"lastfm_timeout":             "lastfm.timeout",

		// Scheduler mappings
		"run_interval_minutes": "scheduler.interval_minutes",
		"timezone":             "scheduler.timezone",
		"run_on_startup":       "scheduler.run_on_startup",

		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables never
	// pollute the config.
	return ""
}
