// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package config

import (
	"time"

	"github.com/harmoniq-app/harmoniq/internal/flow"
)

// Config holds all application configuration.
//
// Sections:
//   - Plex: media server connection (required)
//   - Flow: the time-aware Flow playlist engine
//   - Lastfm: optional Last.fm chart and recommendation playlists
//   - Scheduler: refresh cadence and timezone
//   - Server: HTTP API and metrics endpoint
//   - Logging: level and output format
type Config struct {
	Plex      PlexConfig      `koanf:"plex"`
	Flow      FlowConfig      `koanf:"flow"`
	Lastfm    LastfmConfig    `koanf:"lastfm"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// PlexConfig holds Plex Media Server connection settings.
//
// Environment Variables:
//   - PLEX_URL: Plex server URL, e.g. http://localhost:32400 (required)
//   - PLEX_TOKEN: X-Plex-Token for authentication (required)
//   - PLEX_MUSIC_SECTION: music library name; auto-discovered when empty
//   - PLEX_TIMEOUT: per-request timeout (default: 30s)
//   - PLEX_RETRY_ATTEMPTS: retries on transient failures (default: 3)
//   - PLEX_RETRY_DELAY: initial backoff delay (default: 2s)
type PlexConfig struct {
	URL           string        `koanf:"url" validate:"required,url"`
	Token         string        `koanf:"token" validate:"required"`
	MusicSection  string        `koanf:"music_section"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts" validate:"min=0,max=10"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// FlowConfig holds the Flow engine tunables. Periods can be configured two
// ways: as a YAML list under flow.periods, or as a compact spec string via
// FLOW_PERIODS ("Morning:5:Calm|Peaceful:Acoustic;Night:22"). The spec
// string wins when both are set.
type FlowConfig struct {
	PlaylistName string             `koanf:"playlist_name" validate:"required"`
	TargetSize   int                `koanf:"target_size" validate:"min=1,max=500"`
	PeriodsSpec  string             `koanf:"periods_spec"`
	Periods      []flow.Period      `koanf:"periods"`
	Learner      flow.LearnerConfig `koanf:"learner"`
	Refine       flow.RefineConfig  `koanf:"refine"`
	Anchors      flow.AnchorConfig  `koanf:"anchors"`
	Sonic        flow.SonicConfig   `koanf:"sonic"`
}

// LastfmConfig holds optional Last.fm integration settings. Both playlist
// kinds are disabled by default; enabling either requires an API key.
//
// Environment Variables:
//   - ENABLE_LASTFM_CHARTS: build a global chart playlist (default: false)
//   - ENABLE_LASTFM_RECS: build a recommendations playlist (default: false)
//   - LASTFM_API_KEY: Last.fm API key
//   - LASTFM_USERNAME: Last.fm user for recommendations
type LastfmConfig struct {
	ChartsEnabled     bool          `koanf:"charts_enabled"`
	RecsEnabled       bool          `koanf:"recs_enabled"`
	APIKey            string        `koanf:"api_key"`
	Username          string        `koanf:"username"`
	ChartPlaylistName string        `koanf:"chart_playlist_name"`
	RecsPlaylistName  string        `koanf:"recs_playlist_name"`
	Limit             int           `koanf:"limit" validate:"min=1,max=200"`
	Timeout           time.Duration `koanf:"timeout"`
}

// SchedulerConfig holds refresh cadence settings.
//
// Environment Variables:
//   - RUN_INTERVAL_MINUTES: minutes between refresh cycles (default: 60)
//   - TIMEZONE: IANA timezone for period resolution (default: UTC)
//   - RUN_ON_STARTUP: run a cycle immediately at startup (default: true)
type SchedulerConfig struct {
	IntervalMinutes int    `koanf:"interval_minutes" validate:"min=1,max=1440"`
	Timezone        string `koanf:"timezone" validate:"required"`
	RunOnStartup    bool   `koanf:"run_on_startup"`
}

// ServerConfig holds HTTP server settings for the status API and metrics.
type ServerConfig struct {
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Host    string        `koanf:"host" validate:"required"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	flowDefaults := flow.DefaultConfig()
	return &Config{
		Plex: PlexConfig{
			URL:           "",
			Token:         "",
			MusicSection:  "", // auto-discover the first music library
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
		},
		Flow: FlowConfig{
			PlaylistName: flowDefaults.PlaylistName,
			TargetSize:   flowDefaults.TargetSize,
			PeriodsSpec:  "",
			Periods:      nil, // empty means the built-in four-period day
			Learner:      flowDefaults.Learner,
			Refine:       flowDefaults.Refine,
			Anchors:      flowDefaults.Anchors,
			Sonic:        flowDefaults.Sonic,
		},
		Lastfm: LastfmConfig{
			ChartsEnabled:     false,
			RecsEnabled:       false,
			APIKey:            "",
			Username:          "",
			ChartPlaylistName: "Global Charts",
			RecsPlaylistName:  "Recommended For You",
			Limit:             50,
			Timeout:           15 * time.Second,
		},
		Scheduler: SchedulerConfig{
			IntervalMinutes: 60,
			Timezone:        "UTC",
			RunOnStartup:    true,
		},
		Server: ServerConfig{
			Port:    8787,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// FlowConfig resolves the flow section into the engine's own config type.
// Period precedence: FLOW_PERIODS spec string, then the YAML list, then the
// engine's built-in four-period day.
func (c *Config) FlowConfig() (*flow.Config, error) {
	periods := c.Flow.Periods
	if c.Flow.PeriodsSpec != "" {
		parsed, err := ParsePeriods(c.Flow.PeriodsSpec)
		if err != nil {
			return nil, err
		}
		periods = parsed
	}
	if len(periods) == 0 {
		periods = flow.DefaultConfig().Periods
	}

	return &flow.Config{
		PlaylistName: c.Flow.PlaylistName,
		TargetSize:   c.Flow.TargetSize,
		Periods:      periods,
		Learner:      c.Flow.Learner,
		Refine:       c.Flow.Refine,
		Anchors:      c.Flow.Anchors,
		Sonic:        c.Flow.Sonic,
	}, nil
}

// Location resolves the scheduler timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Scheduler.Timezone)
}

// Interval returns the scheduler interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
}
