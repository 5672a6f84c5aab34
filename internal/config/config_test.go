// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harmoniq-app/harmoniq/internal/flow"
)

// validConfig returns defaults completed with the two required settings.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Plex.URL = "http://localhost:32400"
	cfg.Plex.Token = "abcdefgh12345678"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config passes", func(c *Config) {}, false},
		{"missing plex url", func(c *Config) { c.Plex.URL = "" }, true},
		{"malformed plex url", func(c *Config) { c.Plex.URL = "not a url" }, true},
		{"missing plex token", func(c *Config) { c.Plex.Token = "" }, true},
		{"short plex token", func(c *Config) { c.Plex.Token = "short" }, true},
		{"sub-second plex timeout", func(c *Config) { c.Plex.Timeout = 100 * time.Millisecond }, true},
		{"zero target size", func(c *Config) { c.Flow.TargetSize = 0 }, true},
		{"empty playlist name", func(c *Config) { c.Flow.PlaylistName = "" }, true},
		{"bad period spec", func(c *Config) { c.Flow.PeriodsSpec = "Morning" }, true},
		{"duplicate period hours", func(c *Config) { c.Flow.PeriodsSpec = "A:6;B:6" }, true},
		{"charts without api key", func(c *Config) { c.Lastfm.ChartsEnabled = true }, true},
		{
			"charts with api key",
			func(c *Config) { c.Lastfm.ChartsEnabled = true; c.Lastfm.APIKey = "key" },
			false,
		},
		{
			"recs without username",
			func(c *Config) { c.Lastfm.RecsEnabled = true; c.Lastfm.APIKey = "key" },
			true,
		},
		{"zero interval", func(c *Config) { c.Scheduler.IntervalMinutes = 0 }, true},
		{"unknown timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlowConfigPeriodPrecedence(t *testing.T) {
	t.Run("spec string wins over yaml list", func(t *testing.T) {
		cfg := validConfig()
		cfg.Flow.Periods = []flow.Period{{Name: "FromYAML", StartHour: 9}}
		cfg.Flow.PeriodsSpec = "FromEnv:7"

		flowCfg, err := cfg.FlowConfig()
		if err != nil {
			t.Fatalf("FlowConfig() error = %v", err)
		}
		if len(flowCfg.Periods) != 1 || flowCfg.Periods[0].Name != "FromEnv" {
			t.Errorf("Periods = %+v, want the spec string periods", flowCfg.Periods)
		}
	})

	t.Run("yaml list used when no spec string", func(t *testing.T) {
		cfg := validConfig()
		cfg.Flow.Periods = []flow.Period{{Name: "FromYAML", StartHour: 9}}

		flowCfg, err := cfg.FlowConfig()
		if err != nil {
			t.Fatalf("FlowConfig() error = %v", err)
		}
		if len(flowCfg.Periods) != 1 || flowCfg.Periods[0].Name != "FromYAML" {
			t.Errorf("Periods = %+v, want the yaml periods", flowCfg.Periods)
		}
	})

	t.Run("built-in periods when nothing configured", func(t *testing.T) {
		cfg := validConfig()

		flowCfg, err := cfg.FlowConfig()
		if err != nil {
			t.Fatalf("FlowConfig() error = %v", err)
		}
		if len(flowCfg.Periods) != 4 {
			t.Errorf("got %d periods, want the built-in four", len(flowCfg.Periods))
		}
	})
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"PLEX_URL", "plex.url"},
		{"PLEX_TOKEN", "plex.token"},
		{"RUN_INTERVAL_MINUTES", "scheduler.interval_minutes"},
		{"TIMEZONE", "scheduler.timezone"},
		{"PLAYLIST_NAME_TIME", "flow.playlist_name"},
		{"PLAYLIST_SIZE_TIME", "flow.target_size"},
		{"FLOW_PERIODS", "flow.periods_spec"},
		{"ENABLE_LASTFM_CHARTS", "lastfm.charts_enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"HTTP_PORT", "server.port"},
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PLEX_URL", "http://plex.local:32400")
	t.Setenv("PLEX_TOKEN", "abcdefgh12345678")
	t.Setenv("PLAYLIST_NAME_TIME", "Afternoon Vibes")
	t.Setenv("PLAYLIST_SIZE_TIME", "25")
	t.Setenv("RUN_INTERVAL_MINUTES", "30")
	t.Setenv("TIMEZONE", "Europe/Amsterdam")
	t.Setenv("FLOW_PERIODS", "Morning:6:Calm;Night:22")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plex.URL != "http://plex.local:32400" {
		t.Errorf("Plex.URL = %q", cfg.Plex.URL)
	}
	if cfg.Flow.PlaylistName != "Afternoon Vibes" {
		t.Errorf("Flow.PlaylistName = %q", cfg.Flow.PlaylistName)
	}
	if cfg.Flow.TargetSize != 25 {
		t.Errorf("Flow.TargetSize = %d, want 25", cfg.Flow.TargetSize)
	}
	if cfg.Scheduler.IntervalMinutes != 30 {
		t.Errorf("Scheduler.IntervalMinutes = %d, want 30", cfg.Scheduler.IntervalMinutes)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Interval() != 30*time.Minute {
		t.Errorf("Interval() = %v, want 30m", cfg.Interval())
	}

	flowCfg, err := cfg.FlowConfig()
	if err != nil {
		t.Fatalf("FlowConfig() error = %v", err)
	}
	if len(flowCfg.Periods) != 2 || flowCfg.Periods[0].Name != "Morning" {
		t.Errorf("Periods = %+v, want Morning and Night from FLOW_PERIODS", flowCfg.Periods)
	}
	if flowCfg.TargetSize != 25 {
		t.Errorf("flow TargetSize = %d, want 25", flowCfg.TargetSize)
	}
}

func TestLoadLayersFileUnderEnvironment(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
plex:
  url: http://from-file:32400
  token: abcdefgh12345678
flow:
  playlist_name: From File
  target_size: 15
scheduler:
  timezone: UTC
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("PLAYLIST_NAME_TIME", "From Env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plex.URL != "http://from-file:32400" {
		t.Errorf("Plex.URL = %q, want the file value", cfg.Plex.URL)
	}
	if cfg.Flow.TargetSize != 15 {
		t.Errorf("Flow.TargetSize = %d, want the file value 15", cfg.Flow.TargetSize)
	}
	if cfg.Flow.PlaylistName != "From Env" {
		t.Errorf("Flow.PlaylistName = %q, env should win over file", cfg.Flow.PlaylistName)
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("Server.Port = %d, want the default 8787", cfg.Server.Port)
	}
}
