// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// structValidator returns the shared validator instance. validator.Validate
// caches struct metadata, so a singleton is both safe and cheap.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that required configuration is present and valid. Struct
// tags cover formats and ranges; cross-field rules are checked by hand.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateFlow(); err != nil {
		return err
	}
	if err := c.validateLastfm(); err != nil {
		return err
	}
	return c.validateScheduler()
}

func (c *Config) validatePlex() error {
	if len(c.Plex.Token) < 8 {
		return fmt.Errorf("PLEX_TOKEN appears invalid (too short)")
	}
	if c.Plex.Timeout < time.Second {
		return fmt.Errorf("PLEX_TIMEOUT must be at least 1s")
	}
	return nil
}

func (c *Config) validateFlow() error {
	flowCfg, err := c.FlowConfig()
	if err != nil {
		return err
	}
	return flowCfg.Validate()
}

func (c *Config) validateLastfm() error {
	if !c.Lastfm.ChartsEnabled && !c.Lastfm.RecsEnabled {
		return nil
	}
	if c.Lastfm.APIKey == "" {
		return fmt.Errorf("LASTFM_API_KEY is required when a Last.fm playlist is enabled")
	}
	if c.Lastfm.RecsEnabled && c.Lastfm.Username == "" {
		return fmt.Errorf("LASTFM_USERNAME is required when ENABLE_LASTFM_RECS=true")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}
