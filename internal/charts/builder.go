// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package charts

import (
	"context"
	"fmt"

	"github.com/harmoniq-app/harmoniq/internal/config"
	"github.com/harmoniq-app/harmoniq/internal/flow"
	"github.com/harmoniq-app/harmoniq/internal/logging"
	"github.com/rs/zerolog"
)

// Library is the slice of the Plex client the builder needs: resolve a
// chart entry to an owned track, and sync the resulting playlist.
type Library interface {
	FindTrack(ctx context.Context, artist, title string) (*flow.Track, error)
	UpsertPlaylist(ctx context.Context, title, summary string, trackIDs []string) error
}

// Fetcher is the slice of the Last.fm client the builder needs.
type Fetcher interface {
	Enabled() bool
	ChartTopTracks(ctx context.Context, limit int) ([]ChartTrack, error)
	RecommendedTracks(ctx context.Context, limit int) ([]ChartTrack, error)
}

// Builder turns Last.fm track lists into Plex playlists. Tracks the
// library does not own are skipped; a playlist with zero matches is left
// untouched rather than emptied.
type Builder struct {
	library Library
	fetcher Fetcher
	cfg     config.LastfmConfig
	logger  zerolog.Logger
}

// NewBuilder creates a chart playlist builder.
func NewBuilder(library Library, fetcher Fetcher, cfg config.LastfmConfig) *Builder {
	return &Builder{
		library: library,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logging.With().Str("component", "charts").Logger(),
	}
}

// Refresh rebuilds every enabled Last.fm playlist. Failures of one
// playlist do not block the other; the first error is returned after both
// have been attempted.
func (b *Builder) Refresh(ctx context.Context) error {
	if !b.fetcher.Enabled() {
		return nil
	}

	var firstErr error
	if b.cfg.ChartsEnabled {
		if err := b.refreshOne(ctx, b.cfg.ChartPlaylistName, "Last.fm global top tracks, matched against your library.", b.fetcher.ChartTopTracks); err != nil {
			b.logger.Error().Err(err).Msg("chart playlist refresh failed")
			firstErr = err
		}
	}
	if b.cfg.RecsEnabled {
		if err := b.refreshOne(ctx, b.cfg.RecsPlaylistName, "Last.fm recommendations, matched against your library.", b.fetcher.RecommendedTracks); err != nil {
			b.logger.Error().Err(err).Msg("recommendations playlist refresh failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *Builder) refreshOne(ctx context.Context, playlistName, summary string, fetch func(context.Context, int) ([]ChartTrack, error)) error {
	tracks, err := fetch(ctx, b.cfg.Limit)
	if err != nil {
		return err
	}

	matched, err := b.matchTracks(ctx, tracks)
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		b.logger.Warn().Str("playlist", playlistName).Int("fetched", len(tracks)).
			Msg("no chart tracks matched the library; keeping previous playlist")
		return nil
	}

	if err := b.library.UpsertPlaylist(ctx, playlistName, summary, matched); err != nil {
		return fmt.Errorf("sync playlist %q: %w", playlistName, err)
	}
	b.logger.Info().Str("playlist", playlistName).Int("fetched", len(tracks)).
		Int("matched", len(matched)).Msg("chart playlist refreshed")
	return nil
}

// matchTracks resolves chart entries to owned library tracks, preserving
// chart order and dropping duplicates.
func (b *Builder) matchTracks(ctx context.Context, tracks []ChartTrack) ([]string, error) {
	seen := make(map[string]struct{}, len(tracks))
	matched := make([]string, 0, len(tracks))

	for _, ct := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		track, err := b.library.FindTrack(ctx, ct.Artist, ct.Title)
		if err != nil {
			return nil, fmt.Errorf("match %q by %q: %w", ct.Title, ct.Artist, err)
		}
		if track == nil {
			b.logger.Info().Str("artist", ct.Artist).Str("title", ct.Title).
				Msg("chart track not in library; skipping")
			continue
		}
		if _, dup := seen[track.ID]; dup {
			continue
		}
		seen[track.ID] = struct{}{}
		matched = append(matched, track.ID)
	}
	return matched, nil
}
