// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/harmoniq-app/harmoniq/internal/logging"
)

// UpsertPlaylist idempotently replaces the audio playlist with the given
// title so its contents exactly match trackIDs in order. Any existing
// playlist with that title is deleted first; Plex has no atomic reorder,
// so delete-and-recreate is the reliable full-replace.
func (c *Client) UpsertPlaylist(ctx context.Context, title, summary string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return fmt.Errorf("refusing to create empty playlist %q", title)
	}

	existing, err := c.findPlaylist(ctx, title)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := c.deletePlaylist(ctx, existing.RatingKey); err != nil {
			return err
		}
	}

	machineID, err := c.Identity(ctx)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("type", "audio")
	query.Set("smart", "0")
	query.Set("title", title)
	query.Set("uri", playlistURI(machineID, trackIDs))

	var resp playlistsResponse
	if err := c.doRequest(ctx, requestConfig{
		method: http.MethodPost,
		path:   "/playlists",
		query:  query,
	}, &resp); err != nil {
		return fmt.Errorf("create playlist %q: %w", title, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return fmt.Errorf("create playlist %q: empty response", title)
	}
	created := resp.MediaContainer.Metadata[0]

	if summary != "" {
		if err := c.setPlaylistSummary(ctx, created.RatingKey, summary); err != nil {
			return err
		}
	}

	logging.Info().Str("playlist", title).Int("tracks", len(trackIDs)).
		Bool("replaced", existing != nil).Msg("playlist synced")
	return nil
}

// findPlaylist returns the audio playlist with the given title, or nil.
func (c *Client) findPlaylist(ctx context.Context, title string) (*Playlist, error) {
	query := url.Values{}
	query.Set("playlistType", "audio")

	var resp playlistsResponse
	if err := c.doJSONRequest(ctx, "/playlists", query, &resp); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	for i := range resp.MediaContainer.Metadata {
		p := &resp.MediaContainer.Metadata[i]
		if strings.EqualFold(p.Title, title) {
			return p, nil
		}
	}
	return nil, nil
}

func (c *Client) deletePlaylist(ctx context.Context, ratingKey string) error {
	if err := c.doRequest(ctx, requestConfig{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/playlists/%s", ratingKey),
	}, nil); err != nil {
		return fmt.Errorf("delete playlist %s: %w", ratingKey, err)
	}
	return nil
}

func (c *Client) setPlaylistSummary(ctx context.Context, ratingKey, summary string) error {
	query := url.Values{}
	query.Set("summary", summary)

	if err := c.doRequest(ctx, requestConfig{
		method: http.MethodPut,
		path:   fmt.Sprintf("/playlists/%s", ratingKey),
		query:  query,
	}, nil); err != nil {
		return fmt.Errorf("set playlist summary: %w", err)
	}
	return nil
}

// playlistURI builds the library URI Plex expects for playlist creation:
// server://{machineID}/com.plexapp.plugins.library/library/metadata/{ids}
func playlistURI(machineID string, trackIDs []string) string {
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		machineID, strings.Join(trackIDs, ","))
}
