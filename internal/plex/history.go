// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package plex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harmoniq-app/harmoniq/internal/flow"
	"github.com/harmoniq-app/harmoniq/internal/logging"
)

// metadataBatchSize caps how many rating keys are fetched per metadata
// request; Plex accepts comma-separated key lists but very long URLs fail.
const metadataBatchSize = 50

// TrackHistory returns music playback history within the lookback window,
// newest first. History entries from Plex carry only identity and a
// viewed-at timestamp, so full track metadata (tags, ratings, counts) is
// backfilled with batched metadata lookups.
func (c *Client) TrackHistory(ctx context.Context, lookbackDays int) ([]flow.HistoryEntry, error) {
	since := time.Now().AddDate(0, 0, -lookbackDays)

	query := url.Values{}
	query.Set("sort", "-viewedAt")
	query.Set("viewedAt>", strconv.FormatInt(since.Unix(), 10))

	var resp tracksResponse
	if err := c.doJSONRequest(ctx, "/status/sessions/history/all", query, &resp); err != nil {
		return nil, fmt.Errorf("fetch playback history: %w", err)
	}

	// Collect the distinct track keys; everything non-music is dropped.
	type play struct {
		ratingKey string
		viewedAt  time.Time
	}
	var plays []play
	keySet := make(map[string]struct{})
	for i := range resp.MediaContainer.Metadata {
		md := &resp.MediaContainer.Metadata[i]
		if md.Type != "track" || md.RatingKey == "" || md.ViewedAt == 0 {
			continue
		}
		plays = append(plays, play{ratingKey: md.RatingKey, viewedAt: time.Unix(md.ViewedAt, 0).UTC()})
		keySet[md.RatingKey] = struct{}{}
	}
	if len(plays) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	tracksByKey, err := c.tracksByRatingKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	entries := make([]flow.HistoryEntry, 0, len(plays))
	for _, p := range plays {
		track, ok := tracksByKey[p.ratingKey]
		if !ok {
			// Track deleted from the library since it was played.
			continue
		}
		entries = append(entries, flow.HistoryEntry{
			Track:    track,
			PlayedAt: p.viewedAt,
			Rating:   track.Rating,
		})
	}

	logging.Debug().Int("plays", len(entries)).Int("distinct_tracks", len(tracksByKey)).
		Int("lookback_days", lookbackDays).Msg("fetched track history")
	return entries, nil
}

// tracksByRatingKeys fetches full track metadata for the given keys in
// batches and indexes the result by rating key.
func (c *Client) tracksByRatingKeys(ctx context.Context, keys []string) (map[string]flow.Track, error) {
	tracks := make(map[string]flow.Track, len(keys))

	for start := 0; start < len(keys); start += metadataBatchSize {
		end := start + metadataBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		var resp tracksResponse
		path := fmt.Sprintf("/library/metadata/%s", strings.Join(batch, ","))
		if err := c.doJSONRequest(ctx, path, nil, &resp); err != nil {
			return nil, fmt.Errorf("fetch track metadata batch: %w", err)
		}
		for i := range resp.MediaContainer.Metadata {
			md := &resp.MediaContainer.Metadata[i]
			tracks[md.RatingKey] = trackFromMetadata(md)
		}
	}
	return tracks, nil
}
