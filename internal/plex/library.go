// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package plex

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/harmoniq-app/harmoniq/internal/flow"
	"github.com/harmoniq-app/harmoniq/internal/logging"
)

// typeTrack is the Plex metadata type code for music tracks.
const typeTrack = "10"

// MusicSectionKey resolves (and caches) the key of the music library
// section. When no section name is configured, the first section of type
// "artist" is used.
func (c *Client) MusicSectionKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sectionKey != "" {
		return c.sectionKey, nil
	}

	var resp sectionsResponse
	if err := c.doJSONRequest(ctx, "/library/sections", nil, &resp); err != nil {
		return "", fmt.Errorf("fetch library sections: %w", err)
	}

	for _, section := range resp.MediaContainer.Directory {
		if section.Type != "artist" {
			continue
		}
		if c.musicSection != "" && !strings.EqualFold(section.Title, c.musicSection) {
			continue
		}
		c.sectionKey = section.Key
		logging.Debug().Str("section", section.Title).Str("key", section.Key).Msg("resolved music library section")
		return c.sectionKey, nil
	}

	if c.musicSection != "" {
		return "", fmt.Errorf("music library %q not found", c.musicSection)
	}
	return "", fmt.Errorf("no music library section found")
}

// TracksByTag returns the union of tracks carrying any of the given mood
// tags or any of the given style tags. Plex combines distinct filters with
// AND, so moods and styles are fetched separately and merged by rating
// key; values within one filter are OR.
func (c *Client) TracksByTag(ctx context.Context, moods, styles []string) ([]flow.Track, error) {
	sectionKey, err := c.MusicSectionKey(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var tracks []flow.Track

	fetch := func(filter string, tags []string) error {
		if len(tags) == 0 {
			return nil
		}
		query := url.Values{}
		query.Set("type", typeTrack)
		query.Set(filter, strings.Join(tags, ","))

		var resp tracksResponse
		path := fmt.Sprintf("/library/sections/%s/all", sectionKey)
		if err := c.doJSONRequest(ctx, path, query, &resp); err != nil {
			return fmt.Errorf("fetch tracks by %s: %w", filter, err)
		}
		for i := range resp.MediaContainer.Metadata {
			md := &resp.MediaContainer.Metadata[i]
			if _, ok := seen[md.RatingKey]; ok {
				continue
			}
			seen[md.RatingKey] = struct{}{}
			tracks = append(tracks, trackFromMetadata(md))
		}
		return nil
	}

	if err := fetch("track.mood", moods); err != nil {
		return nil, err
	}
	if err := fetch("track.style", styles); err != nil {
		return nil, err
	}

	logging.Debug().Int("tracks", len(tracks)).Strs("moods", moods).Strs("styles", styles).Msg("fetched tracks by tag")
	return tracks, nil
}

// FindTrack searches the music library for a track by artist and title.
// Matching is case-insensitive on both fields; returns nil when no track
// matches.
func (c *Client) FindTrack(ctx context.Context, artist, title string) (*flow.Track, error) {
	sectionKey, err := c.MusicSectionKey(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("type", typeTrack)
	query.Set("title", title)

	var resp tracksResponse
	path := fmt.Sprintf("/library/sections/%s/all", sectionKey)
	if err := c.doJSONRequest(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("search track %q: %w", title, err)
	}

	for i := range resp.MediaContainer.Metadata {
		md := &resp.MediaContainer.Metadata[i]
		if strings.EqualFold(md.Title, title) && strings.EqualFold(md.GrandparentTitle, artist) {
			track := trackFromMetadata(md)
			return &track, nil
		}
	}
	return nil, nil
}

// trackFromMetadata converts a Plex track to the engine's track model.
// Plex rates on a 0-10 scale; the engine uses 0-5 stars.
func trackFromMetadata(md *TrackMetadata) flow.Track {
	track := flow.Track{
		ID:        md.RatingKey,
		Artist:    md.GrandparentTitle,
		Title:     md.Title,
		Rating:    md.UserRating / 2,
		PlayCount: md.ViewCount,
		SkipCount: md.SkipCount,
		Moods:     tagNames(md.Mood),
		Styles:    tagNames(md.Style),
		Features:  sonicFeatures(md),
	}
	if md.LastViewedAt > 0 {
		at := time.Unix(md.LastViewedAt, 0).UTC()
		track.LastPlayedAt = &at
	}
	return track
}

func tagNames(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Tag)
	}
	return names
}

// sonicFeatures builds a feature vector from Plex's loudness analysis.
// The three analysis fields are normalized to comparable ranges: loudness
// spans roughly [-40,0] LUFS, LRA [0,20] LU, gain [-20,20] dB. A track
// without a complete analysis gets no vector.
func sonicFeatures(md *TrackMetadata) []float64 {
	for _, media := range md.Media {
		for _, part := range media.Part {
			for _, stream := range part.Stream {
				if stream.StreamType != 2 {
					continue
				}
				if stream.Loudness == nil || stream.LRA == nil || stream.Gain == nil {
					continue
				}
				return []float64{
					(*stream.Loudness + 40) / 40,
					*stream.LRA / 20,
					(*stream.Gain + 20) / 40,
				}
			}
		}
	}
	return nil
}
