// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package plex

// Plex API response structures. Every endpoint wraps its payload in a
// MediaContainer; only the fields Harmoniq reads are mapped.

// sectionsResponse is the response from /library/sections.
type sectionsResponse struct {
	MediaContainer sectionsContainer `json:"MediaContainer"`
}

type sectionsContainer struct {
	Size      int       `json:"size"`
	Directory []Section `json:"Directory"`
}

// Section describes one library section. Music libraries have type
// "artist".
type Section struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// tracksResponse is the response from track listing endpoints
// (/library/sections/{key}/all?type=10, /library/metadata/{ids},
// /status/sessions/history/all).
type tracksResponse struct {
	MediaContainer tracksContainer `json:"MediaContainer"`
}

type tracksContainer struct {
	Size     int             `json:"size"`
	Metadata []TrackMetadata `json:"Metadata"`
}

// TrackMetadata is a single track (or history entry) as returned by Plex.
// UserRating uses Plex's 0-10 scale; ViewedAt is only set on history
// entries.
type TrackMetadata struct {
	RatingKey        string  `json:"ratingKey"`
	Key              string  `json:"key"`
	Type             string  `json:"type"`
	Title            string  `json:"title"`
	GrandparentTitle string  `json:"grandparentTitle,omitempty"` // artist
	ParentTitle      string  `json:"parentTitle,omitempty"`      // album
	UserRating       float64 `json:"userRating,omitempty"`
	ViewCount        int     `json:"viewCount,omitempty"`
	SkipCount        int     `json:"skipCount,omitempty"`
	LastViewedAt     int64   `json:"lastViewedAt,omitempty"`
	ViewedAt         int64   `json:"viewedAt,omitempty"`

	Mood  []Tag   `json:"Mood,omitempty"`
	Style []Tag   `json:"Style,omitempty"`
	Media []Media `json:"Media,omitempty"`
}

// Tag is a mood or style label.
type Tag struct {
	Tag string `json:"tag"`
}

// Media wraps the file parts of a track.
type Media struct {
	Part []Part `json:"Part"`
}

// Part wraps the streams of one media file.
type Part struct {
	Stream []Stream `json:"Stream"`
}

// Stream carries the per-stream attributes. For audio streams
// (StreamType 2) Plex music analysis fills in the loudness fields.
type Stream struct {
	StreamType int      `json:"streamType"`
	Loudness   *float64 `json:"loudness,omitempty"`
	LRA        *float64 `json:"lra,omitempty"`
	Gain       *float64 `json:"gain,omitempty"`
}

// identityResponse is the response from /identity.
type identityResponse struct {
	MediaContainer identityContainer `json:"MediaContainer"`
}

type identityContainer struct {
	MachineIdentifier string `json:"machineIdentifier"`
	Version           string `json:"version"`
}

// playlistsResponse is the response from /playlists.
type playlistsResponse struct {
	MediaContainer playlistsContainer `json:"MediaContainer"`
}

type playlistsContainer struct {
	Size     int        `json:"size"`
	Metadata []Playlist `json:"Metadata"`
}

// Playlist describes one Plex playlist.
type Playlist struct {
	RatingKey string `json:"ratingKey"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	Smart     bool   `json:"smart,omitempty"`
	LeafCount int    `json:"leafCount,omitempty"`
}
