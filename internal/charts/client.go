// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

// Package charts builds the optional Last.fm playlists: global chart top
// tracks and per-user recommendations. Fetched tracks are matched against
// the Plex library; tracks the library does not own are skipped.
package charts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/harmoniq-app/harmoniq/internal/config"
	"github.com/harmoniq-app/harmoniq/internal/logging"
	"github.com/harmoniq-app/harmoniq/internal/metrics"
)

// DefaultAPIURL is the Last.fm web service root.
const DefaultAPIURL = "https://ws.audioscrobbler.com/2.0/"

const (
	maxRetries        = 3
	defaultRetryDelay = 5 * time.Second
)

// ChartTrack is one track reference from Last.fm, identified only by
// artist and title. Album data is unreliable in chart responses and is
// not carried.
type ChartTrack struct {
	Artist string
	Title  string
}

// Client is a minimal Last.fm API client. A client without an API key is
// valid but disabled; every fetch returns ErrDisabled.
type Client struct {
	apiURL     string
	apiKey     string
	username   string
	httpClient *http.Client
	retryDelay time.Duration
}

// ErrDisabled is returned when the client has no API key configured.
var ErrDisabled = fmt.Errorf("lastfm: client not configured")

// NewClient creates a Last.fm client from config.
func NewClient(cfg config.LastfmConfig) *Client {
	if cfg.APIKey == "" {
		logging.Warn().Msg("lastfm api key not configured; chart playlists disabled")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiURL:     DefaultAPIURL,
		apiKey:     cfg.APIKey,
		username:   cfg.Username,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: defaultRetryDelay,
	}
}

// Enabled reports whether the client can make requests.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// ChartTopTracks fetches the global top tracks chart.
func (c *Client) ChartTopTracks(ctx context.Context, limit int) ([]ChartTrack, error) {
	var resp struct {
		Tracks struct {
			Track []lastfmTrack `json:"track"`
		} `json:"tracks"`
	}
	if err := c.request(ctx, "chart.gettoptracks", limit, &resp); err != nil {
		return nil, err
	}
	return chartTracks(resp.Tracks.Track), nil
}

// RecommendedTracks fetches recommended tracks for the configured user.
func (c *Client) RecommendedTracks(ctx context.Context, limit int) ([]ChartTrack, error) {
	if c.username == "" {
		return nil, fmt.Errorf("lastfm: username required for recommendations")
	}
	var resp struct {
		Recommendations struct {
			Track []lastfmTrack `json:"track"`
		} `json:"recommendations"`
	}
	if err := c.request(ctx, "user.getrecommendedtracks", limit, &resp); err != nil {
		return nil, err
	}
	return chartTracks(resp.Recommendations.Track), nil
}

// lastfmTrack mirrors the wire format; the artist is an object in every
// method Harmoniq calls.
type lastfmTrack struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

func chartTracks(raw []lastfmTrack) []ChartTrack {
	tracks := make([]ChartTrack, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" || t.Artist.Name == "" {
			logging.Warn().Str("title", t.Name).Msg("skipping malformed lastfm track")
			continue
		}
		tracks = append(tracks, ChartTrack{Artist: t.Artist.Name, Title: t.Name})
	}
	return tracks
}

// lastfmError is an in-band error payload; Last.fm returns HTTP 200 with
// an error code for most failures.
type lastfmError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// request performs one API call with bounded retries and linear backoff.
func (c *Client) request(ctx context.Context, method string, limit int, result interface{}) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	query := url.Values{}
	query.Set("method", method)
	query.Set("api_key", c.apiKey)
	query.Set("format", "json")
	query.Set("limit", fmt.Sprintf("%d", limit))
	if c.username != "" {
		query.Set("user", c.username)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		body, err := c.fetch(ctx, query)
		if err == nil {
			var apiErr lastfmError
			if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Code != 0 {
				// In-band API errors (bad key, unknown user) never
				// recover on retry.
				metrics.LastfmRequestsTotal.WithLabelValues(method, "failure").Inc()
				return fmt.Errorf("lastfm api error %d: %s", apiErr.Code, apiErr.Message)
			}
			if err := json.Unmarshal(body, result); err != nil {
				metrics.LastfmRequestsTotal.WithLabelValues(method, "failure").Inc()
				return fmt.Errorf("decode lastfm response: %w", err)
			}
			metrics.LastfmRequestsTotal.WithLabelValues(method, "success").Inc()
			return nil
		}

		lastErr = err
		logging.Warn().Err(err).Str("method", method).Int("attempt", attempt).Msg("lastfm request failed")
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay * time.Duration(attempt)):
		}
	}

	metrics.LastfmRequestsTotal.WithLabelValues(method, "failure").Inc()
	return fmt.Errorf("lastfm %s failed after %d attempts: %w", method, maxRetries, lastErr)
}

func (c *Client) fetch(ctx context.Context, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("User-Agent", "Harmoniq Playlist Generator")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
