// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/harmoniq-app/harmoniq/internal/config"
	"github.com/harmoniq-app/harmoniq/internal/logging"
	"github.com/harmoniq-app/harmoniq/internal/metrics"
)

// Client handles communication with the Plex Media Server API.
//
// DETERMINISM NOTE: the circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. Tests should exercise the
// underlying request path, not the breaker timing.
type Client struct {
	baseURL      string
	token        string
	musicSection string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[*http.Response]

	retryAttempts int
	retryDelay    time.Duration

	mu         sync.Mutex
	sectionKey string // resolved music section key, cached after discovery
}

// NewClient creates an authenticated Plex API client. The circuit breaker
// opens after a 60% failure rate over at least 10 requests and probes
// recovery after 2 minutes.
func NewClient(cfg config.PlexConfig) *Client {
	cbName := "plex-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Client{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		token:         cfg.Token,
		musicSection:  cfg.MusicSection,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		breaker:       breaker,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

// requestConfig holds configuration for building API requests.
type requestConfig struct {
	method   string
	path     string
	query    url.Values
	expectOK bool // also accepts 201 Created and 204 No Content when false
}

// doRequest executes a Plex API request and decodes the JSON response into
// result when non-nil.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, cfg.path)

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	endpoint := endpointLabel(cfg.path)
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.doRequestWithRateLimit(req)
	})
	metrics.PlexRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.PlexRequestsTotal.WithLabelValues(endpoint, "rejected").Inc()
			logging.Warn().Err(err).Str("endpoint", endpoint).Msg("plex request rejected by circuit breaker")
		} else {
			metrics.PlexRequestsTotal.WithLabelValues(endpoint, "failure").Inc()
		}
		return err
	}
	defer resp.Body.Close()

	if cfg.expectOK && resp.StatusCode != http.StatusOK {
		metrics.PlexRequestsTotal.WithLabelValues(endpoint, "failure").Inc()
		return fmt.Errorf("plex %s %s: unexpected status %d %s", cfg.method, cfg.path, resp.StatusCode, resp.Status)
	}
	if !cfg.expectOK && resp.StatusCode >= http.StatusMultipleChoices {
		metrics.PlexRequestsTotal.WithLabelValues(endpoint, "failure").Inc()
		return fmt.Errorf("plex %s %s: unexpected status %d %s", cfg.method, cfg.path, resp.StatusCode, resp.Status)
	}

	metrics.PlexRequestsTotal.WithLabelValues(endpoint, "success").Inc()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doJSONRequest is a convenience wrapper for GET requests expecting 200.
func (c *Client) doJSONRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     path,
		query:    query,
		expectOK: true,
	}, result)
}

// doRequestWithRateLimit executes a request with automatic retry on HTTP
// 429, honoring the Retry-After header (RFC 6585) when present. Server
// errors (5xx) are returned as errors so the circuit breaker counts them.
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	maxRetries := c.retryAttempts
	baseDelay := c.retryDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("plex server error: %d %s", resp.StatusCode, resp.Status)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		resp.Body.Close()
		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				retryDelay = seconds
			}
		}
		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Msg("plex rate limited, retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}
}

// Identity fetches the server's machine identifier, needed for playlist
// creation URIs.
func (c *Client) Identity(ctx context.Context) (string, error) {
	var resp identityResponse
	if err := c.doJSONRequest(ctx, "/identity", nil, &resp); err != nil {
		return "", fmt.Errorf("fetch identity: %w", err)
	}
	if resp.MediaContainer.MachineIdentifier == "" {
		return "", fmt.Errorf("plex identity response has no machine identifier")
	}
	return resp.MediaContainer.MachineIdentifier, nil
}

// Ping verifies connectivity and authentication.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Identity(ctx)
	return err
}

// endpointLabel collapses request paths into low-cardinality metric labels.
func endpointLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/library/sections"):
		return "library"
	case strings.HasPrefix(path, "/library/metadata"):
		return "metadata"
	case strings.HasPrefix(path, "/status/sessions/history"):
		return "history"
	case strings.HasPrefix(path, "/playlists"):
		return "playlists"
	case strings.HasPrefix(path, "/identity"):
		return "identity"
	default:
		return "other"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
