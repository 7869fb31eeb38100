// Package backend is the JSON client for the dashboard backend: funding-rate
// history, liquidation zones, depth snapshots, price alerts, AI signals and
// journal entries. Each call is a simple request/response contract; absence
// or error degrades only the overlay that asked.
//
// Unlike the feed adapter, requests here go through a small resilient fetch
// wrapper with bounded retries — the general-purpose retry policy the rest of
// the system leans on.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRetries = 3
	retryBaseDelay = 300 * time.Millisecond
)

// Client talks to the dashboard backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
	retries int
}

// NewClient creates a backend client. A nil logger falls back to slog.Default.
func NewClient(baseURL string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
		retries: defaultRetries,
	}
}

// getJSON is the resilient fetch wrapper: up to retries attempts with linear
// backoff, decoding the response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseDelay * time.Duration(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("backend: build request %s: %w", path, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Debug("backend request failed, retrying", "path", path, "attempt", attempt, "err", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, body)
			// 4xx will not improve on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return fmt.Errorf("backend: %s: %w", path, lastErr)
			}
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("backend: decode %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("backend: %s after %d attempts: %w", path, c.retries, lastErr)
}
