// Package wiki is the rate-limited client for the encyclopedia's public
// APIs: the REST summary endpoint and the action parse endpoints for section
// listings and per-section HTML.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
)

const (
	// DefaultBaseURL is the encyclopedia host all endpoints hang off.
	DefaultBaseURL = "https://en.wikipedia.org"

	// DefaultUserAgent identifies this client to the upstream, per their
	// API etiquette. Sent as both User-Agent and Api-User-Agent.
	DefaultUserAgent = "wikiquiz/1.0 (https://github.com/wikiquiz/wikiquiz)"

	defaultTimeout     = 5 * time.Second
	defaultMinInterval = time.Second
	defaultRetryBase   = 250 * time.Millisecond
	defaultMaxRetries  = 2 // additional attempts after the first

	// historyWindow bounds the request-timestamp history used to enforce
	// minimum spacing.
	historyWindow = 60 * time.Second
)

// ClientConfig holds configuration for the upstream client.
type ClientConfig struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration // per-attempt hard abort
	MinInterval time.Duration // enforced spacing between outbound calls
	RetryBase   time.Duration // backoff base, doubled per attempt
	MaxRetries  uint          // additional attempts for 5xx/network failures
	Logger      *slog.Logger
}

// Client talks to the encyclopedia APIs with global request spacing and
// bounded retry. Safe for concurrent use; spacing is enforced across all
// callers of one Client.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	timeout     time.Duration
	minInterval time.Duration
	retryBase   time.Duration
	maxRetries  uint
	logger      *slog.Logger

	mu      sync.Mutex
	history []time.Time
	now     func() time.Time
}

// NewClient creates a client with defaults filled in.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.RetryBase == 0 {
		cfg.RetryBase = defaultRetryBase
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		httpClient:  &http.Client{},
		timeout:     cfg.Timeout,
		minInterval: cfg.MinInterval,
		retryBase:   cfg.RetryBase,
		maxRetries:  cfg.MaxRetries,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Summary fetches the lead-section summary for an article title.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	endpoint := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(title)

	var s Summary
	if err := c.getJSON(ctx, endpoint, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Sections fetches the flat section listing for an article title, in
// document order as delivered by the source.
func (c *Client) Sections(ctx context.Context, title string) ([]Section, error) {
	endpoint := c.parseURL(title, url.Values{"prop": {"sections"}})

	var resp parseSectionsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Parse.Sections, nil
}

// SectionHTML fetches the raw HTML of a single section by its index.
func (c *Client) SectionHTML(ctx context.Context, title string, index int) (string, error) {
	endpoint := c.parseURL(title, url.Values{
		"prop":    {"text"},
		"section": {fmt.Sprintf("%d", index)},
	})

	var resp parseTextResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}
	return resp.Parse.Text.Content, nil
}

// parseURL builds an action-API URL for the given title and extra params.
func (c *Client) parseURL(title string, extra url.Values) string {
	q := url.Values{
		"origin": {"*"},
		"format": {"json"},
		"action": {"parse"},
		"page":   {title},
	}
	for k, vs := range extra {
		q[k] = vs
	}
	return c.baseURL + "/w/api.php?" + q.Encode()
}

// getJSON performs a spaced, retried GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.request(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errcode.Wrap(errcode.WikiInvalidHTML, false,
			fmt.Errorf("failed to decode response from %s: %w", endpoint, err))
	}
	return nil
}

// request performs a GET against endpoint, enforcing minimum spacing and
// retrying 5xx/network failures with exponential backoff. 4xx responses are
// returned immediately; client error is not transient.
func (c *Client) request(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			if err := c.waitForSlot(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", c.userAgent)
			req.Header.Set("Api-User-Agent", c.userAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() != nil {
					return errcode.Wrap(errcode.WikiTimeout, true, err)
				}
				return errcode.Wrap(errcode.WikiHTTP5xx, true, err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return errcode.Wrap(errcode.WikiHTTP5xx, true, err)
			}

			switch {
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return retry.Unrecoverable(errcode.Wrap(errcode.WikiHTTP4xx, false,
					fmt.Errorf("upstream status %d for %s", resp.StatusCode, endpoint)))
			case resp.StatusCode >= 500:
				return errcode.Wrap(errcode.WikiHTTP5xx, true,
					fmt.Errorf("upstream status %d for %s", resp.StatusCode, endpoint))
			}

			body = data
			return nil
		},
		retry.Attempts(1+c.maxRetries),
		retry.Delay(c.retryBase),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying upstream request", "attempt", n+1, "url", endpoint, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// waitForSlot blocks until the minimum interval since the last request has
// elapsed, then records this request in the history window.
func (c *Client) waitForSlot(ctx context.Context) error {
	for {
		c.mu.Lock()
		now := c.now()
		c.prune(now)

		var wait time.Duration
		if n := len(c.history); n > 0 {
			if since := now.Sub(c.history[n-1]); since < c.minInterval {
				wait = c.minInterval - since
			}
		}
		if wait == 0 {
			c.history = append(c.history, now)
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// prune drops history entries older than the window. Must hold mu.
func (c *Client) prune(now time.Time) {
	cutoff := now.Add(-historyWindow)
	i := 0
	for i < len(c.history) && c.history[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		c.history = append(c.history[:0], c.history[i:]...)
	}
}

// RecentRequests reports how many requests fall inside the history window.
func (c *Client) RecentRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	return len(c.history)
}
