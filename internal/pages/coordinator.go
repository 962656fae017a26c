package pages

import (
	"context"
	"log/slog"
	"sync"
)

// Coordinator serializes page-update work. Only one populate runs at a
// time; a trigger for the URL currently being populated, or for the URL
// already current, is dropped rather than queued, because only the most
// recently activated page matters.
type Coordinator struct {
	service *Service
	logger  *slog.Logger

	mu       sync.Mutex
	lastURL  string
	inFlight bool
}

// NewCoordinator wraps a Service.
func NewCoordinator(service *Service, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{service: service, logger: logger}
}

// HandlePageUpdate reacts to a page navigation. Non-article URLs and
// repeats of the current URL are ignored. Returns true when a populate was
// started (and completed), false when the trigger was dropped.
func (c *Coordinator) HandlePageUpdate(ctx context.Context, pageURL string) bool {
	if !IsArticleURL(pageURL) {
		return false
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("page update dropped, populate in flight", "url", pageURL)
		return false
	}
	if pageURL == c.lastURL {
		c.mu.Unlock()
		return false
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	if _, err := c.service.EnsurePage(ctx, pageURL); err != nil {
		c.logger.Warn("page populate failed", "url", pageURL, "error", err)
		return false
	}

	c.mu.Lock()
	c.lastURL = pageURL
	c.mu.Unlock()
	return true
}

// CurrentURL returns the last successfully populated URL.
func (c *Coordinator) CurrentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastURL
}
