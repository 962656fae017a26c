// Package pagecache stores fetched and processed article content per page
// URL so repeated quiz requests against the same page cost nothing upstream.
// Each page stores four documents under prefixed keys: the display title,
// the summary sentence bucket, the filtered section list, and a metadata
// record carrying the fetch timestamp.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/extract"
	"github.com/wikiquiz/wikiquiz/internal/storage"
	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

// DefaultTTL is how long a cached page stays usable before a refetch.
const DefaultTTL = time.Hour

const (
	titleKeyPrefix    = "title_"
	summaryKeyPrefix  = "summary_"
	sectionsKeyPrefix = "sections_"
	metadataKeyPrefix = "metadata_"
)

// Metadata records when a page's documents were written.
type Metadata struct {
	FetchedAt time.Time `json:"fetchedAt"`
}

// Record is a fully assembled cached page.
type Record struct {
	Title     string         `json:"title"`
	Summary   extract.Bucket `json:"summary"`
	Sections  []wiki.Section `json:"sections"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// Cache reads and writes page records against a key-value backend.
type Cache struct {
	kv     storage.KV
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New returns a cache over kv with the default TTL.
func New(kv storage.KV, logger *slog.Logger) *Cache {
	return &Cache{
		kv:     kv,
		ttl:    DefaultTTL,
		logger: logger,
		now:    time.Now,
	}
}

// SetTTL overrides the freshness window. Intended for tests and config.
func (c *Cache) SetTTL(ttl time.Duration) { c.ttl = ttl }

// SetClock overrides the cache's time source for tests.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// CanonicalURL reduces a page URL to its cache identity: scheme and host
// lowercased, fragment dropped. Two links to the same article that differ
// only in a #section anchor share one cache entry.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}

// Get assembles the cached record for a URL. It returns storage.ErrNotFound
// when any required document is missing or expired, so callers treat a
// partially written page the same as an absent one.
func (c *Cache) Get(ctx context.Context, pageURL string) (*Record, error) {
	key := CanonicalURL(pageURL)

	var rec Record
	if err := storage.GetJSON(ctx, c.kv, titleKeyPrefix+key, &rec.Title); err != nil {
		return nil, err
	}
	if err := storage.GetJSON(ctx, c.kv, summaryKeyPrefix+key, &rec.Summary); err != nil {
		return nil, err
	}
	if err := storage.GetJSON(ctx, c.kv, sectionsKeyPrefix+key, &rec.Sections); err != nil {
		return nil, err
	}
	var meta Metadata
	if err := storage.GetJSON(ctx, c.kv, metadataKeyPrefix+key, &meta); err != nil {
		return nil, err
	}
	rec.FetchedAt = meta.FetchedAt

	if !c.fresh(&rec) {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

// Set writes all four documents for a URL. Metadata is written last so a
// crash mid-write leaves a page that Get reports as absent.
func (c *Cache) Set(ctx context.Context, pageURL string, rec *Record) error {
	key := CanonicalURL(pageURL)
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = c.now()
	}

	writes := []struct {
		key   string
		value any
	}{
		{titleKeyPrefix + key, rec.Title},
		{summaryKeyPrefix + key, rec.Summary},
		{sectionsKeyPrefix + key, rec.Sections},
		{metadataKeyPrefix + key, Metadata{FetchedAt: rec.FetchedAt}},
	}
	for _, w := range writes {
		if err := storage.SetJSON(ctx, c.kv, w.key, w.value, c.ttl); err != nil {
			return fmt.Errorf("failed to cache %s: %w", w.key, err)
		}
	}
	c.logger.Debug("cached page",
		"url", key,
		"title", rec.Title,
		"summary_sentences", len(rec.Summary),
		"sections", len(rec.Sections))
	return nil
}

// Delete removes every document for a URL. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, pageURL string) error {
	key := CanonicalURL(pageURL)
	for _, prefix := range []string{titleKeyPrefix, summaryKeyPrefix, sectionsKeyPrefix, metadataKeyPrefix} {
		if err := c.kv.Delete(ctx, prefix+key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}

// fresh reports whether a record is complete and inside the TTL window.
// The TTL check is enforced here as well as by the backend: the in-process
// backend expires keys itself, but a backend configured without expiry (or
// a clock rollback) must not serve stale content.
func (c *Cache) fresh(rec *Record) bool {
	if strings.TrimSpace(rec.Title) == "" {
		return false
	}
	if len(rec.Sections) == 0 {
		return false
	}
	if rec.FetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(rec.FetchedAt) < c.ttl
}
