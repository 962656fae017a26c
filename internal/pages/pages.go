// Package pages assembles quiz-ready content for one article: it drives
// the upstream fetches, runs extraction and filtering, and fills the page
// cache. It also decides which URLs are quizzable articles at all.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/extract"
	"github.com/wikiquiz/wikiquiz/internal/pagecache"
	"github.com/wikiquiz/wikiquiz/internal/storage"
	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

// skipTitles are article titles that look like articles but carry no
// quizzable prose.
var skipTitles = map[string]bool{
	"Main_Page": true,
	"Main Page": true,
}

// namespacePrefixes mark non-article pages (Special:Random, File:X.jpg).
var namespacePrefixes = []string{
	"Special:", "File:", "Talk:", "Wikipedia:", "Help:", "Category:",
	"Portal:", "Template:", "User:", "Draft:", "MediaWiki:",
}

// Service builds and serves page records.
type Service struct {
	wiki   *wiki.Client
	cache  *pagecache.Cache
	logger *slog.Logger

	// flight collapses concurrent populates of one URL into a single
	// upstream fetch pair.
	flight singleflight.Group
}

// NewService wires the upstream client and cache together.
func NewService(client *wiki.Client, cache *pagecache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{wiki: client, cache: cache, logger: logger}
}

// IsArticleURL reports whether a URL names a quizzable encyclopedia
// article: a /wiki/ path on a wikipedia host, outside the special
// namespaces, and not the main page.
func IsArticleURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if !strings.Contains(u.Host, "wikipedia.org") {
		return false
	}
	title, ok := strings.CutPrefix(u.Path, "/wiki/")
	if !ok || title == "" {
		return false
	}
	decoded, err := url.PathUnescape(title)
	if err != nil {
		decoded = title
	}
	if skipTitles[decoded] {
		return false
	}
	for _, prefix := range namespacePrefixes {
		if strings.HasPrefix(decoded, prefix) {
			return false
		}
	}
	return true
}

// TitleFromURL extracts the decoded article title from a page URL.
func TitleFromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}
	title, ok := strings.CutPrefix(u.Path, "/wiki/")
	if !ok || title == "" {
		return "", fmt.Errorf("not an article url: %s", raw)
	}
	decoded, err := url.PathUnescape(title)
	if err != nil {
		return title, nil
	}
	return decoded, nil
}

// EnsurePage returns the cached record for a URL, fetching and populating
// the cache on a miss or stale hit. Summary and section list are fetched
// concurrently; both must succeed for the page to be cached.
func (s *Service) EnsurePage(ctx context.Context, pageURL string) (*pagecache.Record, error) {
	if rec, err := s.cache.Get(ctx, pageURL); err == nil {
		return rec, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		// Cache read failures degrade to a miss and refetch.
		s.logger.Warn("page cache read failed, refetching", "url", pageURL, "error", err)
	}

	// Concurrent misses for the same URL share one populate; callers
	// that arrive while a fetch pair is in flight wait for its result
	// instead of issuing their own.
	v, err, _ := s.flight.Do(pagecache.CanonicalURL(pageURL), func() (any, error) {
		if rec, err := s.cache.Get(ctx, pageURL); err == nil {
			return rec, nil
		}
		return s.populate(ctx, pageURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*pagecache.Record), nil
}

func (s *Service) populate(ctx context.Context, pageURL string) (*pagecache.Record, error) {
	title, err := TitleFromURL(pageURL)
	if err != nil {
		return nil, errcode.Wrap(errcode.WikiHTTP4xx, false, err)
	}

	var (
		summary  *wiki.Summary
		sections []wiki.Section
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.wiki.Summary(gctx, title)
		return err
	})
	g.Go(func() error {
		var err error
		sections, err = s.wiki.Sections(gctx, title)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec := &pagecache.Record{
		Title:    summary.Title,
		Summary:  extract.SplitSentences(extract.CleanText(summary.Extract)),
		Sections: extract.FilterSections(sections),
	}
	if err := s.cache.Set(ctx, pageURL, rec); err != nil {
		// A failed cache write must not fail the request; the record is
		// already in hand.
		s.logger.Warn("failed to cache page", "url", pageURL, "error", err)
	}

	s.logger.Info("page populated",
		"url", pageURL,
		"title", rec.Title,
		"summary_sentences", len(rec.Summary),
		"sections", len(rec.Sections))
	return rec, nil
}

// SummaryBucket returns the article title and the lead-section sentence
// bucket for a page.
func (s *Service) SummaryBucket(ctx context.Context, pageURL string) (string, extract.Bucket, error) {
	rec, err := s.EnsurePage(ctx, pageURL)
	if err != nil {
		return "", nil, err
	}
	return rec.Title, rec.Summary, nil
}

// SectionBucket fetches one section's HTML, recovers the section's own
// prose span, and returns it as a sentence bucket along with the article
// title and the section's display heading.
func (s *Service) SectionBucket(ctx context.Context, pageURL string, sectionIndex int) (string, string, extract.Bucket, error) {
	rec, err := s.EnsurePage(ctx, pageURL)
	if err != nil {
		return "", "", nil, err
	}

	var sectionTitle string
	for _, sec := range rec.Sections {
		if sec.Index == sectionIndex {
			sectionTitle = strings.TrimSpace(sec.Line)
			break
		}
	}
	if sectionTitle == "" {
		return "", "", nil, errcode.New(errcode.WikiSectionNotFound, false)
	}

	title, err := TitleFromURL(pageURL)
	if err != nil {
		return "", "", nil, errcode.Wrap(errcode.WikiHTTP4xx, false, err)
	}

	rawHTML, err := s.wiki.SectionHTML(ctx, title, sectionIndex)
	if err != nil {
		return "", "", nil, err
	}

	cleaned := extract.Normalize(rawHTML)
	prose, err := extract.SectionText(cleaned, sectionIndex, rec.Sections)
	if err != nil {
		return "", "", nil, err
	}

	return rec.Title, sectionTitle, extract.SplitSentences(prose), nil
}

// SectionTree returns the nested table of contents for a page.
func (s *Service) SectionTree(ctx context.Context, pageURL string) (string, []*extract.Node, error) {
	rec, err := s.EnsurePage(ctx, pageURL)
	if err != nil {
		return "", nil, err
	}
	return rec.Title, extract.BuildTree(rec.Sections), nil
}
