package pages

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/pagecache"
	"github.com/wikiquiz/wikiquiz/internal/storage"
	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

const summaryJSON = `{
	"title": "Rome",
	"description": "Capital of Italy",
	"extract": "Rome is the capital city of Italy. It is in the Lazio region. Rome was founded in 753 BC. The city has a long history. It hosts the Vatican. Millions visit every year. The Tiber river crosses it."
}`

const sectionsJSON = `{
	"parse": {
		"sections": [
			{"anchor": "History", "index": "1", "level": "2", "line": "History", "number": "1", "toclevel": 1},
			{"anchor": "Geography", "index": "2", "level": "2", "line": "Geography", "number": "2", "toclevel": 1},
			{"anchor": "References", "index": "3", "level": "2", "line": "References", "number": "3", "toclevel": 1}
		]
	}
}`

const sectionTextJSON = `{
	"parse": {
		"text": {
			"*": "<h2>History</h2><p>The city was founded in 753 BC. It grew into a republic. The republic became an empire. The empire fell in 476 AD. Many ruins survive today. Tourists visit the Forum. The Colosseum still stands.</p>"
		}
	}
}`

func newTestService(t *testing.T, fetches *atomic.Int64) *Service {
	return newSlowTestService(t, fetches, 0)
}

// newSlowTestService delays every upstream response, giving concurrent
// callers time to pile up on one in-flight populate.
func newSlowTestService(t *testing.T, fetches *atomic.Int64, delay time.Duration) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches != nil {
			fetches.Add(1)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/"):
			w.Write([]byte(summaryJSON))
		case r.URL.Query().Get("prop") == "sections":
			w.Write([]byte(sectionsJSON))
		case r.URL.Query().Get("prop") == "text":
			w.Write([]byte(sectionTextJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := wiki.NewClient(wiki.ClientConfig{
		BaseURL:     srv.URL,
		MinInterval: time.Millisecond,
	})
	cache := pagecache.New(storage.NewMemory(), slog.Default())
	return NewService(client, cache, slog.Default())
}

func TestIsArticleURL(t *testing.T) {
	yes := []string{
		"https://en.wikipedia.org/wiki/Rome",
		"https://de.wikipedia.org/wiki/Rom",
		"https://en.wikipedia.org/wiki/Solar_System#Formation",
	}
	for _, u := range yes {
		if !IsArticleURL(u) {
			t.Errorf("IsArticleURL(%q) = false, want true", u)
		}
	}

	no := []string{
		"https://en.wikipedia.org/wiki/Main_Page",
		"https://en.wikipedia.org/wiki/Special:Random",
		"https://en.wikipedia.org/wiki/File:Sun.jpg",
		"https://en.wikipedia.org/wiki/Category:Planets",
		"https://en.wikipedia.org/",
		"https://example.com/wiki/Rome",
		"not a url at all ://",
	}
	for _, u := range no {
		if IsArticleURL(u) {
			t.Errorf("IsArticleURL(%q) = true, want false", u)
		}
	}
}

func TestTitleFromURL(t *testing.T) {
	got, err := TitleFromURL("https://en.wikipedia.org/wiki/Solar_System")
	if err != nil || got != "Solar_System" {
		t.Errorf("TitleFromURL = %q, %v", got, err)
	}
	if got, err := TitleFromURL("https://en.wikipedia.org/wiki/S%C3%A3o_Paulo"); err != nil || got != "São_Paulo" {
		t.Errorf("TitleFromURL = %q, %v", got, err)
	}
	if _, err := TitleFromURL("https://en.wikipedia.org/"); err == nil {
		t.Error("expected error for non-article url")
	}
}

func TestService_EnsurePage(t *testing.T) {
	var fetches atomic.Int64
	svc := newTestService(t, &fetches)
	ctx := context.Background()

	rec, err := svc.EnsurePage(ctx, "https://en.wikipedia.org/wiki/Rome")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "Rome" {
		t.Errorf("title = %q", rec.Title)
	}
	if len(rec.Summary) != 7 {
		t.Errorf("summary has %d sentences, want 7", len(rec.Summary))
	}
	// References is meta and must be filtered out.
	if len(rec.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(rec.Sections))
	}
	for _, sec := range rec.Sections {
		if sec.Line == "References" {
			t.Error("meta section survived filtering")
		}
	}

	// Second call hits the cache, no new upstream requests.
	before := fetches.Load()
	if _, err := svc.EnsurePage(ctx, "https://en.wikipedia.org/wiki/Rome"); err != nil {
		t.Fatal(err)
	}
	if fetches.Load() != before {
		t.Errorf("cache hit still fetched upstream (%d -> %d)", before, fetches.Load())
	}
}

func TestService_EnsurePage_ConcurrentCallsShareFetch(t *testing.T) {
	var fetches atomic.Int64
	svc := newSlowTestService(t, &fetches, 100*time.Millisecond)
	ctx := context.Background()
	const pageURL = "https://en.wikipedia.org/wiki/Rome"

	var wg sync.WaitGroup
	recs := make([]*pagecache.Record, 2)
	errs := make([]error, 2)
	for i := range recs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i], errs[i] = svc.EnsurePage(ctx, pageURL)
		}(i)
	}
	wg.Wait()

	for i := range recs {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if recs[i].Title != "Rome" {
			t.Errorf("call %d: title = %q", i, recs[i].Title)
		}
	}
	// One populate needs exactly two upstream requests, summary and
	// section list. Concurrent misses must share them, never double them.
	if got := fetches.Load(); got != 2 {
		t.Errorf("upstream saw %d fetches, want 2", got)
	}
}

func TestService_EnsurePage_JoinsInFlightPopulate(t *testing.T) {
	var fetches atomic.Int64
	svc := newSlowTestService(t, &fetches, 100*time.Millisecond)
	coord := NewCoordinator(svc, slog.Default())
	ctx := context.Background()
	const pageURL = "https://en.wikipedia.org/wiki/Rome"

	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.HandlePageUpdate(ctx, pageURL)
	}()
	time.Sleep(20 * time.Millisecond)

	// While the first populate runs the coordinator drops the repeat
	// trigger, and the follow-up read lands directly on EnsurePage. It
	// must wait on the in-flight fetch pair instead of starting its own.
	if coord.HandlePageUpdate(ctx, pageURL) {
		t.Error("trigger should be dropped while a populate is in flight")
	}
	rec, err := svc.EnsurePage(ctx, pageURL)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "Rome" {
		t.Errorf("title = %q", rec.Title)
	}
	<-done

	if got := fetches.Load(); got != 2 {
		t.Errorf("upstream saw %d fetches, want 2", got)
	}
}

func TestService_SummaryBucket(t *testing.T) {
	svc := newTestService(t, nil)
	topic, bucket, err := svc.SummaryBucket(context.Background(), "https://en.wikipedia.org/wiki/Rome")
	if err != nil {
		t.Fatal(err)
	}
	if topic != "Rome" {
		t.Errorf("topic = %q", topic)
	}
	if !bucket.Sufficient(7) {
		t.Errorf("bucket has %d sentences", len(bucket))
	}
}

func TestService_SectionBucket(t *testing.T) {
	svc := newTestService(t, nil)
	topic, sectionTitle, bucket, err := svc.SectionBucket(context.Background(), "https://en.wikipedia.org/wiki/Rome", 1)
	if err != nil {
		t.Fatal(err)
	}
	if topic != "Rome" || sectionTitle != "History" {
		t.Errorf("topic/section = %q/%q", topic, sectionTitle)
	}
	if len(bucket) != 7 {
		t.Errorf("bucket has %d sentences, want 7", len(bucket))
	}
	for _, s := range bucket {
		if strings.Contains(s, "History") {
			t.Errorf("section heading leaked into prose: %q", s)
		}
	}
}

func TestService_SectionBucket_UnknownIndex(t *testing.T) {
	svc := newTestService(t, nil)
	_, _, _, err := svc.SectionBucket(context.Background(), "https://en.wikipedia.org/wiki/Rome", 99)
	if errcode.CodeOf(err) != errcode.WikiSectionNotFound {
		t.Errorf("code = %s, want %s", errcode.CodeOf(err), errcode.WikiSectionNotFound)
	}
}

func TestCoordinator_DropsDuplicateAndNonArticle(t *testing.T) {
	svc := newTestService(t, nil)
	coord := NewCoordinator(svc, slog.Default())
	ctx := context.Background()

	if coord.HandlePageUpdate(ctx, "https://en.wikipedia.org/wiki/Main_Page") {
		t.Error("main page should be skipped")
	}
	if !coord.HandlePageUpdate(ctx, "https://en.wikipedia.org/wiki/Rome") {
		t.Error("first article update should populate")
	}
	if coord.HandlePageUpdate(ctx, "https://en.wikipedia.org/wiki/Rome") {
		t.Error("repeat of the current url should be dropped")
	}
	if coord.CurrentURL() != "https://en.wikipedia.org/wiki/Rome" {
		t.Errorf("current url = %q", coord.CurrentURL())
	}
}
