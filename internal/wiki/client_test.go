package wiki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:     serverURL,
		MinInterval: time.Millisecond,
		RetryBase:   time.Millisecond,
	})
}

func TestClient_Summary(t *testing.T) {
	var gotUA, gotAPIUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest_v1/page/summary/Solar_System" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotUA = r.Header.Get("User-Agent")
		gotAPIUA = r.Header.Get("Api-User-Agent")
		json.NewEncoder(w).Encode(Summary{
			Title:       "Solar System",
			Description: "planetary system of the Sun",
			Extract:     "The Solar System is the gravitationally bound system of the Sun.",
		})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	s, err := c.Summary(context.Background(), "Solar_System")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Title != "Solar System" {
		t.Errorf("Title = %q", s.Title)
	}
	if gotUA == "" || gotUA != gotAPIUA {
		t.Errorf("identifying headers not set consistently: %q vs %q", gotUA, gotAPIUA)
	}
}

func TestClient_Sections_StringIndexes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "parse" || q.Get("prop") != "sections" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		// The parse API encodes index and level as strings.
		w.Write([]byte(`{"parse":{"title":"Go","sections":[
			{"toclevel":1,"level":"2","line":"History","number":"1","index":"1","anchor":"History"},
			{"toclevel":2,"level":"3","line":"Releases","number":"1.1","index":"2","anchor":"Releases"},
			{"toclevel":1,"level":"2","line":"Notes","number":"2","index":"T-1","anchor":"Notes"}
		]}}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	sections, err := c.Sections(context.Background(), "Go")
	if err != nil {
		t.Fatalf("Sections() error = %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("len(sections) = %d, want 3", len(sections))
	}
	if sections[0].Index != 1 || sections[1].Index != 2 {
		t.Errorf("indexes = %d, %d", sections[0].Index, sections[1].Index)
	}
	if sections[1].TocLevel != 2 {
		t.Errorf("TocLevel = %d, want 2", sections[1].TocLevel)
	}
	if sections[2].Index != 1 { // "T-1" transcluded index
		t.Errorf("transcluded index = %d, want 1", sections[2].Index)
	}
}

func TestClient_SectionHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("section"); got != "3" {
			t.Errorf("section = %q, want 3", got)
		}
		w.Write([]byte(`{"parse":{"title":"Go","text":{"*":"<p>Section body.</p>"}}}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	html, err := c.SectionHTML(context.Background(), "Go", 3)
	if err != nil {
		t.Fatalf("SectionHTML() error = %v", err)
	}
	if html != "<p>Section body.</p>" {
		t.Errorf("html = %q", html)
	}
}

func TestClient_Retries5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Summary{Title: "Go"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	s, err := c.Summary(context.Background(), "Go")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Title != "Go" {
		t.Errorf("Title = %q", s.Title)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestClient_No4xxRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.Summary(context.Background(), "No_Such_Page")
	if err == nil {
		t.Fatal("Summary() error = nil, want error")
	}
	if got := errcode.CodeOf(err); got != errcode.WikiHTTP4xx {
		t.Errorf("code = %s, want WIKI_HTTP_4XX", got)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry on 4xx)", got)
	}
}

func TestClient_RetryExhaustion(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.Summary(context.Background(), "Go")
	if err == nil {
		t.Fatal("Summary() error = nil, want error")
	}
	if got := errcode.CodeOf(err); got != errcode.WikiHTTP5xx {
		t.Errorf("code = %s, want WIKI_HTTP_5XX", got)
	}
	// Initial attempt plus two retries.
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestClient_MinSpacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Summary{Title: "Go"})
	}))
	defer server.Close()

	c := NewClient(ClientConfig{
		BaseURL:     server.URL,
		MinInterval: 50 * time.Millisecond,
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Summary(context.Background(), "Go"); err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("3 requests completed in %v, spacing not enforced", elapsed)
	}
	if got := c.RecentRequests(); got != 3 {
		t.Errorf("RecentRequests() = %d, want 3", got)
	}
}
