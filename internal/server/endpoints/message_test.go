package endpoints

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/calllog"
	"github.com/wikiquiz/wikiquiz/internal/pagecache"
	"github.com/wikiquiz/wikiquiz/internal/pages"
	"github.com/wikiquiz/wikiquiz/internal/protocol"
	"github.com/wikiquiz/wikiquiz/internal/providers"
	"github.com/wikiquiz/wikiquiz/internal/quiz"
	"github.com/wikiquiz/wikiquiz/internal/settings"
	"github.com/wikiquiz/wikiquiz/internal/storage"
	"github.com/wikiquiz/wikiquiz/internal/svcctx"
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

const articleURL = "https://en.wikipedia.org/wiki/Rome"

func quizJSON(n int) string {
	q := `{"question":"What crosses Rome?","options":["Tiber","Seine","Danube","Po"],"answer":0,"difficulty":"medium","explanation":"The Tiber river crosses the city."}`
	parts := make([]string, n)
	for i := range parts {
		parts[i] = q
	}
	return `{"questions":[` + strings.Join(parts, ",") + `]}`
}

func newTestHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

	logger := slog.Default()
	client := wiki.NewClient(wiki.ClientConfig{
		BaseURL:     srv.URL,
		MinInterval: time.Millisecond,
	})
	cache := pagecache.New(storage.NewMemory(), logger)
	pageSvc := pages.NewService(client, cache, logger)

	registry := providers.NewRegistry(logger)
	registry.Register("mock", &providers.MockProvider{ResponseText: quizJSON(4)})
	registry.SetDefaults("mock", "")

	recorder := calllog.NewRecorder(storage.NewMemory(), logger)
	services := &svcctx.Services{
		Cache:       cache,
		Pages:       pageSvc,
		Coordinator: pages.NewCoordinator(pageSvc, logger),
		Settings:    settings.NewStore(storage.NewMemory(), logger),
		Registry:    registry,
		Generator:   quiz.NewGenerator(registry, recorder, logger),
		Tracker:     quiz.NewTracker(),
		CallLog:     recorder,
		Logger:      logger,
	}

	_, _, handler := (&MessageEndpoint{}).Route()
	return func(w http.ResponseWriter, r *http.Request) {
		handler(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	}
}

func send(t *testing.T, handler http.HandlerFunc, kind string, payload any) map[string]any {
	t.Helper()
	req := protocol.Request{Type: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		req.Payload = raw
	}
	body, _ := json.Marshal(req)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("POST", "/api/message", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestUnknownKindGetsInvalidCommand(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, "launchMissiles", nil)
	if out["success"] != false {
		t.Error("unknown kind should not succeed")
	}
	if out["error"] != "invalid command" {
		t.Errorf("error = %v, want %q", out["error"], "invalid command")
	}
}

func TestInitialization(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, protocol.KindInitialization, nil)
	if out["success"] != true {
		t.Errorf("response = %v, want success", out)
	}
}

func TestGetData(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, protocol.KindGetData, protocol.GetDataPayload{URL: articleURL})
	if out["success"] != true {
		t.Fatalf("response = %v", out)
	}
	if out["title"] != "Rome" {
		t.Errorf("title = %v, want Rome", out["title"])
	}
	summary, _ := out["summary"].([]any)
	if len(summary) != 7 {
		t.Errorf("summary sentences = %d, want 7", len(summary))
	}
	// References is a meta section and never reaches the client.
	sections, _ := out["sections"].([]any)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	first, _ := sections[0].(map[string]any)
	if first["line"] != "History" {
		t.Errorf("first section = %v, want History", first["line"])
	}
}

func TestGetDataRejectsNonArticle(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, protocol.KindGetData, protocol.GetDataPayload{
		URL: "https://en.wikipedia.org/wiki/Main_Page",
	})
	if out["success"] != false {
		t.Fatalf("response = %v, want failure", out)
	}
	if out["error"] == nil {
		t.Error("expected an error body")
	}
}

func TestGetQuizContentSummary(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, protocol.KindGetQuizContent, protocol.GetQuizContentPayload{
		URL:      articleURL,
		QuizType: protocol.QuizTypeSummary,
	})
	if out["success"] != true {
		t.Fatalf("response = %v", out)
	}
	if out["topic"] != "Rome" {
		t.Errorf("topic = %v, want Rome", out["topic"])
	}
	quizBody, _ := out["quiz"].(map[string]any)
	questions, _ := quizBody["questions"].([]any)
	if len(questions) != 4 {
		t.Errorf("questions = %d, want 4", len(questions))
	}
}

func TestGetQuizContentSection(t *testing.T) {
	handler := newTestHandler(t)

	idx := 1
	out := send(t, handler, protocol.KindGetQuizContent, protocol.GetQuizContentPayload{
		URL:          articleURL,
		QuizType:     protocol.QuizTypeSection,
		SectionIndex: &idx,
	})
	if out["success"] != true {
		t.Fatalf("response = %v", out)
	}
	if out["section"] != "History" {
		t.Errorf("section = %v, want History", out["section"])
	}
}

func TestGetQuizContentUnknownSection(t *testing.T) {
	handler := newTestHandler(t)

	idx := 42
	out := send(t, handler, protocol.KindGetQuizContent, protocol.GetQuizContentPayload{
		URL:          articleURL,
		QuizType:     protocol.QuizTypeSection,
		SectionIndex: &idx,
	})
	if out["success"] != false {
		t.Fatalf("response = %v, want failure", out)
	}
	errBody, _ := out["error"].(map[string]any)
	if errBody["code"] != "WIKI_SECTION_NOT_FOUND" {
		t.Errorf("code = %v, want WIKI_SECTION_NOT_FOUND", errBody["code"])
	}
	if errBody["message"] == "" {
		t.Error("catalog message missing")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, protocol.KindGetSettings, nil)
	got, _ := out["settings"].(map[string]any)
	if got["questionDifficulty"] != "medium" || got["numQuestions"] != float64(4) {
		t.Errorf("defaults = %v", got)
	}

	diff := "hard"
	n := 7
	out = send(t, handler, protocol.KindToggleSettings, protocol.ToggleSettingsPayload{
		QuestionDifficulty: &diff,
		NumQuestions:       &n,
	})
	if out["success"] != true {
		t.Fatalf("toggleSettings = %v", out)
	}

	out = send(t, handler, protocol.KindGetSettings, nil)
	got, _ = out["settings"].(map[string]any)
	if got["questionDifficulty"] != "hard" || got["numQuestions"] != float64(7) {
		t.Errorf("settings after toggle = %v", got)
	}
}

func TestToggleSettingsRejectsInvalid(t *testing.T) {
	handler := newTestHandler(t)

	diff := "impossible"
	out := send(t, handler, protocol.KindToggleSettings, protocol.ToggleSettingsPayload{
		QuestionDifficulty: &diff,
	})
	if out["success"] != false {
		t.Fatalf("response = %v, want failure", out)
	}
	errBody, _ := out["error"].(map[string]any)
	if errBody["code"] != "SETTINGS_WRITE_FAIL" {
		t.Errorf("code = %v, want SETTINGS_WRITE_FAIL", errBody["code"])
	}

	// The stored value is untouched.
	out = send(t, handler, protocol.KindGetSettings, nil)
	got, _ := out["settings"].(map[string]any)
	if got["questionDifficulty"] != "medium" {
		t.Errorf("difficulty = %v, want medium", got["questionDifficulty"])
	}
}

func TestSidebarToggle(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, protocol.KindGetSidebarState, nil)
	if out["enabled"] != false {
		t.Errorf("initial sidebar = %v, want false", out["enabled"])
	}

	out = send(t, handler, protocol.KindToggleSidebar, protocol.ToggleSidebarPayload{Enabled: true})
	if out["success"] != true || out["enabled"] != true {
		t.Errorf("toggleSidebar = %v", out)
	}

	out = send(t, handler, protocol.KindGetSidebarState, nil)
	if out["enabled"] != true {
		t.Errorf("sidebar after toggle = %v, want true", out["enabled"])
	}
}

func TestClientErrorIsAcknowledged(t *testing.T) {
	handler := newTestHandler(t)

	out := send(t, handler, protocol.KindClientError, protocol.ClientErrorPayload{
		Code:    "RENDER_FAIL",
		Message: "sidebar failed to mount",
	})
	if out["success"] != true {
		t.Errorf("response = %v, want ack", out)
	}
}
