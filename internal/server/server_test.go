package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/config"
)

func newTestManager(t *testing.T) *config.Manager {
	t.Helper()
	cm, err := config.NewManager("")
	if err != nil {
		t.Fatalf("config.NewManager: %v", err)
	}
	return cm
}

func TestNewRequiresConfigManager(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New without config manager should fail")
	}
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{ConfigManager: newTestManager(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", s.Addr())
	}
	if s.IsRunning() {
		t.Error("server should not be running before Start")
	}
	if !s.Registry().Has("gemini") || !s.Registry().Has("cohere") {
		t.Errorf("registry = %v, want default providers", s.Registry().List())
	}
}

func TestRequireInitBeforeStart(t *testing.T) {
	s, err := New(Config{ConfigManager: newTestManager(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/message", strings.NewReader(`{"type":"initialization"}`))
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before Start = %d, want 503", rec.Code)
	}
}

func TestHealthDoesNotRequireInit(t *testing.T) {
	s, err := New(Config{ConfigManager: newTestManager(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s, err := New(Config{
		Port:          "0",
		ConfigManager: newTestManager(t),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	// Give the listener a moment, then trigger shutdown.
	time.Sleep(50 * time.Millisecond)
	if !s.IsRunning() {
		t.Error("server should report running after Start")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if s.IsRunning() {
		t.Error("server should not report running after shutdown")
	}
}
