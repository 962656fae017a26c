package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/wikiquiz/wikiquiz/internal/providers"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Defaults.Primary != "gemini" || cfg.Defaults.Secondary != "cohere" {
		t.Errorf("defaults = %+v, want gemini/cohere", cfg.Defaults)
	}
	if _, ok := cfg.Providers["gemini"]; !ok {
		t.Error("gemini provider missing from defaults")
	}
	if _, ok := cfg.Providers["cohere"]; !ok {
		t.Error("cohere provider missing from defaults")
	}
	if cfg.Storage.Backend != StorageBackendMemory {
		t.Errorf("storage backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Wiki.TimeoutSeconds != 5 {
		t.Errorf("wiki timeout = %d, want 5", cfg.Wiki.TimeoutSeconds)
	}
}

func TestResolveEnvVars(t *testing.T) {
	os.Setenv("WIKIQUIZ_TEST_SECRET", "sekrit")
	defer os.Unsetenv("WIKIQUIZ_TEST_SECRET")

	tests := []struct {
		in   string
		want string
	}{
		{"${WIKIQUIZ_TEST_SECRET}", "sekrit"},
		{"prefix-${WIKIQUIZ_TEST_SECRET}", "prefix-sekrit"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${WIKIQUIZ_TEST_UNSET_VAR}", ""},
	}

	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToRegistryConfig(t *testing.T) {
	os.Setenv("WIKIQUIZ_TEST_KEY", "abc123")
	defer os.Unsetenv("WIKIQUIZ_TEST_KEY")

	cfg := &Config{
		Providers: map[string]providers.Config{
			"cohere": {
				Type:   providers.CohereName,
				APIKey: "${WIKIQUIZ_TEST_KEY}",
			},
		},
	}

	out := cfg.ToRegistryConfig()
	if out["cohere"].APIKey != "abc123" {
		t.Errorf("APIKey = %q, want abc123", out["cohere"].APIKey)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid yaml: %v", err)
	}
	if cfg.Defaults.Primary != "gemini" {
		t.Errorf("round-tripped primary = %q, want gemini", cfg.Defaults.Primary)
	}
	if cfg.Providers["cohere"].APIKey != "${COHERE_API_KEY}" {
		t.Errorf("written api_key = %q, want unresolved env reference", cfg.Providers["cohere"].APIKey)
	}
}
