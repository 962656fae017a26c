// Package providers holds the LLM backends used for quiz generation and
// the registry that selects between them. Each provider adapts one upstream
// API to a common text-in, text-out call; response parsing and repair live
// with the caller, which knows what shape it asked for.
package providers

import (
	"context"
	"time"
)

// Provider is a single LLM backend.
type Provider interface {
	// Name returns the provider identifier (e.g. "gemini", "cohere").
	Name() string

	// Generate runs one completion. The returned text is the raw model
	// output; an empty completion is an error, not an empty result.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
}

// GenerateRequest is one completion request.
type GenerateRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`

	// Model overrides the provider's configured default when set.
	Model string `json:"model,omitempty"`

	// Generation parameters. Zero values mean provider defaults.
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`

	// ResponseMIMEType asks for structured output where the upstream
	// supports it ("application/json").
	ResponseMIMEType string `json:"response_mime_type,omitempty"`

	// RequestID correlates logs across retries and fallback hops.
	RequestID string `json:"-"`
}

// GenerateResult is the outcome of one completion.
type GenerateResult struct {
	Text      string `json:"text"`
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`

	ExecutionTime time.Duration `json:"execution_time"`
}

// Config describes one provider instance. Type selects the adapter;
// the remaining fields are interpreted per adapter.
type Config struct {
	Type            string  `mapstructure:"type" json:"type" yaml:"type"`
	APIKey          string  `mapstructure:"api_key" json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL         string  `mapstructure:"base_url" json:"base_url,omitempty" yaml:"base_url,omitempty"`
	ProxyToken      string  `mapstructure:"proxy_token" json:"proxy_token,omitempty" yaml:"proxy_token,omitempty"`
	Model           string  `mapstructure:"model" json:"model,omitempty" yaml:"model,omitempty"`
	Temperature     float64 `mapstructure:"temperature" json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
	RequestsPerMin  int     `mapstructure:"requests_per_minute" json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Timeout returns the configured request timeout or the default.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}
