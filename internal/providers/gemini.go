package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
)

const (
	GeminiName = "gemini"

	geminiDefaultModel       = "gemini-2.5-flash"
	geminiDefaultTemperature = 0.395
	geminiGeneratePath       = "/api/gemini/generate"
)

// GeminiClient talks to the Gemini forwarder, a thin proxy that holds the
// real API key server-side. Callers authenticate to the forwarder with a
// proxy token carried in the X-Proxy-Token header.
type GeminiClient struct {
	baseURL     string
	proxyToken  string
	model       string
	temperature float64
	limiter     *RateLimiter
	client      *http.Client
}

// NewGeminiClient builds a forwarder client from config. BaseURL is
// required; it points at the forwarder deployment, not at Google.
func NewGeminiClient(cfg Config) (*GeminiClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gemini: base_url is required")
	}
	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = geminiDefaultTemperature
	}
	return &GeminiClient{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		proxyToken:  cfg.ProxyToken,
		model:       model,
		temperature: temperature,
		limiter:     NewRateLimiter(cfg.RequestsPerMin),
		client:      &http.Client{Timeout: cfg.Timeout()},
	}, nil
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string { return GeminiName }

// Limiter exposes the client's rate limiter for status reporting.
func (c *GeminiClient) Limiter() *RateLimiter { return c.limiter }

// geminiRequest is the forwarder's request body.
type geminiRequest struct {
	SystemPrompt     string  `json:"systemPrompt"`
	UserPrompt       string  `json:"userPrompt"`
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

// geminiResponse is the subset of the upstream response the client reads.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error string `json:"error,omitempty"`
}

// Generate runs one completion through the forwarder.
func (c *GeminiClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errcode.Wrap(errcode.LLMConnectFail, true, err)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	body, err := json.Marshal(geminiRequest{
		SystemPrompt:     req.SystemPrompt,
		UserPrompt:       req.UserPrompt,
		Model:            model,
		Temperature:      temperature,
		ResponseMIMEType: req.ResponseMIMEType,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+geminiGeneratePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.proxyToken != "" {
		httpReq.Header.Set("X-Proxy-Token", c.proxyToken)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errcode.Wrap(errcode.LLMConnectFail, true, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errcode.Wrap(errcode.LLMConnectFail, true, err)
	}
	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, errcode.Wrap(errcode.LLMConnectFail, retryable,
			fmt.Errorf("gemini: forwarder returned %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errcode.Wrap(errcode.LLMEmpty, false, fmt.Errorf("gemini: undecodable response: %w", err))
	}

	var sb strings.Builder
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		break // only the first candidate counts
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, errcode.New(errcode.LLMEmpty, false)
	}

	return &GenerateResult{
		Text:          text,
		Provider:      GeminiName,
		ModelUsed:     model,
		RequestID:     req.RequestID,
		ExecutionTime: time.Since(start),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
