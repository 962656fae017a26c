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
	CohereName = "cohere"

	cohereDefaultBaseURL     = "https://api.cohere.com"
	cohereDefaultModel       = "command-r-plus"
	cohereDefaultTemperature = 0.375
	cohereDefaultMaxTokens   = 1000
	cohereChatPath           = "/v2/chat"
)

// CohereClient calls the Cohere v2 chat API directly with an API key.
type CohereClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	limiter     *RateLimiter
	client      *http.Client
}

// NewCohereClient builds a Cohere client from config.
func NewCohereClient(cfg Config) (*CohereClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: api_key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cohereDefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = cohereDefaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = cohereDefaultTemperature
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = cohereDefaultMaxTokens
	}
	return &CohereClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		limiter:     NewRateLimiter(cfg.RequestsPerMin),
		client:      &http.Client{Timeout: cfg.Timeout()},
	}, nil
}

// Name returns the provider identifier.
func (c *CohereClient) Name() string { return CohereName }

// Limiter exposes the client's rate limiter for status reporting.
func (c *CohereClient) Limiter() *RateLimiter { return c.limiter }

type cohereMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cohereRequest struct {
	Model          string          `json:"model"`
	Messages       []cohereMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type cohereResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// Generate runs one chat completion.
func (c *CohereClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
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
	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	chatReq := cohereRequest{
		Model: model,
		Messages: []cohereMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	if req.ResponseMIMEType == "application/json" {
		chatReq.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("cohere: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cohereChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cohere: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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
			fmt.Errorf("cohere: chat returned %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var parsed cohereResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errcode.Wrap(errcode.LLMEmpty, false, fmt.Errorf("cohere: undecodable response: %w", err))
	}

	var sb strings.Builder
	for _, part := range parsed.Message.Content {
		if part.Type == "" || part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, errcode.New(errcode.LLMEmpty, false)
	}

	return &GenerateResult{
		Text:          text,
		Provider:      CohereName,
		ModelUsed:     model,
		RequestID:     req.RequestID,
		ExecutionTime: time.Since(start),
	}, nil
}
