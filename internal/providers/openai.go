package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
)

const (
	OpenAIName = "openai"

	openaiDefaultModel = "gpt-4o-mini"
)

// OpenAIClient runs completions against the OpenAI chat API, or any
// OpenAI-compatible endpoint via base_url.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	limiter     *RateLimiter
}

// NewOpenAIClient builds an OpenAI client from config.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api_key is required")
	}
	model := cfg.Model
	if model == "" {
		model = openaiDefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		option.WithMaxRetries(0), // retries are the fallback chain's concern
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
		limiter:     NewRateLimiter(cfg.RequestsPerMin),
	}, nil
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string { return OpenAIName }

// Limiter exposes the client's rate limiter for status reporting.
func (c *OpenAIClient) Limiter() *RateLimiter { return c.limiter }

// Generate runs one chat completion.
func (c *OpenAIClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errcode.Wrap(errcode.LLMConnectFail, true, err)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
	}
	if temperature := pick(req.Temperature, c.temperature); temperature != 0 {
		params.Temperature = openai.Float(temperature)
	}
	if maxTokens := pickInt(req.MaxOutputTokens, c.maxTokens); maxTokens != 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errcode.Wrap(errcode.LLMConnectFail, true, err)
	}
	if len(completion.Choices) == 0 {
		return nil, errcode.New(errcode.LLMEmpty, false)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return nil, errcode.New(errcode.LLMEmpty, false)
	}

	return &GenerateResult{
		Text:          text,
		Provider:      OpenAIName,
		ModelUsed:     model,
		RequestID:     req.RequestID,
		ExecutionTime: time.Since(start),
	}, nil
}

func pick(override, fallback float64) float64 {
	if override != 0 {
		return override
	}
	return fallback
}

func pickInt(override, fallback int) int {
	if override != 0 {
		return override
	}
	return fallback
}
