package providers

import (
	"context"
	"log/slog"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
)

// FallbackChain tries a primary provider and, when it fails, retries the
// same request against a secondary. The switch is transparent: callers see
// one Generate call and one result, and only the logs show which backend
// answered. When both fail the secondary's error is returned, since that is
// the terminal failure.
type FallbackChain struct {
	primary   Provider
	secondary Provider
	logger    *slog.Logger
}

// NewFallbackChain builds a chain. secondary may be nil, making the chain a
// passthrough.
func NewFallbackChain(primary, secondary Provider, logger *slog.Logger) *FallbackChain {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackChain{primary: primary, secondary: secondary, logger: logger}
}

// Name identifies the chain by its primary.
func (f *FallbackChain) Name() string { return f.primary.Name() }

// Generate tries the primary, then the secondary.
func (f *FallbackChain) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	result, err := f.primary.Generate(ctx, req)
	if err == nil {
		return result, nil
	}
	if f.secondary == nil || ctx.Err() != nil {
		return nil, err
	}

	f.logger.Warn("primary provider failed, trying secondary",
		"primary", f.primary.Name(),
		"secondary", f.secondary.Name(),
		"request_id", req.RequestID,
		"code", errcode.CodeOf(err),
		"error", err)

	result, secondaryErr := f.secondary.Generate(ctx, req)
	if secondaryErr != nil {
		f.logger.Error("secondary provider failed",
			"secondary", f.secondary.Name(),
			"request_id", req.RequestID,
			"code", errcode.CodeOf(secondaryErr),
			"error", secondaryErr)
		return nil, secondaryErr
	}
	return result, nil
}

var _ Provider = (*FallbackChain)(nil)
var _ Provider = (*MockProvider)(nil)
var _ Provider = (*GeminiClient)(nil)
var _ Provider = (*CohereClient)(nil)
var _ Provider = (*OpenAIClient)(nil)
