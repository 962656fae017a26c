package quiz

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wikiquiz/wikiquiz/internal/calllog"
	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/extract"
	"github.com/wikiquiz/wikiquiz/internal/prompts"
	"github.com/wikiquiz/wikiquiz/internal/providers"
	"github.com/wikiquiz/wikiquiz/internal/settings"
)

// MinSentences is the smallest bucket worth sending to a provider. Smaller
// buckets are rejected locally before any network call.
const MinSentences = 7

// Params describe one quiz request.
type Params struct {
	Topic        string
	Scope        prompts.Scope
	SectionTitle string
	Bucket       extract.Bucket
	Settings     settings.UserSettings
	PageURL      string
}

// Generator renders prompts, dispatches to the provider chain, and
// validates the result. It holds no per-request state.
type Generator struct {
	registry *providers.Registry
	recorder *calllog.Recorder
	logger   *slog.Logger
}

// NewGenerator builds a generator. recorder may be nil to disable call
// logging.
func NewGenerator(registry *providers.Registry, recorder *calllog.Recorder, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{registry: registry, recorder: recorder, logger: logger}
}

// Generate produces a validated quiz or a classified failure. The
// provider fallback is transparent: the result is indistinguishable from
// calling whichever backend answered directly.
func (g *Generator) Generate(ctx context.Context, p Params) (*Content, error) {
	if !p.Bucket.Sufficient(MinSentences) {
		return nil, errcode.New(errcode.LLMInsufficientSource, false)
	}

	tier := prompts.TierForDifficulty(string(p.Settings.QuestionDifficulty))
	vars := prompts.Vars{
		Topic:        p.Topic,
		SectionTitle: p.SectionTitle,
		NumQuestions: p.Settings.NumQuestions,
		Sentences:    p.Bucket.Numbered(),
	}

	systemPrompt, err := prompts.SystemPrompt(vars)
	if err != nil {
		return nil, errcode.Wrap(errcode.Unknown, false, err)
	}
	userPrompt, err := prompts.UserPrompt(p.Scope, tier, vars)
	if err != nil {
		return nil, errcode.Wrap(errcode.Unknown, false, err)
	}

	chain, err := g.registry.Chain()
	if err != nil {
		return nil, errcode.Wrap(errcode.LLMConnectFail, false, err)
	}

	requestID := uuid.New().String()
	promptKey := prompts.Key(p.Scope, tier)

	g.logger.Info("dispatching quiz request",
		"request_id", requestID,
		"topic", p.Topic,
		"scope", p.Scope,
		"tier", tier,
		"questions", p.Settings.NumQuestions,
		"sentences", len(p.Bucket))

	result, err := chain.Generate(ctx, &providers.GenerateRequest{
		SystemPrompt:     systemPrompt,
		UserPrompt:       userPrompt,
		ResponseMIMEType: "application/json",
		RequestID:        requestID,
	})
	if g.recorder != nil {
		g.recorder.Record(ctx, result, err, calllog.RecordOptions{
			RequestID: requestID,
			PageURL:   p.PageURL,
			PromptKey: promptKey,
		})
	}
	if err != nil {
		return nil, err
	}

	content, err := Validate(result.Text, p.Settings.NumQuestions)
	if err != nil {
		g.logger.Warn("quiz validation failed",
			"request_id", requestID,
			"provider", result.Provider,
			"code", errcode.CodeOf(err),
			"error", err)
		return nil, err
	}

	g.logger.Info("quiz generated",
		"request_id", requestID,
		"provider", result.Provider,
		"questions", len(content.Questions))
	return content, nil
}
