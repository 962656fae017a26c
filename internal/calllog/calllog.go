// Package calllog records every LLM call with its prompt key and outcome.
// Records land in session storage as a bounded ring, newest first, and back
// the status endpoint's recent-call view.
package calllog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/providers"
	"github.com/wikiquiz/wikiquiz/internal/storage"
)

const (
	storageKey = "llm_calls"

	// maxRecords bounds the ring. Old entries fall off the end.
	maxRecords = 100
)

// Call is one recorded LLM invocation.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	RequestID string `json:"request_id,omitempty"`
	PageURL   string `json:"page_url,omitempty"`
	PromptKey string `json:"prompt_key"`

	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`

	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions carry the request context for a record.
type RecordOptions struct {
	RequestID string
	PageURL   string
	PromptKey string
}

// Recorder appends call records to session storage. Recording never fails a
// request: storage errors are logged and dropped.
type Recorder struct {
	kv     storage.KV
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder wraps kv.
func NewRecorder(kv storage.KV, logger *slog.Logger) *Recorder {
	return &Recorder{kv: kv, logger: logger, now: time.Now}
}

// Record captures a completed provider call.
func (r *Recorder) Record(ctx context.Context, result *providers.GenerateResult, callErr error, opts RecordOptions) {
	call := Call{
		ID:        uuid.New().String(),
		Timestamp: r.now(),
		RequestID: opts.RequestID,
		PageURL:   opts.PageURL,
		PromptKey: opts.PromptKey,
		Success:   callErr == nil,
	}
	if result != nil {
		call.LatencyMs = int(result.ExecutionTime.Milliseconds())
		call.Provider = result.Provider
		call.Model = result.ModelUsed
	}
	if callErr != nil {
		call.Code = string(errcode.CodeOf(callErr))
		call.Error = callErr.Error()
	}
	r.append(ctx, call)
}

// Recent returns up to n records, newest first.
func (r *Recorder) Recent(ctx context.Context, n int) []Call {
	var calls []Call
	if err := storage.GetJSON(ctx, r.kv, storageKey, &calls); err != nil {
		if err != storage.ErrNotFound {
			r.logger.Warn("failed to read call log", "error", err)
		}
		return nil
	}
	if n > 0 && len(calls) > n {
		calls = calls[:n]
	}
	return calls
}

func (r *Recorder) append(ctx context.Context, call Call) {
	var calls []Call
	if err := storage.GetJSON(ctx, r.kv, storageKey, &calls); err != nil && err != storage.ErrNotFound {
		r.logger.Warn("failed to read call log, starting fresh", "error", err)
	}

	calls = append([]Call{call}, calls...)
	if len(calls) > maxRecords {
		calls = calls[:maxRecords]
	}

	if err := storage.SetJSON(ctx, r.kv, storageKey, calls, 0); err != nil {
		r.logger.Warn("failed to write call log", "error", err)
	}
}
