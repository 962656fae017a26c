package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
)

const MockName = "mock"

// MockProvider is a Provider for tests and the dev config. Behavior is
// field-configurable; the zero value echoes a canned response.
type MockProvider struct {
	// ProviderName overrides Name() so a test can register two mocks.
	ProviderName string

	Latency      time.Duration
	ResponseText string

	// ShouldFail makes every call fail. FailFirst makes only the first N
	// calls fail, which exercises fallback and retry paths.
	ShouldFail bool
	FailFirst  int
	FailCode   errcode.Code

	requestCount atomic.Int64
}

// NewMockProvider creates a mock with a minimal valid response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		ResponseText: `{"questions":[]}`,
	}
}

// Name returns the mock's identifier.
func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return MockName
}

// Calls reports how many Generate calls the mock has seen.
func (m *MockProvider) Calls() int64 { return m.requestCount.Load() }

// Generate returns the configured response or failure.
func (m *MockProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	count := m.requestCount.Add(1)

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.ShouldFail || count <= int64(m.FailFirst) {
		code := m.FailCode
		if code == "" {
			code = errcode.LLMConnectFail
		}
		return nil, errcode.Wrap(code, true, fmt.Errorf("mock failure on call %d", count))
	}

	return &GenerateResult{
		Text:      m.ResponseText,
		Provider:  m.Name(),
		ModelUsed: req.Model,
		RequestID: req.RequestID,
	}, nil
}
