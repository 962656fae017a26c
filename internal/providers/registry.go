package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the configured providers and the primary/secondary
// selection. It is rebuilt wholesale on config reload; readers always see a
// consistent set.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	secondary string
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// Register adds or replaces a provider by name.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	r.logger.Info("registered provider", "name", name)
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// Has reports whether a provider is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// List returns registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDefaults records the primary and secondary provider names.
func (r *Registry) SetDefaults(primary, secondary string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primary = primary
	r.secondary = secondary
}

// Defaults returns the current primary and secondary provider names.
func (r *Registry) Defaults() (primary, secondary string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.primary, r.secondary
}

// Chain returns the fallback chain for quiz generation: the configured
// primary backed by the configured secondary. A missing secondary gives a
// passthrough chain; a missing primary is an error.
func (r *Registry) Chain() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary, ok := r.providers[r.primary]
	if !ok {
		return nil, fmt.Errorf("primary provider not configured: %q", r.primary)
	}
	secondary := r.providers[r.secondary] // nil when unset
	return NewFallbackChain(primary, secondary, r.logger), nil
}

// Reload replaces the full provider set from config. Providers that fail to
// build are skipped with a log line rather than failing the reload; an
// already-running server keeps its last good set for any name that breaks.
func (r *Registry) Reload(configs map[string]Config, primary, secondary string) {
	next := make(map[string]Provider, len(configs))
	for name, cfg := range configs {
		p, err := New(name, cfg)
		if err != nil {
			r.logger.Error("failed to build provider, keeping previous if any", "name", name, "error", err)
			r.mu.RLock()
			if prev, ok := r.providers[name]; ok {
				next[name] = prev
			}
			r.mu.RUnlock()
			continue
		}
		next[name] = p
	}

	r.mu.Lock()
	r.providers = next
	r.primary = primary
	r.secondary = secondary
	r.mu.Unlock()

	r.logger.Info("providers reloaded",
		"count", len(next),
		"primary", primary,
		"secondary", secondary)
}

// New builds a provider from its config. The name is only used for error
// reporting; the adapter is chosen by cfg.Type.
func New(name string, cfg Config) (Provider, error) {
	switch cfg.Type {
	case GeminiName:
		return NewGeminiClient(cfg)
	case CohereName:
		return NewCohereClient(cfg)
	case OpenAIName:
		return NewOpenAIClient(cfg)
	case MockName:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("provider %s: unknown type %q", name, cfg.Type)
	}
}
