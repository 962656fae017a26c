// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/wikiquiz/wikiquiz/internal/calllog"
	"github.com/wikiquiz/wikiquiz/internal/config"
	"github.com/wikiquiz/wikiquiz/internal/pagecache"
	"github.com/wikiquiz/wikiquiz/internal/pages"
	"github.com/wikiquiz/wikiquiz/internal/providers"
	"github.com/wikiquiz/wikiquiz/internal/quiz"
	"github.com/wikiquiz/wikiquiz/internal/settings"
	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Wiki        *wiki.Client
	Cache       *pagecache.Cache
	Pages       *pages.Service
	Coordinator *pages.Coordinator
	Settings    *settings.Store
	Registry    *providers.Registry
	Generator   *quiz.Generator
	Tracker     *quiz.Tracker
	CallLog     *calllog.Recorder
	ConfigMgr   *config.Manager
	Logger      *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// PagesFrom extracts the page service from context.
func PagesFrom(ctx context.Context) *pages.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Pages
	}
	return nil
}

// CoordinatorFrom extracts the page coordinator from context.
func CoordinatorFrom(ctx context.Context) *pages.Coordinator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Coordinator
	}
	return nil
}

// SettingsFrom extracts the settings store from context.
func SettingsFrom(ctx context.Context) *settings.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Settings
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// GeneratorFrom extracts the quiz generator from context.
func GeneratorFrom(ctx context.Context) *quiz.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Generator
	}
	return nil
}

// TrackerFrom extracts the request-identity tracker from context.
func TrackerFrom(ctx context.Context) *quiz.Tracker {
	if s := ServicesFrom(ctx); s != nil {
		return s.Tracker
	}
	return nil
}

// CallLogFrom extracts the call recorder from context.
func CallLogFrom(ctx context.Context) *calllog.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.CallLog
	}
	return nil
}

// ConfigMgrFrom extracts the config manager from context.
func ConfigMgrFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
