// Package settings persists per-user quiz preferences and the sidebar
// toggle. Settings live in the persistent storage scope, unlike page
// content, which is session-scoped and expires.
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/storage"
)

// Difficulty is the user-facing quiz difficulty setting.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid question counts. The quiz flow offers exactly these two sizes.
const (
	QuestionCountShort = 4
	QuestionCountLong  = 7
)

const (
	settingsKey = "user_settings"
	sidebarKey  = "sidebar_enabled"
)

// UserSettings are the quiz generation preferences.
type UserSettings struct {
	QuestionDifficulty Difficulty `json:"questionDifficulty"`
	NumQuestions       int        `json:"numQuestions"`
}

// Defaults returns the settings used for a fresh install and whenever the
// stored value cannot be read or fails validation.
func Defaults() UserSettings {
	return UserSettings{
		QuestionDifficulty: DifficultyMedium,
		NumQuestions:       QuestionCountShort,
	}
}

// Validate checks a settings value against the allowed domain.
func (s UserSettings) Validate() error {
	switch s.QuestionDifficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("invalid question difficulty %q", s.QuestionDifficulty)
	}
	if s.NumQuestions != QuestionCountShort && s.NumQuestions != QuestionCountLong {
		return fmt.Errorf("invalid question count %d", s.NumQuestions)
	}
	return nil
}

// Store reads and writes settings against a persistent KV backend.
type Store struct {
	kv     storage.KV
	logger *slog.Logger
}

// NewStore wraps kv.
func NewStore(kv storage.KV, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Get returns the stored settings. Any read or decode failure, and any
// stored value outside the allowed domain, degrades to Defaults without an
// error: quiz generation must keep working on a corrupt settings blob.
func (s *Store) Get(ctx context.Context) UserSettings {
	var out UserSettings
	if err := storage.GetJSON(ctx, s.kv, settingsKey, &out); err != nil {
		if err != storage.ErrNotFound {
			s.logger.Warn("failed to read settings, using defaults", "error", err)
		}
		return Defaults()
	}
	if err := out.Validate(); err != nil {
		s.logger.Warn("stored settings invalid, using defaults", "error", err)
		return Defaults()
	}
	return out
}

// Set validates and persists settings. Values outside the allowed domain
// are rejected before touching storage.
func (s *Store) Set(ctx context.Context, in UserSettings) error {
	if err := in.Validate(); err != nil {
		return errcode.Wrap(errcode.SettingsWriteFail, false, err)
	}
	if err := storage.SetJSON(ctx, s.kv, settingsKey, in, 0); err != nil {
		return errcode.Wrap(errcode.SettingsWriteFail, false, err)
	}
	s.logger.Info("settings updated",
		"difficulty", in.QuestionDifficulty,
		"questions", in.NumQuestions)
	return nil
}

// SidebarEnabled returns the persisted sidebar toggle, defaulting to off.
func (s *Store) SidebarEnabled(ctx context.Context) bool {
	var enabled bool
	if err := storage.GetJSON(ctx, s.kv, sidebarKey, &enabled); err != nil {
		return false
	}
	return enabled
}

// SetSidebarEnabled persists the sidebar toggle.
func (s *Store) SetSidebarEnabled(ctx context.Context, enabled bool) error {
	if err := storage.SetJSON(ctx, s.kv, sidebarKey, enabled, 0); err != nil {
		return errcode.Wrap(errcode.SettingsWriteFail, false, err)
	}
	return nil
}

// ToggleSidebar flips the persisted toggle and returns the new state.
func (s *Store) ToggleSidebar(ctx context.Context) (bool, error) {
	next := !s.SidebarEnabled(ctx)
	if err := s.SetSidebarEnabled(ctx, next); err != nil {
		return false, err
	}
	return next, nil
}
