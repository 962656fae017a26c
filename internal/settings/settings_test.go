package settings

import (
	"context"
	"log/slog"
	"testing"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/storage"
)

func TestStore_DefaultsOnEmpty(t *testing.T) {
	store := NewStore(storage.NewMemory(), slog.Default())
	got := store.Get(context.Background())
	if got.QuestionDifficulty != DifficultyMedium {
		t.Errorf("difficulty = %q, want medium", got.QuestionDifficulty)
	}
	if got.NumQuestions != QuestionCountShort {
		t.Errorf("numQuestions = %d, want %d", got.NumQuestions, QuestionCountShort)
	}
}

func TestStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory(), slog.Default())

	in := UserSettings{QuestionDifficulty: DifficultyHard, NumQuestions: QuestionCountLong}
	if err := store.Set(ctx, in); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(ctx); got != in {
		t.Errorf("Get() = %+v, want %+v", got, in)
	}
}

func TestStore_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory(), slog.Default())

	bad := []UserSettings{
		{QuestionDifficulty: "extreme", NumQuestions: 4},
		{QuestionDifficulty: DifficultyEasy, NumQuestions: 5},
		{QuestionDifficulty: "", NumQuestions: 0},
	}
	for _, in := range bad {
		err := store.Set(ctx, in)
		if err == nil {
			t.Errorf("Set(%+v) accepted invalid settings", in)
			continue
		}
		if errcode.CodeOf(err) != errcode.SettingsWriteFail {
			t.Errorf("Set(%+v) code = %s, want %s", in, errcode.CodeOf(err), errcode.SettingsWriteFail)
		}
	}

	// The rejected write must not clobber stored state.
	if got := store.Get(ctx); got != Defaults() {
		t.Errorf("Get() = %+v after rejected writes, want defaults", got)
	}
}

func TestStore_CorruptBlobDegradesToDefaults(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := NewStore(kv, slog.Default())

	if err := kv.Set(ctx, "user_settings", []byte(`{"questionDifficulty":"impossible","numQuestions":99}`), 0); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(ctx); got != Defaults() {
		t.Errorf("Get() = %+v, want defaults for out-of-domain blob", got)
	}

	if err := kv.Set(ctx, "user_settings", []byte(`not json`), 0); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(ctx); got != Defaults() {
		t.Errorf("Get() = %+v, want defaults for undecodable blob", got)
	}
}

func TestStore_Sidebar(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory(), slog.Default())

	if store.SidebarEnabled(ctx) {
		t.Error("sidebar should default to off")
	}
	on, err := store.ToggleSidebar(ctx)
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v; want true, nil", on, err)
	}
	off, err := store.ToggleSidebar(ctx)
	if err != nil || off {
		t.Fatalf("second toggle = %v, %v; want false, nil", off, err)
	}
	if store.SidebarEnabled(ctx) {
		t.Error("sidebar should be off after two toggles")
	}
}
