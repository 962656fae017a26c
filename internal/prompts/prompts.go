// Package prompts holds the quiz-generation prompt templates. Embedded
// .tmpl files are the source of truth; every template is addressed by a
// hierarchical key like "quiz.section.extreme" and selected by the scope of
// the source text (whole-article summary or a single section) and the
// requested difficulty tier.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Scope is the kind of source text a quiz is generated from.
type Scope string

const (
	ScopeSummary Scope = "summary"
	ScopeSection Scope = "section"
)

// Tier is the prompt difficulty tier. User-facing difficulty settings map
// onto tiers one step up: the standard tier already asks for easy and
// medium questions.
type Tier string

const (
	TierStandard Tier = "standard"
	TierComplex  Tier = "complex"
	TierExtreme  Tier = "extreme"
)

// TierForDifficulty maps a user difficulty setting to a prompt tier.
// Unknown values get the standard tier.
func TierForDifficulty(difficulty string) Tier {
	switch difficulty {
	case "medium":
		return TierComplex
	case "hard":
		return TierExtreme
	default:
		return TierStandard
	}
}

// Vars feed the templates. Sentences is the numbered "1. ..." block; it
// only appears in the system prompt, keeping user prompts small.
type Vars struct {
	Topic        string
	SectionTitle string
	NumQuestions int
	Sentences    string
}

const systemKey = "quiz.system"

// rawTexts keeps the embedded source per key for the catalog.
var rawTexts = make(map[string]string)

var templates = func() map[string]*template.Template {
	files := []struct{ key, path string }{
		{systemKey, "templates/system.tmpl"},
		{key(ScopeSummary, TierStandard), "templates/summary_standard.tmpl"},
		{key(ScopeSummary, TierComplex), "templates/summary_complex.tmpl"},
		{key(ScopeSummary, TierExtreme), "templates/summary_extreme.tmpl"},
		{key(ScopeSection, TierStandard), "templates/section_standard.tmpl"},
		{key(ScopeSection, TierComplex), "templates/section_complex.tmpl"},
		{key(ScopeSection, TierExtreme), "templates/section_extreme.tmpl"},
	}
	out := make(map[string]*template.Template, len(files))
	for _, f := range files {
		k, path := f.key, f.path
		text, err := templateFS.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("missing embedded template %s: %v", path, err))
		}
		rawTexts[k] = string(text)
		out[k] = template.Must(template.New(k).Parse(string(text)))
	}
	return out
}()

func key(scope Scope, tier Tier) string {
	return fmt.Sprintf("quiz.%s.%s", scope, tier)
}

// SystemPrompt renders the shared system prompt, which carries the JSON
// contract and the numbered source sentences.
func SystemPrompt(v Vars) (string, error) {
	return render(systemKey, v)
}

// UserPrompt renders the user prompt for a scope and tier.
func UserPrompt(scope Scope, tier Tier, v Vars) (string, error) {
	return render(key(scope, tier), v)
}

// Key returns the template key for a scope and tier. Used for call logging.
func Key(scope Scope, tier Tier) string { return key(scope, tier) }

func render(k string, v Vars) (string, error) {
	tmpl, ok := templates[k]
	if !ok {
		return "", fmt.Errorf("prompt not found: %s", k)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", k, err)
	}
	return buf.String(), nil
}
