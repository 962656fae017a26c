package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
)

// Prompt describes one embedded template for introspection: the prompts
// API endpoint lists these so operators can see exactly what text ships.
type Prompt struct {
	Key       string   `json:"key"`
	Text      string   `json:"text"`
	Variables []string `json:"variables,omitempty"`
	Hash      string   `json:"hash"`
}

// variablePattern matches Go template variable references like {{.Topic}}
// or {{ .Topic }}.
var variablePattern = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// ExtractVariables returns the sorted, deduplicated variable names
// referenced by a template string.
func ExtractVariables(text string) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, match := range variablePattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	sort.Strings(vars)
	return vars
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Catalog lists every embedded prompt, sorted by key.
func Catalog() []Prompt {
	out := make([]Prompt, 0, len(rawTexts))
	for k, raw := range rawTexts {
		out = append(out, Prompt{
			Key:       k,
			Text:      raw,
			Variables: ExtractVariables(raw),
			Hash:      HashText(raw),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
