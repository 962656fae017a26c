package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// parseModelJSON parses JSON out of raw model output with lightweight
// recovery: markdown code fences, commentary around the JSON, trailing
// commas, and output truncated mid-array. Each candidate is tried verbatim
// first, then with repairs.
func parseModelJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty model output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates)*2)
	tryParse := func(candidate string) (json.RawMessage, bool) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			return nil, false
		}
		if _, ok := seen[candidate]; ok {
			return nil, false
		}
		seen[candidate] = struct{}{}

		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			return nil, false
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, false
		}
		return normalized, true
	}

	for _, candidate := range candidates {
		if out, ok := tryParse(candidate); ok {
			return out, nil
		}
		if out, ok := tryParse(repairJSON(candidate)); ok {
			return out, nil
		}
	}

	return nil, fmt.Errorf("failed to parse model output as JSON")
}

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// repairJSON applies mechanical fixes for the malformations models actually
// produce: trailing commas before a closer, and output cut off mid-document
// (a dangling string, comma, or unbalanced brackets at the end).
func repairJSON(s string) string {
	s = strings.TrimSpace(s)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	s = closeTruncated(s)
	return s
}

// closeTruncated appends the closers a truncated document is missing. It
// walks the input tracking string state and open brackets; an unterminated
// string is closed and a dangling trailing comma dropped before the
// brackets are closed in reverse order.
func closeTruncated(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	trimmed := strings.TrimRight(s, " \t\r\n")
	if strings.HasSuffix(trimmed, ",") {
		s = strings.TrimSuffix(trimmed, ",")
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	start := strings.Index(trimmed, "{")
	if start < 0 {
		start = strings.Index(trimmed, "[")
		if start < 0 {
			return ""
		}
	}
	// Take from the first opener to the end; truncation repair handles a
	// missing tail, and a LastIndex of the closer would chop balanced
	// documents that legitimately end with prose after the JSON.
	end := strings.LastIndexAny(trimmed, "}]")
	if end < start {
		return strings.TrimSpace(trimmed[start:])
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
