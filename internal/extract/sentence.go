package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Bucket is a sentence-indexed excerpt of article text. Position i holds
// sentence i+1; indices as exposed to callers and on the wire are 1-based
// and contiguous by construction.
type Bucket []string

// boundaryPattern matches a sentence boundary: terminal punctuation,
// followed by any closing quote/bracket characters, followed by whitespace.
// Including the closers in the boundary keeps a period inside a closing
// quote from producing a spurious split.
var boundaryPattern = regexp.MustCompile(`[.!?]+["')\]\x{201D}\x{2019}]*\s+`)

// SplitSentences segments cleaned text into a Bucket. Empty segments are
// dropped and the remainder renumbered, so indices stay contiguous. Text
// with no boundary at all becomes a single sentence.
func SplitSentences(text string) Bucket {
	text = strings.TrimSpace(text)
	if text == "" {
		return Bucket{}
	}

	var out Bucket
	start := 0
	for _, loc := range boundaryPattern.FindAllStringIndex(text, -1) {
		seg := strings.TrimSpace(text[start:loc[1]])
		if seg != "" {
			out = append(out, seg)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Sentence returns the 1-based sentence i, or "" when out of range.
func (b Bucket) Sentence(i int) string {
	if i < 1 || i > len(b) {
		return ""
	}
	return b[i-1]
}

// Sufficient reports whether the bucket meets the minimum size for quiz
// generation.
func (b Bucket) Sufficient(min int) bool { return len(b) >= min }

// Numbered renders the bucket as "{index}. {sentence}" lines, the grounding
// format handed to the model.
func (b Bucket) Numbered() string {
	var sb strings.Builder
	for i, s := range b {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, s)
	}
	return sb.String()
}

// MarshalJSON encodes the bucket as a 1-based index→sentence object,
// matching the stored summary shape.
func (b Bucket) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(b))
	for i, s := range b {
		m[strconv.Itoa(i+1)] = s
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the index→sentence object back into reading order.
// Gaps in the stored indices are closed; order follows the numeric keys.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	keys := make([]int, 0, len(m))
	byKey := make(map[int]string, len(m))
	for k, v := range m {
		n, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("non-numeric sentence index %q", k)
		}
		keys = append(keys, n)
		byKey[n] = v
	}
	sort.Ints(keys)
	out := make(Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	*b = out
	return nil
}
