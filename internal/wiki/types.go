package wiki

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Section is one table-of-contents entry as returned by the parse API.
// Index is the global position in the flat list; TocLevel is nesting depth
// with 1 meaning top-level. Number is the human-facing dotted numbering
// ("2.1") and is distinct from Index.
type Section struct {
	Anchor    string `json:"anchor"`
	FromTitle string `json:"fromtitle,omitempty"`
	Index     int    `json:"index"`
	Level     int    `json:"level"`
	Line      string `json:"line"`
	Number    string `json:"number"`
	TocLevel  int    `json:"toclevel"`
}

// sectionWire mirrors the loose upstream encoding: index and level arrive as
// strings, and transcluded sections carry a "T-" index prefix.
type sectionWire struct {
	Anchor    string          `json:"anchor"`
	FromTitle string          `json:"fromtitle"`
	Index     json.RawMessage `json:"index"`
	Level     json.RawMessage `json:"level"`
	Line      string          `json:"line"`
	Number    string          `json:"number"`
	TocLevel  int             `json:"toclevel"`
}

// UnmarshalJSON tolerates string-encoded numeric fields from the upstream.
func (s *Section) UnmarshalJSON(data []byte) error {
	var w sectionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Anchor = w.Anchor
	s.FromTitle = w.FromTitle
	s.Line = w.Line
	s.Number = w.Number
	s.TocLevel = w.TocLevel
	s.Index = flexInt(w.Index)
	s.Level = flexInt(w.Level)
	return nil
}

// flexInt decodes a JSON number or numeric string, stripping the "T-" prefix
// the parse API uses for transcluded sections. Unparseable values become 0.
func flexInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0
	}
	str = strings.TrimPrefix(strings.TrimSpace(str), "T-")
	n, err := strconv.Atoi(str)
	if err != nil {
		return 0
	}
	return n
}

// Summary is the lead-section payload from the REST summary endpoint.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
}

// parseSectionsResponse is the envelope of the sections-listing endpoint.
type parseSectionsResponse struct {
	Parse struct {
		Title    string    `json:"title"`
		Sections []Section `json:"sections"`
	} `json:"parse"`
}

// parseTextResponse is the envelope of the section-HTML endpoint.
type parseTextResponse struct {
	Parse struct {
		Title string `json:"title"`
		Text  struct {
			Content string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
}
