// Package protocol defines the typed message envelope and the fixed set of
// message kinds the server dispatches on. Each kind has a statically known
// payload and response shape; unknown kinds get the fixed invalid-command
// response instead of being dropped.
package protocol

import (
	"encoding/json"

	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/extract"
	"github.com/wikiquiz/wikiquiz/internal/quiz"
	"github.com/wikiquiz/wikiquiz/internal/settings"
)

// Message kinds.
const (
	KindInitialization  = "initialization"
	KindGetData         = "getData"
	KindGetQuizContent  = "getQuizContent"
	KindToggleSidebar   = "toggleSidebar"
	KindGetSidebarState = "getSidebarState"
	KindToggleSettings  = "toggleSettings"
	KindGetSettings     = "getSettings"
	KindClientError     = "clientError"
)

// Kinds lists every known message kind in dispatch order.
func Kinds() []string {
	return []string{
		KindInitialization,
		KindGetData,
		KindGetQuizContent,
		KindToggleSidebar,
		KindGetSidebarState,
		KindToggleSettings,
		KindGetSettings,
		KindClientError,
	}
}

// Request is the tagged envelope for every message. Payload stays raw until
// the dispatch table knows which typed struct to decode it into.
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack is the response for messages that carry no data back.
type Ack struct {
	Success bool `json:"success"`
}

// ErrorInfo is the wire form of a classified failure. Message is always
// catalog text, never raw upstream or provider output.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ErrorFrom converts any error into its wire form.
func ErrorFrom(err error) *ErrorInfo {
	return &ErrorInfo{
		Code:      string(errcode.CodeOf(err)),
		Message:   errcode.UserMessageOf(err),
		Retryable: errcode.IsRetryable(err),
	}
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error"`
}

// InvalidResponse is the fixed reply for unknown message kinds.
type InvalidResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// InvalidCommand returns the fixed invalid-command response.
func InvalidCommand() InvalidResponse {
	return InvalidResponse{Success: false, Error: "invalid command"}
}

// GetDataPayload identifies the page to populate.
type GetDataPayload struct {
	URL string `json:"url"`
}

// GetDataResponse carries the assembled page content.
type GetDataResponse struct {
	Success  bool            `json:"success"`
	Title    string          `json:"title"`
	Summary  []string        `json:"summary"`
	Sections []*extract.Node `json:"sections"`
}

// Quiz scope selectors for getQuizContent.
const (
	QuizTypeSummary = "summary"
	QuizTypeSection = "section"
)

// GetQuizContentPayload selects the source text for a quiz. SectionIndex is
// required when QuizType is "section" and ignored otherwise.
type GetQuizContentPayload struct {
	URL          string `json:"url"`
	QuizType     string `json:"quizType"`
	SectionIndex *int   `json:"sectionIndex,omitempty"`
}

// GetQuizContentResponse carries a validated quiz. Stale marks a result
// that was superseded by a newer request and must be discarded by the
// caller.
type GetQuizContentResponse struct {
	Success bool          `json:"success"`
	Quiz    *quiz.Content `json:"quiz,omitempty"`
	Stale   bool          `json:"stale,omitempty"`
	Topic   string        `json:"topic,omitempty"`
	Section string        `json:"section,omitempty"`
}

// ToggleSidebarPayload sets the sidebar flag.
type ToggleSidebarPayload struct {
	Enabled bool `json:"enabled"`
}

// SidebarResponse reports the current sidebar flag.
type SidebarResponse struct {
	Success bool `json:"success"`
	Enabled bool `json:"enabled"`
}

// ToggleSettingsPayload is a whole-value settings replacement. Omitted
// fields keep their current value.
type ToggleSettingsPayload struct {
	QuestionDifficulty *string `json:"questionDifficulty,omitempty"`
	NumQuestions       *int    `json:"numQuestions,omitempty"`
}

// SettingsResponse reports the effective user settings.
type SettingsResponse struct {
	Success  bool                  `json:"success"`
	Settings settings.UserSettings `json:"settings"`
}

// ClientErrorPayload is an error report from the client side. It is logged
// and acknowledged, never acted on.
type ClientErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
