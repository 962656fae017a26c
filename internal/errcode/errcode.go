// Package errcode defines the fixed failure taxonomy and the user-facing
// message catalog. Every failure that crosses the message boundary is
// converted to one of these codes; raw upstream or provider text is logged
// but never shown to the user.
package errcode

import (
	"errors"
	"fmt"
)

// Code identifies a failure category.
type Code string

const (
	MsgTimeout   Code = "MSG_TIMEOUT"
	MsgNoHandler Code = "MSG_NO_HANDLER"

	WikiHTTP4xx         Code = "WIKI_HTTP_4XX"
	WikiHTTP5xx         Code = "WIKI_HTTP_5XX"
	WikiTimeout         Code = "WIKI_TIMEOUT"
	WikiSectionNotFound Code = "WIKI_SECTION_NOT_FOUND"
	WikiInvalidHTML     Code = "WIKI_INVALID_HTML"

	LLMConnectFail        Code = "LLM_CONNECT_FAIL"
	LLMEmpty              Code = "LLM_EMPTY"
	LLMJSONParse          Code = "LLM_JSON_PARSE"
	LLMBadStructure       Code = "LLM_BAD_STRUCTURE"
	LLMBadCount           Code = "LLM_BAD_COUNT"
	LLMInvalidQuestion    Code = "LLM_INVALID_QUESTION"
	LLMInsufficientSource Code = "LLM_INSUFFICIENT_SOURCE"

	SettingsReadFail  Code = "SETTINGS_READ_FAIL"
	SettingsWriteFail Code = "SETTINGS_WRITE_FAIL"
	StorageReadFail   Code = "STORAGE_READ_FAIL"
	StorageWriteFail  Code = "STORAGE_WRITE_FAIL"

	Unknown Code = "UNKNOWN"
)

// messages is the fixed catalog of user-facing text, keyed by code.
// These strings are the only error text ever surfaced to end users.
var messages = map[Code]string{
	MsgTimeout:   "The service is busy. Please try again.",
	MsgNoHandler: "This action isn't available.",

	WikiHTTP4xx:         "Wikipedia couldn't find this content.",
	WikiHTTP5xx:         "Wikipedia is temporarily unavailable. Try again.",
	WikiTimeout:         "Wikipedia request timed out. Please retry.",
	WikiSectionNotFound: "That section isn't available on this page.",
	WikiInvalidHTML:     "Wikipedia returned unexpected data.",

	LLMConnectFail:        "Couldn't reach the AI service. Please try again.",
	LLMEmpty:              "AI returned an empty response. Please try again or lower difficulty.",
	LLMJSONParse:          "AI response couldn't be parsed. Please try again.",
	LLMBadStructure:       "AI returned an invalid quiz structure.",
	LLMBadCount:           "Generated quiz has the wrong number of questions.",
	LLMInvalidQuestion:    "One or more questions are invalid. Please try again.",
	LLMInsufficientSource: "Not enough content to generate a quiz. Pick a longer section.",

	SettingsReadFail:  "Couldn't load settings. Using defaults.",
	SettingsWriteFail: "Couldn't save settings. Please try again.",
	StorageReadFail:   "Couldn't read stored data.",
	StorageWriteFail:  "Couldn't save data.",

	Unknown: "Something went wrong. Please try again.",
}

// Message returns the fixed user-facing message for a code.
// Unrecognized codes fall back to the generic catch-all.
func Message(c Code) string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[Unknown]
}

// Error is a classified failure. It wraps the underlying cause for logging
// while exposing only the catalog message to callers that render it.
type Error struct {
	Code      Code
	Retryable bool
	cause     error
}

// New creates a classified error with no underlying cause.
func New(code Code, retryable bool) *Error {
	return &Error{Code: code, Retryable: retryable}
}

// Wrap attaches a cause to a classified error.
func Wrap(code Code, retryable bool, cause error) *Error {
	return &Error{Code: code, Retryable: retryable, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return string(e.Code)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// UserMessage returns the catalog message for this error.
func (e *Error) UserMessage() string { return Message(e.Code) }

// CodeOf extracts the Code from err, walking the wrap chain.
// Unclassified errors report Unknown.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return Unknown
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// UserMessageOf returns the catalog message for any error.
func UserMessageOf(err error) string {
	return Message(CodeOf(err))
}
