package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned when there is no text, no file, and no history.
	ErrNoContent = errors.New("no content to analyze")

	// ErrInvalidRole is returned when a history turn has a missing or unknown role
	ErrInvalidRole = errors.New("history turn has a missing or unknown role")

	// ErrInvalidContent is returned when turn content is neither text nor an assessment object
	ErrInvalidContent = errors.New("history turn content must be text or an assessment object")

	// ErrEmptyGeneration is returned when the provider answered with no text
	ErrEmptyGeneration = errors.New("generation returned an empty response")
)

// ErrorKind classifies every failure Analyze can return.
type ErrorKind string

const (
	KindNoContent          ErrorKind = "no_content"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindGenerationFailed   ErrorKind = "generation_failed"
	KindMalformedResult    ErrorKind = "malformed_result"
)

// UserMessage is the calm, non-technical text shown to users for a kind.
func (k ErrorKind) UserMessage() string {
	switch k {
	case KindNoContent:
		return "Please provide text, a file, or conversation history."
	case KindInvalidInput:
		return "The conversation history could not be read. Please start a new analysis."
	case KindServiceUnavailable:
		return "The analysis service is temporarily unavailable. Please try again later."
	default:
		return "Unable to complete analysis. Please try again."
	}
}

// Error carries a failure kind and the underlying cause for logging.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("analyzer: %s", e.Kind)
	}
	return fmt.Sprintf("analyzer: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Detail is the upstream message, suitable for logs or development responses.
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the kind of err. Errors that are not *Error are generation failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return KindGenerationFailed
}

// AsError converts any error into an *Error, defaulting to KindGenerationFailed.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}
	return newError(KindGenerationFailed, err)
}
