package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("resource not found")
	ErrConflict      = errors.New("resource conflict")
	ErrInternalError = errors.New("internal server error")
)

// Copilot errors
var (
	ErrMeetingNotFound     = fmt.Errorf("meeting %w", ErrNotFound)
	ErrSuggestionNotFound  = fmt.Errorf("suggestion %w", ErrNotFound)
	ErrSuggestionClosed    = fmt.Errorf("suggestion is no longer open: %w", ErrConflict)
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrRunInProgress       = errors.New("copilot run already in progress")
	ErrNoSegments          = errors.New("no transcript segments available")
)

// Pipeline failure kinds. Match them with errors.Is on a *PipelineError.
var (
	ErrGateway           = errors.New("model gateway error")
	ErrRateLimited       = errors.New("model rate limited")
	ErrTimeout           = errors.New("model call timed out")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrInvalidOutput     = errors.New("invalid model output")
)

// PipelineError carries a failure kind, a human readable reason and the underlying cause.
type PipelineError struct {
	Kind   error
	Reason string
	Err    error
}

func NewPipelineError(kind error, reason string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Reason: reason, Err: cause}
}

// InvalidOutput is shorthand for validator failures.
func InvalidOutput(format string, args ...any) *PipelineError {
	return &PipelineError{Kind: ErrInvalidOutput, Reason: fmt.Sprintf(format, args...)}
}

func (e *PipelineError) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Temporary reports whether retrying the whole attempt may succeed.
func (e *PipelineError) Temporary() bool {
	switch e.Kind {
	case ErrRateLimited, ErrTimeout, ErrGateway:
		return true
	}
	return false
}

// IsRetryable reports whether the model gateway retries this failure itself.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}
