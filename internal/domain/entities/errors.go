package entities

import "errors"

// Domain errors
var (
	ErrUnknownSuggestionType = errors.New("unknown suggestion type")
	ErrInvalidPayload        = errors.New("invalid suggestion payload")
	ErrSuggestionClosed      = errors.New("suggestion is no longer open")
	ErrRunAlreadyFinished    = errors.New("copilot run already finished")
	ErrUnsupportedLanguage   = errors.New("unsupported language")
)
