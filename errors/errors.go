package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error shape returned to API clients
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail returns a copy carrying one more detail entry
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// WithRaw attaches the underlying cause
func (e AppError) WithRaw(err error) AppError {
	e.Raw = err
	return e
}

var httpStatus = map[ErrorCode]int{
	ErrorCode_INTERNAL:                     http.StatusInternalServerError,
	ErrorCode_INVALID_ARGUMENT:             http.StatusBadRequest,
	ErrorCode_INVALID_PAYLOAD:              http.StatusBadRequest,
	ErrorCode_NOT_FOUND:                    http.StatusNotFound,
	ErrorCode_CONFLICT:                     http.StatusConflict,
	ErrorCode_UNAUTHENTICATED:              http.StatusUnauthorized,
	ErrorCode_PERMISSION_DENIED:            http.StatusForbidden,
	ErrorCode_TOO_MANY_REQUESTS:            http.StatusTooManyRequests,
	ErrorCode_AUTH_INVALID_SIGNATURE:       http.StatusUnauthorized,
	ErrorCode_MEETING_NOT_FOUND:            http.StatusNotFound,
	ErrorCode_SUGGESTION_NOT_FOUND:         http.StatusNotFound,
	ErrorCode_SUGGESTION_INVALID_STATE:     http.StatusConflict,
	ErrorCode_COPILOT_RUN_FAILED:           http.StatusBadGateway,
	ErrorCode_COPILOT_RUN_IN_PROGRESS:      http.StatusTooManyRequests,
	ErrorCode_COPILOT_UNSUPPORTED_LANGUAGE: http.StatusBadRequest,
	ErrorCode_INTEGRATION_STORAGE_FAILED:   http.StatusInternalServerError,
	ErrorCode_DB_QUERY_FAILED:              http.StatusInternalServerError,
}

// New builds an AppError whose HTTP status follows from its code
func New(code ErrorCode, message string) AppError {
	status, ok := httpStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return AppError{
		HTTPCode:  status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// General
func ErrInternal(err error) AppError {
	return New(ErrorCode_INTERNAL, "Internal server error").WithRaw(err)
}

func ErrInvalidArgument(message string) AppError {
	return New(ErrorCode_INVALID_ARGUMENT, message)
}

func ErrInvalidPayload() AppError {
	return New(ErrorCode_INVALID_PAYLOAD, "Invalid payload")
}

func ErrNotFound(resource string) AppError {
	return New(ErrorCode_NOT_FOUND, resource+" not found")
}

func ErrConflict(message string) AppError {
	return New(ErrorCode_CONFLICT, message)
}

func ErrUnauthenticated() AppError {
	return New(ErrorCode_UNAUTHENTICATED, "Authentication required")
}

func ErrInvalidSignature() AppError {
	return New(ErrorCode_AUTH_INVALID_SIGNATURE, "Invalid request signature")
}

// Copilot
func ErrMeetingNotFound(meetingID string) AppError {
	return New(ErrorCode_MEETING_NOT_FOUND, "Meeting not found").WithDetail("meeting_id", meetingID)
}

func ErrSuggestionNotFound(suggestionID string) AppError {
	return New(ErrorCode_SUGGESTION_NOT_FOUND, "Suggestion not found").WithDetail("suggestion_id", suggestionID)
}

func ErrSuggestionInvalidState(suggestionID string) AppError {
	return New(ErrorCode_SUGGESTION_INVALID_STATE, "Suggestion can no longer be changed").WithDetail("suggestion_id", suggestionID)
}

// ErrCopilotRunFailed keeps the pipeline cause in Raw for logs only
func ErrCopilotRunFailed(err error) AppError {
	return New(ErrorCode_COPILOT_RUN_FAILED, "Copilot analysis failed").WithRaw(err)
}

func ErrCopilotRunInProgress(meetingID string) AppError {
	return New(ErrorCode_COPILOT_RUN_IN_PROGRESS, "A copilot run is already in progress for this meeting").WithDetail("meeting_id", meetingID)
}

func ErrCopilotUnsupportedLanguage(language string) AppError {
	return New(ErrorCode_COPILOT_UNSUPPORTED_LANGUAGE, "Unsupported copilot language").WithDetail("language", language)
}

// Integrations
func ErrStorageFailed(operation string, err error) AppError {
	return New(ErrorCode_INTEGRATION_STORAGE_FAILED, "Storage operation failed: "+operation).WithRaw(err)
}

func ErrDBQueryFailed(query string, err error) AppError {
	return New(ErrorCode_DB_QUERY_FAILED, "Database query failed").WithRaw(err).WithDetail("query", query)
}
