package errors

// ErrorCode is the stable, machine-readable code returned to API clients.
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_CONFLICT
	ErrorCode_UNAUTHENTICATED
	ErrorCode_PERMISSION_DENIED
	ErrorCode_TOO_MANY_REQUESTS
	ErrorCode_INVALID_PAYLOAD

	ErrorCode_AUTH_INVALID_SIGNATURE

	ErrorCode_MEETING_NOT_FOUND
	ErrorCode_SUGGESTION_NOT_FOUND
	ErrorCode_SUGGESTION_INVALID_STATE
	ErrorCode_COPILOT_RUN_FAILED
	ErrorCode_COPILOT_RUN_IN_PROGRESS
	ErrorCode_COPILOT_UNSUPPORTED_LANGUAGE

	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_DB_QUERY_FAILED
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                  "UNSPECIFIED",
	ErrorCode_INTERNAL:                     "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:             "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                    "NOT_FOUND",
	ErrorCode_CONFLICT:                     "CONFLICT",
	ErrorCode_UNAUTHENTICATED:              "UNAUTHENTICATED",
	ErrorCode_PERMISSION_DENIED:            "PERMISSION_DENIED",
	ErrorCode_TOO_MANY_REQUESTS:            "TOO_MANY_REQUESTS",
	ErrorCode_INVALID_PAYLOAD:              "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_SIGNATURE:       "AUTH_INVALID_SIGNATURE",
	ErrorCode_MEETING_NOT_FOUND:            "MEETING_NOT_FOUND",
	ErrorCode_SUGGESTION_NOT_FOUND:         "SUGGESTION_NOT_FOUND",
	ErrorCode_SUGGESTION_INVALID_STATE:     "SUGGESTION_INVALID_STATE",
	ErrorCode_COPILOT_RUN_FAILED:           "COPILOT_RUN_FAILED",
	ErrorCode_COPILOT_RUN_IN_PROGRESS:      "COPILOT_RUN_IN_PROGRESS",
	ErrorCode_COPILOT_UNSUPPORTED_LANGUAGE: "COPILOT_UNSUPPORTED_LANGUAGE",
	ErrorCode_INTEGRATION_STORAGE_FAILED:   "INTEGRATION_STORAGE_FAILED",
	ErrorCode_DB_QUERY_FAILED:              "DB_QUERY_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return errorCodeNames[ErrorCode_UNSPECIFIED]
}
