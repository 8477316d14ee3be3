package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_StatusFollowsCode(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, ErrCopilotRunInProgress("m1").HTTPCode)
	assert.Equal(t, http.StatusBadGateway, ErrCopilotRunFailed(nil).HTTPCode)
	assert.Equal(t, http.StatusConflict, ErrSuggestionInvalidState("s1").HTTPCode)
	assert.Equal(t, http.StatusInternalServerError, New(ErrorCode_UNSPECIFIED, "?").HTTPCode)
	assert.False(t, ErrInternal(nil).Timestamp.IsZero())
}

func TestWithDetail_DoesNotShareMap(t *testing.T) {
	base := ErrInvalidArgument("Validation failed").WithDetail("Mode", "oneof")
	other := base.WithDetail("MeetingID", "uuid")

	assert.Equal(t, map[string]string{"Mode": "oneof"}, base.Details)
	assert.Len(t, other.Details, 2)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stdErrors.New("bucket missing")
	err := error(ErrStorageFailed("presign", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[INTEGRATION_STORAGE_FAILED] Storage operation failed: presign: bucket missing", err.Error())
}
