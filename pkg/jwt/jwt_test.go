package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Minute, "meeting-copilot")
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "alice@test.local")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@test.local", claims.Email)
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret", time.Minute, "meeting-copilot").GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = NewManager("other", time.Minute, "meeting-copilot").ValidateAccessToken(token)
	require.Error(t, err)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", -time.Minute, "meeting-copilot")
	token, err := m.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestManager_RejectsOtherIssuer(t *testing.T) {
	token, err := NewManager("secret", time.Minute, "someone-else").GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = NewManager("secret", time.Minute, "meeting-copilot").ValidateAccessToken(token)
	require.Error(t, err)
}
