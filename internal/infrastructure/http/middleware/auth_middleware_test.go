package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/johnquangdev/meeting-copilot/pkg/jwt"
)

func newAuthedEcho(tokens TokenValidator) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, id.String())
	}, EchoAuth(tokens))
	return e
}

func TestEchoAuth_BearerToken(t *testing.T) {
	m := pkgjwt.NewManager("secret", time.Minute, "meeting-copilot")
	userID := uuid.New()
	token, err := m.GenerateAccessToken(userID, "bob@test.local")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthedEcho(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String())
}

func TestEchoAuth_CookieFallback(t *testing.T) {
	m := pkgjwt.NewManager("secret", time.Minute, "meeting-copilot")
	token, err := m.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	newAuthedEcho(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEchoAuth_Rejects(t *testing.T) {
	m := pkgjwt.NewManager("secret", time.Minute, "meeting-copilot")

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-token",
		"scheme":  "Basic abc",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			newAuthedEcho(m).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
