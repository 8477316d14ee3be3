package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-copilot/pkg/signature"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body
const SignatureHeader = "X-Signature"

const maxSignedBody = 1 << 20

// RequireSignature middleware: only allow requests whose body is signed with secret.
// The body is restored for the next handler.
func RequireSignature(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSignedBody))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"error":   "invalid_body",
					"message": "failed to read request body",
				})
			}

			if !signature.VerifyHMAC(secret, body, c.Request().Header.Get(SignatureHeader)) {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "invalid_signature",
					"message": "request signature does not match",
				})
			}

			c.Request().Body = io.NopCloser(bytes.NewReader(body))
			return next(c)
		}
	}
}
