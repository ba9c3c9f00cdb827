package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"agency_site_go/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const NonceKey contextKey = "csp_nonce"

// GenerateNonce creates a random nonce string
func GenerateNonce() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// CSPNonce middleware generates a nonce for each request and adds it to the context
func CSPNonce() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			nonce, err := GenerateNonce()
			if err != nil {
				logging.L().Error("failed to generate nonce", zap.Error(err))
				nonce = "fallback-nonce-value"
			}

			// Add to Echo context (for handlers)
			c.Set(string(NonceKey), nonce)

			// Add to Request context (for Templ)
			ctx := context.WithValue(c.Request().Context(), NonceKey, nonce)
			c.SetRequest(c.Request().WithContext(ctx))

			c.Response().Header().Set("Content-Security-Policy", ContentSecurityPolicy(nonce))

			return next(c)
		}
	}
}

// GetNonce retrieves the nonce from the context
func GetNonce(ctx context.Context) string {
	if val, ok := ctx.Value(NonceKey).(string); ok {
		return val
	}
	return ""
}

// ContentSecurityPolicy builds the CSP header value for nonce. Prerendered
// pages carry no nonce and rely on the 'self' sources only.
func ContentSecurityPolicy(nonce string) string {
	script := "'self'"
	if nonce != "" {
		script = fmt.Sprintf("'self' 'nonce-%s'", nonce)
	}
	return fmt.Sprintf("default-src 'self'; script-src %s https://unpkg.com https://challenges.cloudflare.com; "+
		"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'; "+
		"connect-src 'self' https://challenges.cloudflare.com; frame-src https://challenges.cloudflare.com; "+
		"base-uri 'self'; form-action 'self'", script)
}
