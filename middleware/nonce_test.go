package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directives splits a CSP header into directive name -> sources.
func directives(csp string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(csp, ";") {
		name, sources, _ := strings.Cut(strings.TrimSpace(part), " ")
		if name != "" {
			out[name] = sources
		}
	}
	return out
}

func TestGenerateNonceUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		n, err := GenerateNonce()
		require.NoError(t, err)
		assert.Len(t, n, 22, "16 random bytes in unpadded base64")
		assert.False(t, seen[n])
		seen[n] = true
	}
}

func TestCSPNonceOnPageRequest(t *testing.T) {
	e := echo.New()
	var fromTemplate string
	e.GET("/usluge/seo", func(c echo.Context) error {
		fromTemplate = GetNonce(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, CSPNonce())

	req := httptest.NewRequest(http.MethodGet, "/usluge/seo", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, fromTemplate)
	d := directives(rec.Header().Get("Content-Security-Policy"))
	assert.Contains(t, d["script-src"], "'nonce-"+fromTemplate+"'")
}

func TestContentSecurityPolicySources(t *testing.T) {
	d := directives(ContentSecurityPolicy("abc"))

	tests := []struct {
		directive string
		source    string
	}{
		{"script-src", "'nonce-abc'"},
		{"script-src", "https://unpkg.com"},                  // htmx
		{"script-src", "https://challenges.cloudflare.com"},  // Turnstile widget
		{"frame-src", "https://challenges.cloudflare.com"},   // Turnstile iframe
		{"connect-src", "https://challenges.cloudflare.com"}, // Turnstile verify
		{"form-action", "'self'"},                            // lead forms post back to the site
		{"img-src", "data:"},
	}
	for _, tt := range tests {
		t.Run(tt.directive+" "+tt.source, func(t *testing.T) {
			assert.Contains(t, d[tt.directive], tt.source)
		})
	}
}

func TestContentSecurityPolicyPrerendered(t *testing.T) {
	csp := ContentSecurityPolicy("")
	assert.NotContains(t, csp, "nonce-")
	assert.Equal(t, "'self' https://unpkg.com https://challenges.cloudflare.com", directives(csp)["script-src"])
}

func TestGetNonceMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/en/", nil)
	assert.Empty(t, GetNonce(req.Context()))
}
