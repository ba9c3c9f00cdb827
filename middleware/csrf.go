package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"agency_site_go/config"
	"agency_site_go/logging"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// PublicFormPrefix is where the anonymous lead forms post to.
const PublicFormPrefix = "/forms/"

// CSRF guards every unsafe request except the public lead forms, which can
// be served from prerendered HTML that carries no token. SameOrigin covers those.
func CSRF(cfg *config.Config) echo.MiddlewareFunc {
	return echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "form:_csrf,header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.IsProduction(),
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, PublicFormPrefix)
		},
	})
}

// GetCSRFToken retrieves the CSRF token from the Echo context
// This token should be included in forms and AJAX requests
func GetCSRFToken(c echo.Context) string {
	token := c.Get("csrf")
	if token == nil {
		return ""
	}
	if tokenStr, ok := token.(string); ok {
		return tokenStr
	}
	return ""
}

// SameOrigin rejects unsafe requests whose Origin (or Referer) is neither
// the request host nor one of the allowed origins. Requests without either
// header pass.
func SameOrigin(allowed ...string) echo.MiddlewareFunc {
	hosts := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		if a == "*" || a == "" {
			continue
		}
		if u, err := url.Parse(a); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)] = struct{}{}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			source := req.Header.Get(echo.HeaderOrigin)
			if source == "" {
				source = req.Referer()
			}
			if source == "" {
				return next(c)
			}

			u, err := url.Parse(source)
			if err == nil && u.Host != "" {
				host := strings.ToLower(u.Host)
				if host == strings.ToLower(req.Host) {
					return next(c)
				}
				if _, ok := hosts[host]; ok {
					return next(c)
				}
			}

			logging.L().Warn("cross-origin form post rejected",
				zap.String("origin", source),
				zap.String("path", req.URL.Path),
				zap.String("ip", c.RealIP()),
			)
			return echo.NewHTTPError(http.StatusForbidden, "cross-origin request")
		}
	}
}
