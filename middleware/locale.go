package middleware

import (
	"net/http"
	"strings"
	"time"

	"agency_site_go/config"
	"agency_site_go/services/i18n"
	"agency_site_go/services/routing"

	"github.com/labstack/echo/v4"
)

// LangCookieName stores the negotiated language for non-page routes.
const LangCookieName = "lang"

// negotiatedPrefixes are routes whose language is not part of the URL.
var negotiatedPrefixes = []string{"/admin", "/forms", "/static", "/healthz"}

// Locale middleware sets the request language.
// Site pages take it from the URL through the router. Everything else uses:
// 1. Query param "lang" (sets cookie)
// 2. Cookie "lang"
// 3. Accept-Language header
// 4. The default locale
func Locale(cfg *config.Config, router *routing.Router) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			var lang string
			if isNegotiated(path) {
				lang = negotiate(c, cfg)
			} else {
				lang = string(router.ParsePathname(path).Locale)
			}

			SetLocale(c, lang)
			return next(c)
		}
	}
}

// SetLocale stores lang on the echo context and the request context.
func SetLocale(c echo.Context, lang string) {
	c.Set("locale", lang)
	c.SetRequest(c.Request().WithContext(i18n.WithLocale(c.Request().Context(), lang)))
}

func isNegotiated(path string) bool {
	for _, p := range negotiatedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func negotiate(c echo.Context, cfg *config.Config) string {
	if lang := c.QueryParam("lang"); lang != "" {
		if !routing.IsLocale(lang) {
			lang = cfg.DefaultLocale
		}
		SetLanguageCookie(c, lang)
		return lang
	}

	if cookie, err := c.Cookie(LangCookieName); err == nil && routing.IsLocale(cookie.Value) {
		return cookie.Value
	}

	if accept := c.Request().Header.Get("Accept-Language"); accept != "" {
		return i18n.Match(accept)
	}
	if cfg.DefaultLocale != "" {
		return cfg.DefaultLocale
	}
	return i18n.DefaultLang
}

// SetLanguageCookie sets the language cookie
func SetLanguageCookie(c echo.Context, lang string) {
	cookie := &http.Cookie{
		Name:     LangCookieName,
		Value:    lang,
		Expires:  time.Now().Add(24 * 365 * time.Hour), // 1 year
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
}

// GetLocale returns the current locale from context
func GetLocale(c echo.Context) string {
	if lang, ok := c.Get("locale").(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLang
}
