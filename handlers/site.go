package handlers

import (
	"agency_site_go/middleware"
	"agency_site_go/services/routing"
	"agency_site_go/services/site"
	"agency_site_go/templates/pages"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

var (
	// Site builds the public page views. Set once at startup.
	Site *site.Builder
	// Shell is the document template the public pages are rendered into.
	Shell = pages.Shell()
)

// Configure installs the page builder and, when non-empty, a custom shell.
func Configure(b *site.Builder, shell string) {
	Site = b
	if shell != "" {
		Shell = shell
	}
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// pageRequest collects the per-request inputs of a page view.
func pageRequest(c echo.Context, path string) site.Request {
	ctx := c.Request().Context()
	return site.Request{
		Path:       path,
		Nonce:      middleware.GetNonce(ctx),
		CSRF:       middleware.GetCSRFToken(c),
		CSSVersion: middleware.GetCSSVersion(ctx),
		JSVersion:  middleware.GetAppJSVersion(ctx),
	}
}

// renderDocument writes a full public page with status.
func renderDocument(c echo.Context, status int, view *pages.PublicPage) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return pages.Document(Shell, view).Render(c.Request().Context(), c.Response().Writer)
}

// renderFragment writes an HTMX partial with status.
func renderFragment(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response().Writer)
}

func currentLocale(c echo.Context) routing.Locale {
	lang := middleware.GetLocale(c)
	if routing.IsLocale(lang) {
		return routing.Locale(lang)
	}
	return Site.Router().DefaultLocale()
}
