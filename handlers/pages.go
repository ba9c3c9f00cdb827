package handlers

import (
	"errors"
	"net/http"
	"strings"

	"agency_site_go/logging"
	"agency_site_go/services/routing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PageHandler renders any public page. Unknown paths get the localized 404.
func PageHandler(c echo.Context) error {
	req := pageRequest(c, c.Request().URL.Path)
	req.Sent = c.QueryParam("sent") == "1"
	if service := c.QueryParam("service"); service != "" {
		if p, ok := routing.ParsePageType(service); ok && p.IsService() {
			req.Prefill = map[string]string{"service": service}
		}
	}

	view, found, err := Site.Page(req)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if !found {
		status = http.StatusNotFound
	}
	return renderDocument(c, status, view)
}

// HTTPErrorHandler renders localized error pages for browser requests to
// public pages and falls back to echo's handler for everything else.
func HTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if code >= http.StatusInternalServerError {
			logging.L().Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		if Site == nil || !wantsPage(c) || (code != http.StatusNotFound && code < http.StatusInternalServerError) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		req := pageRequest(c, c.Request().URL.Path)
		view := Site.NotFound(currentLocale(c), req)
		if code != http.StatusNotFound {
			view = Site.Error(currentLocale(c), req)
		}
		if rerr := renderDocument(c, code, view); rerr != nil {
			logging.L().Error("failed to render error page", zap.Error(rerr))
		}
	}
}

// wantsPage reports whether the request is a browser navigation to a public page.
func wantsPage(c echo.Context) bool {
	r := c.Request()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	if isHTMX(c) {
		return false
	}
	for _, prefix := range []string{"/admin", "/static", "/forms"} {
		if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
			return false
		}
	}
	return true
}
