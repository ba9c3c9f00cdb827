package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"agency_site_go/db"
	"agency_site_go/logging"
	"agency_site_go/services/routing"
	"agency_site_go/services/sitemap"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RobotsHandler serves robots.txt. The admin and form endpoints are never
// indexed.
func RobotsHandler(c echo.Context) error {
	router := Site.Router()
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /forms/\n")
	b.WriteString("\n")
	b.WriteString("Sitemap: " + router.AbsoluteURL("/sitemap.xml") + "\n")
	return c.String(http.StatusOK, b.String())
}

func buildSitemap() (*sitemap.Set, error) {
	return sitemap.Build(Site.Router(), sitemap.Options{
		Generated: time.Now().UTC().Format("2006-01-02"),
	})
}

func writeSitemap(c echo.Context, name string) error {
	set, err := buildSitemap()
	if err != nil {
		logging.L().Error("failed to build sitemap", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build sitemap")
	}
	doc, ok, err := set.Document(name)
	if err != nil {
		logging.L().Error("failed to encode sitemap", zap.String("name", name), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build sitemap")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Sitemap not found")
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", doc)
}

// SitemapIndexHandler serves the sitemap index at /sitemap.xml and
// /sitemap-index.xml.
func SitemapIndexHandler(c echo.Context) error {
	return writeSitemap(c, sitemap.IndexFile)
}

// SitemapHandler serves one locale's sitemap. echo params cannot carry a
// suffix, so the server registers one route per locale.
func SitemapHandler(locale routing.Locale) echo.HandlerFunc {
	return func(c echo.Context) error {
		return writeSitemap(c, sitemap.FileName(locale))
	}
}

// HealthHandler reports whether the database answers.
func HealthHandler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logging.L().Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
