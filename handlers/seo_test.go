package handlers

import (
	"encoding/xml"
	"net/http"
	"testing"

	"agency_site_go/services/routing"
	"agency_site_go/services/sitemap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotsHandler(t *testing.T) {
	setupSite(t)

	_, c, rec := setupEcho(http.MethodGet, "/robots.txt", nil)
	require.NoError(t, RobotsHandler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /admin/\n")
	assert.Contains(t, rec.Body.String(), "Sitemap: "+testBaseURL+"/sitemap.xml\n")
}

func TestSitemapIndexHandler(t *testing.T) {
	setupSite(t)

	_, c, rec := setupEcho(http.MethodGet, "/sitemap.xml", nil)
	require.NoError(t, SitemapIndexHandler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")

	var index sitemap.Index
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &index))
	require.Len(t, index.Sitemaps, 2)
	assert.Equal(t, testBaseURL+"/sitemap-me.xml", index.Sitemaps[0].Loc)
	assert.Equal(t, testBaseURL+"/sitemap-en.xml", index.Sitemaps[1].Loc)
}

func TestSitemapHandler(t *testing.T) {
	setupSite(t)

	_, c, rec := setupEcho(http.MethodGet, "/sitemap-en.xml", nil)
	require.NoError(t, SitemapHandler(routing.LocaleEN)(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>"+testBaseURL+"/en/services/web-design</loc>")
	assert.Contains(t, body, `hreflang="x-default"`)
	assert.NotContains(t, body, "<loc>"+testBaseURL+"/usluge/web-dizajn</loc>")
}

func TestHealthHandler(t *testing.T) {
	setupTestDB(t)

	_, c, rec := setupEcho(http.MethodGet, "/healthz", nil)
	require.NoError(t, HealthHandler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
