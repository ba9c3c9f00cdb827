package handlers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agency_site_go/config"
	"agency_site_go/db"
	"agency_site_go/models"
	"agency_site_go/services"
	"agency_site_go/services/content"
	"agency_site_go/services/i18n"
	"agency_site_go/services/routing"
	"agency_site_go/services/site"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testBaseURL = "https://agencija.me"

func setupTestDB(t *testing.T) *gorm.DB {
	// Use unique shared memory name to isolate tests while allowing shared cache for async tasks
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.AllModels()...))

	services.Storage = services.NewLocalStorage(t.TempDir())
	db.DB = testDB

	t.Cleanup(func() {
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return testDB
}

// setupSite installs a page builder over the embedded content.
func setupSite(t *testing.T) *site.Builder {
	t.Helper()
	require.NoError(t, i18n.Load())
	router, err := routing.Default(testBaseURL)
	require.NoError(t, err)
	store, err := content.Default()
	require.NoError(t, err)
	b, err := site.New(router, store,
		site.WithSiteName("Digitalna Agencija"),
		site.WithClock(func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	Configure(b, "")
	return b
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:   "test",
		SiteBaseURL:   testBaseURL,
		SiteName:      "Digitalna Agencija",
		DefaultLocale: "me",
		EmailTestMode: true,
		NotifyEmails:  []string{"team@agencija.me"},
	}
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", testConfig())
	return e, c, rec
}

// postForm builds a url-encoded POST context, optionally as an HTMX request.
func postForm(path, body string, htmx bool) (echo.Context, *httptest.ResponseRecorder) {
	_, c, rec := setupEcho("POST", path, strings.NewReader(body))
	c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if htmx {
		c.Request().Header.Set("HX-Request", "true")
	}
	return c, rec
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}
