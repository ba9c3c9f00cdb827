package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agency_site_go/db"
	"agency_site_go/models"
	"agency_site_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dbName := "mw_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&models.AdminUser{}, &models.Session{}))

	// Set the global DB variable used by middleware
	db.DB = testDB
	t.Cleanup(func() {
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return testDB
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "success")
}

func TestRequireAuth(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()

	user, err := services.CreateAdminUser(testDB, "Test Admin", "admin@agencija.me", "correct-horse-battery", "me")
	require.NoError(t, err)
	session, err := services.CreateSession(testDB, user.ID, "127.0.0.1", "test-agent")
	require.NoError(t, err)

	t.Run("ValidSession", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, GetCurrentUser(c).ID)
		assert.Equal(t, session.ID, GetCurrentSession(c).ID)
	})

	t.Run("NoCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
		assert.Nil(t, GetCurrentUser(c))
	})

	t.Run("HTMXRequest", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/leads/contact", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("HX-Redirect"))
	})

	t.Run("UnknownToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "nope"})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("ExpiredSession", func(t *testing.T) {
		expired, err := services.CreateSession(testDB, user.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		require.NoError(t, testDB.Model(expired).Update("expires_at", time.Now().Add(-time.Minute)).Error)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: expired.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		var count int64
		testDB.Model(&models.Session{}).Where("id = ?", expired.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		other, err := services.CreateAdminUser(testDB, "Former", "former@agencija.me", "correct-horse-battery", "en")
		require.NoError(t, err)
		s, err := services.CreateSession(testDB, other.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		require.NoError(t, testDB.Model(other).Update("is_active", false).Error)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: s.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestSetSessionCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	SetSessionCookie(c, &models.Session{Token: "abc", ExpiresAt: time.Now().Add(time.Hour)})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, "/admin", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)
}
