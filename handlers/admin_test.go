package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"agency_site_go/db"
	"agency_site_go/middleware"
	"agency_site_go/models"
	"agency_site_go/services"
	"agency_site_go/services/i18n"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

func createTestAdmin(t *testing.T) *models.AdminUser {
	t.Helper()
	user, err := services.CreateAdminUser(db.DB, "Jelena Admin", "admin@agencija.me", testPassword, "me")
	require.NoError(t, err)
	return user
}

func seedContact(t *testing.T, name, email, status string) *models.ContactMessage {
	t.Helper()
	msg := &models.ContactMessage{Lead: models.Lead{
		Name:    name,
		Email:   email,
		Message: "Poruka od " + name,
		Locale:  "me",
		Page:    "home",
		Status:  status,
	}}
	require.NoError(t, services.SaveLead(db.DB, msg))
	return msg
}

// adminContext is an authenticated admin request with route params. The
// echo instance carries the admin lead route so the context has room for
// its params.
func adminContext(t *testing.T, user *models.AdminUser, method, target string, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Add(method, "/admin/leads/:kind/:id/:action", func(c echo.Context) error { return nil })

	req := httptest.NewRequest(method, target, nil)
	if method == http.MethodPost {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("config", testConfig())
	c.Set(middleware.ContextKeyUser, user)

	var names, values []string
	for _, k := range []string{"kind", "id"} {
		if v, ok := params[k]; ok {
			names = append(names, k)
			values = append(values, v)
		}
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	require.Equal(t, params["kind"], c.Param("kind"))
	return c, rec
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, code, he.Code)
}

func TestAdminLoginHandler(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, i18n.Load())
	createTestAdmin(t)

	t.Run("renders the form", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/admin/login", nil)
		require.NoError(t, AdminLoginHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		doc := parseHTML(t, rec)
		assert.Equal(t, 1, doc.Find(`form[action="/admin/login"] input[name="password"]`).Length())
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		form := url.Values{"email": {"admin@agencija.me"}, "password": {"wrong-password"}}
		c, rec := postForm("/admin/login", form.Encode(), false)
		require.NoError(t, AdminLoginPostHandler(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		doc := parseHTML(t, rec)
		assert.Equal(t, "Pogrešan e-mail ili lozinka.", strings.TrimSpace(doc.Find(".form-errors").Text()))
		email, _ := doc.Find(`input[name="email"]`).Attr("value")
		assert.Equal(t, "admin@agencija.me", email)
	})

	t.Run("starts a session", func(t *testing.T) {
		form := url.Values{"email": {"Admin@Agencija.me"}, "password": {testPassword}}
		c, rec := postForm("/admin/login", form.Encode(), false)
		require.NoError(t, AdminLoginPostHandler(c))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin", rec.Header().Get(echo.HeaderLocation))

		var token string
		for _, cookie := range rec.Result().Cookies() {
			if cookie.Name == middleware.SessionCookieName {
				token = cookie.Value
			}
		}
		require.NotEmpty(t, token)
		_, err := services.ValidateSession(db.DB, token)
		assert.NoError(t, err)
	})

	t.Run("reports a locked account", func(t *testing.T) {
		until := time.Now().Add(10 * time.Minute)
		require.NoError(t, db.DB.Model(&models.AdminUser{}).Where("email = ?", "admin@agencija.me").Update("lockout_until", &until).Error)

		form := url.Values{"email": {"admin@agencija.me"}, "password": {testPassword}}
		c, rec := postForm("/admin/login", form.Encode(), false)
		require.NoError(t, AdminLoginPostHandler(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, parseHTML(t, rec).Find(".form-errors").Text(), "zaključan")
	})
}

func TestAdminLogoutHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestAdmin(t)
	session, err := services.CreateSession(db.DB, user.ID, "127.0.0.1", "test")
	require.NoError(t, err)

	c, rec := postForm("/admin/logout", "", false)
	c.Request().AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session.Token})
	require.NoError(t, AdminLogoutHandler(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, middleware.LoginPath, rec.Header().Get(echo.HeaderLocation))
	_, err = services.ValidateSession(db.DB, session.Token)
	assert.Error(t, err)
}

func TestAdminDashboardHandler(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, i18n.Load())
	user := createTestAdmin(t)
	seedContact(t, "Ana", "ana@example.com", models.LeadStatusNew)
	seedContact(t, "Boris", "boris@example.com", models.LeadStatusDone)

	c, rec := adminContext(t, user, http.MethodGet, "/admin", nil)
	require.NoError(t, AdminDashboardHandler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, 3, doc.Find(".tile").Length())
	tile := doc.Find(`.tile a[href="/admin/leads/contact"]`)
	assert.Contains(t, tile.Text(), "2")
	assert.Contains(t, doc.Find("table.leads").Text(), "ana@example.com")
	assert.NotContains(t, doc.Find("table.leads").Text(), "boris@example.com")
	assert.Contains(t, doc.Find(".admin-header").Text(), "Jelena Admin")
}

func TestLeadListHandler(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, i18n.Load())
	user := createTestAdmin(t)
	seedContact(t, "Ana Anić", "ana@example.com", models.LeadStatusNew)
	seedContact(t, "Boris Borić", "boris@example.com", models.LeadStatusDone)
	seedContact(t, "Vesna Vesić", "vesna@example.com", models.LeadStatusNew)

	tests := []struct {
		name   string
		target string
		emails []string
	}{
		{"all", "/admin/leads/contact", []string{"ana@example.com", "boris@example.com", "vesna@example.com"}},
		{"by status", "/admin/leads/contact?status=done", []string{"boris@example.com"}},
		{"by search", "/admin/leads/contact?q=ANA", []string{"ana@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := adminContext(t, user, http.MethodGet, tt.target, map[string]string{"kind": "contact"})
			require.NoError(t, LeadListHandler(c))

			doc := parseHTML(t, rec)
			var emails []string
			doc.Find(`table.leads td a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
				emails = append(emails, s.Text())
			})
			assert.ElementsMatch(t, tt.emails, emails)
		})
	}

	t.Run("export link keeps the filter", func(t *testing.T) {
		c, rec := adminContext(t, user, http.MethodGet, "/admin/leads/contact?status=new", map[string]string{"kind": "contact"})
		require.NoError(t, LeadListHandler(c))
		href, _ := parseHTML(t, rec).Find(`a[href^="/admin/leads/contact/export"]`).Attr("href")
		assert.Equal(t, "/admin/leads/contact/export?status=new", href)
	})

	t.Run("unknown kind", func(t *testing.T) {
		c, _ := adminContext(t, user, http.MethodGet, "/admin/leads/spam", map[string]string{"kind": "spam"})
		requireHTTPError(t, LeadListHandler(c), http.StatusNotFound)
	})
}

func TestLeadDetailHandler(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, i18n.Load())
	user := createTestAdmin(t)
	msg := seedContact(t, "Ana Anić", "ana@example.com", models.LeadStatusNew)

	c, rec := adminContext(t, user, http.MethodGet, "/admin/leads/contact/"+msg.ID, map[string]string{"kind": "contact", "id": msg.ID})
	require.NoError(t, LeadDetailHandler(c))

	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("dl.lead-fields").Text(), "Poruka od Ana Anić")
	action, _ := doc.Find("form.status-form").Attr("action")
	assert.Equal(t, "/admin/leads/contact/"+msg.ID+"/status", action)
	selected, _ := doc.Find(`form.status-form option[selected]`).Attr("value")
	assert.Equal(t, models.LeadStatusNew, selected)

	t.Run("missing lead", func(t *testing.T) {
		c, _ := adminContext(t, user, http.MethodGet, "/admin/leads/contact/nope", map[string]string{"kind": "contact", "id": "nope"})
		requireHTTPError(t, LeadDetailHandler(c), http.StatusNotFound)
	})
}

func TestLeadStatusHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestAdmin(t)
	msg := seedContact(t, "Ana", "ana@example.com", models.LeadStatusNew)
	params := map[string]string{"kind": "contact", "id": msg.ID}

	c, rec := adminContext(t, user, http.MethodPost, "/admin/leads/contact/"+msg.ID+"/status", params)
	c.Request().Form = url.Values{"status": {models.LeadStatusInProgress}}
	require.NoError(t, LeadStatusHandler(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/leads/contact/"+msg.ID+"?flash=status_updated", rec.Header().Get(echo.HeaderLocation))
	var saved models.ContactMessage
	require.NoError(t, db.DB.First(&saved, "id = ?", msg.ID).Error)
	assert.Equal(t, models.LeadStatusInProgress, saved.Status)

	history, err := services.GetResourceAuditHistory(db.DB, "contact", msg.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.AuditActionStatusChange, history[0].Action)
	assert.Equal(t, user.Name, history[0].UserName)

	t.Run("history on detail page", func(t *testing.T) {
		require.NoError(t, i18n.Load())
		c, rec := adminContext(t, user, http.MethodGet, "/admin/leads/contact/"+msg.ID, params)
		require.NoError(t, LeadDetailHandler(c))
		doc := parseHTML(t, rec)
		assert.Contains(t, doc.Find(".history li").First().Text(), "Status promijenjen iz Novo")
	})

	t.Run("invalid status", func(t *testing.T) {
		c, _ := adminContext(t, user, http.MethodPost, "/admin/leads/contact/"+msg.ID+"/status", params)
		c.Request().Form = url.Values{"status": {"spam"}}
		requireHTTPError(t, LeadStatusHandler(c), http.StatusBadRequest)
	})
}

func TestLeadDeleteHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestAdmin(t)
	msg := seedContact(t, "Ana", "ana@example.com", models.LeadStatusNew)

	c, rec := adminContext(t, user, http.MethodPost, "/admin/leads/contact/"+msg.ID+"/delete", map[string]string{"kind": "contact", "id": msg.ID})
	c.Request().Header.Set("HX-Request", "true")
	require.NoError(t, LeadDeleteHandler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/admin/leads/contact?flash=deleted", rec.Header().Get("HX-Redirect"))
	_, err := services.GetLead(db.DB, models.LeadKindContact, msg.ID)
	assert.ErrorIs(t, err, services.ErrLeadNotFound)
}

func TestLeadExportHandler(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, i18n.Load())
	user := createTestAdmin(t)
	seedContact(t, "Ana", "ana@example.com", models.LeadStatusNew)

	c, rec := adminContext(t, user, http.MethodGet, "/admin/leads/contact/export", map[string]string{"kind": "contact"})
	require.NoError(t, LeadExportHandler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "contact-")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestLeadAttachmentHandler(t *testing.T) {
	setupTestDB(t)
	user := createTestAdmin(t)

	inq := &models.ServiceInquiry{
		Lead:    models.Lead{ID: newLeadID(), Name: "Petar", Email: "petar@example.me", Message: "Brief", Locale: "me"},
		Service: "seo",
	}
	key := services.GenerateInquiryAttachmentKey(inq.ID, "brief.txt")
	result, err := services.Storage.Put(context.Background(), key, strings.NewReader("brief content"), "text/plain", 13)
	require.NoError(t, err)
	inq.FilePath = result.Key
	inq.FileOriginalName = "brief.txt"
	inq.FileSize = result.Size
	inq.FileContentType = "text/plain; charset=utf-8"
	require.NoError(t, services.SaveLead(db.DB, inq))

	c, rec := adminContext(t, user, http.MethodGet, "/admin/leads/inquiry/"+inq.ID+"/attachment", map[string]string{"kind": "inquiry", "id": inq.ID})
	require.NoError(t, LeadAttachmentHandler(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "brief content", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `filename="brief.txt"`)

	t.Run("contact messages have no attachment", func(t *testing.T) {
		msg := seedContact(t, "Ana", "ana@example.com", models.LeadStatusNew)
		c, _ := adminContext(t, user, http.MethodGet, "/admin/leads/contact/"+msg.ID+"/attachment", map[string]string{"kind": "contact", "id": msg.ID})
		requireHTTPError(t, LeadAttachmentHandler(c), http.StatusNotFound)
	})
}

func TestAdminLeadRoutes(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, i18n.Load())
	user := createTestAdmin(t)
	msg := seedContact(t, "Ana", "ana@example.com", models.LeadStatusNew)

	e := echo.New()
	admin := e.Group("/admin", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", testConfig())
			c.Set(middleware.ContextKeyUser, user)
			return next(c)
		}
	}, middleware.AuditContext())
	admin.GET("/leads/:kind", LeadListHandler)
	admin.GET("/leads/:kind/export", LeadExportHandler)
	admin.GET("/leads/:kind/:id", LeadDetailHandler)
	admin.POST("/leads/:kind/:id/status", LeadStatusHandler)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"list", http.MethodGet, "/admin/leads/contact", "", http.StatusOK},
		{"unknown kind", http.MethodGet, "/admin/leads/spam", "", http.StatusNotFound},
		{"export", http.MethodGet, "/admin/leads/contact/export", "", http.StatusOK},
		{"detail", http.MethodGet, "/admin/leads/contact/" + msg.ID, "", http.StatusOK},
		{"status", http.MethodPost, "/admin/leads/contact/" + msg.ID + "/status", "status=done", http.StatusSeeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	var saved models.ContactMessage
	require.NoError(t, db.DB.First(&saved, "id = ?", msg.ID).Error)
	assert.Equal(t, models.LeadStatusDone, saved.Status)
}
