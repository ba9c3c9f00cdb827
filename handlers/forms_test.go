package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"agency_site_go/db"
	"agency_site_go/models"
	"agency_site_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactValues() url.Values {
	return url.Values{
		"name":    {"Marko Marković"},
		"email":   {"marko@example.me"},
		"message": {"Treba nam novi sajt."},
		"locale":  {"me"},
		"page":    {"home"},
	}
}

func TestContactFormHandler(t *testing.T) {
	setupTestDB(t)
	setupSite(t)

	t.Run("plain post redirects to the sent page", func(t *testing.T) {
		c, rec := postForm("/forms/contact", contactValues().Encode(), false)
		require.NoError(t, ContactFormHandler(c))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/?sent=1#contact-form", rec.Header().Get(echo.HeaderLocation))

		var saved models.ContactMessage
		require.NoError(t, db.DB.Where("email = ?", "marko@example.me").First(&saved).Error)
		assert.Equal(t, "Marko Marković", saved.Name)
		assert.Equal(t, "me", saved.Locale)
		assert.Equal(t, "home", saved.Page)
		assert.Equal(t, models.LeadStatusNew, saved.Status)
	})

	t.Run("htmx post returns the success fragment", func(t *testing.T) {
		values := contactValues()
		values.Set("email", "ana@example.com")
		values.Set("locale", "en")
		c, rec := postForm("/forms/contact", values.Encode(), true)
		require.NoError(t, ContactFormHandler(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		doc := parseHTML(t, rec)
		assert.Equal(t, 1, doc.Find(".form-success").Length())
		assert.Equal(t, "Thank you!", strings.TrimSpace(doc.Find(".form-success h3").Text()))
		href, _ := doc.Find(".form-success a").Attr("href")
		assert.Equal(t, "/en", href)
	})

	t.Run("htmx validation errors", func(t *testing.T) {
		values := contactValues()
		values.Set("email", "not-an-email")
		values.Del("message")
		c, rec := postForm("/forms/contact", values.Encode(), true)
		require.NoError(t, ContactFormHandler(c))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		doc := parseHTML(t, rec)
		assert.Equal(t, 1, doc.Find(".form-errors").Length())
		assert.Equal(t, 2, doc.Find(".field.has-error").Length())
		name, _ := doc.Find(`input[name="name"]`).Attr("value")
		assert.Equal(t, "Marko Marković", name)
	})

	t.Run("plain validation errors render the page", func(t *testing.T) {
		values := contactValues()
		values.Set("email", "")
		values.Set("locale", "en")
		c, rec := postForm("/forms/contact", values.Encode(), false)
		require.NoError(t, ContactFormHandler(c))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		doc := parseHTML(t, rec)
		lang, _ := doc.Find("html").Attr("lang")
		assert.Equal(t, "en", lang)
		assert.Equal(t, 1, doc.Find("form#contact-form .field.has-error").Length())
	})

	t.Run("honeypot pretends success", func(t *testing.T) {
		values := contactValues()
		values.Set("email", "bot@example.com")
		values.Set(honeypotField, "https://spam.example")
		c, rec := postForm("/forms/contact", values.Encode(), false)
		require.NoError(t, ContactFormHandler(c))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		var count int64
		db.DB.Model(&models.ContactMessage{}).Where("email = ?", "bot@example.com").Count(&count)
		assert.Zero(t, count)
	})
}

func TestConsultationFormHandler(t *testing.T) {
	setupTestDB(t)
	setupSite(t)

	values := url.Values{
		"name":              {"Jane Doe"},
		"email":             {"jane@example.com"},
		"website":           {"example.com"},
		"topic":             {"Redesign of our shop"},
		"preferred_contact": {"video"},
		"locale":            {"en"},
		"page":              {"free-consultation"},
	}
	c, rec := postForm("/forms/consultation", values.Encode(), false)
	require.NoError(t, ConsultationFormHandler(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/en/free-consultation?sent=1#consultation-form", rec.Header().Get(echo.HeaderLocation))

	var saved models.ConsultationRequest
	require.NoError(t, db.DB.First(&saved).Error)
	assert.Equal(t, "https://example.com", saved.Website)
	assert.Equal(t, "video", saved.PreferredContact)
	assert.Equal(t, "en", saved.Locale)
}

func multipartInquiry(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fields := map[string]string{
		"name":    "Petar Petrović",
		"email":   "petar@example.me",
		"service": "seo",
		"budget":  "1000_3000",
		"message": "Želimo bolju poziciju na Google-u.",
		"locale":  "me",
		"page":    "service-inquiry",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("attachment", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestInquiryFormHandler(t *testing.T) {
	setupTestDB(t)
	setupSite(t)

	t.Run("stores the attachment", func(t *testing.T) {
		body, contentType := multipartInquiry(t, "brief.txt", []byte("Kratak opis projekta."))
		_, c, rec := setupEcho(http.MethodPost, "/forms/service-inquiry", body)
		c.Request().Header.Set(echo.HeaderContentType, contentType)
		require.NoError(t, InquiryFormHandler(c))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/upit-za-uslugu?sent=1#inquiry-form", rec.Header().Get(echo.HeaderLocation))

		var saved models.ServiceInquiry
		require.NoError(t, db.DB.First(&saved).Error)
		assert.Equal(t, "seo", saved.Service)
		assert.Equal(t, "brief.txt", saved.FileOriginalName)
		assert.True(t, saved.HasAttachment())
		assert.True(t, strings.Contains(saved.FilePath, saved.ID))

		rc, err := services.ReadInquiryFile(c.Request().Context(), services.Storage, &saved)
		require.NoError(t, err)
		defer rc.Close()
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		assert.Equal(t, "Kratak opis projekta.", buf.String())
	})

	t.Run("rejects unsupported attachments", func(t *testing.T) {
		body, contentType := multipartInquiry(t, "tool.exe", []byte("MZ\x90\x00"))
		_, c, rec := setupEcho(http.MethodPost, "/forms/service-inquiry", body)
		c.Request().Header.Set(echo.HeaderContentType, contentType)
		c.Request().Header.Set("HX-Request", "true")
		require.NoError(t, InquiryFormHandler(c))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		doc := parseHTML(t, rec)
		assert.Equal(t, 1, doc.Find(".field.has-error").Length())
		assert.Equal(t, 1, doc.Find(`.field.has-error input[name="attachment"]`).Length())

		var count int64
		db.DB.Model(&models.ServiceInquiry{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestLeadHref(t *testing.T) {
	assert.Equal(t, "/admin/leads/inquiry/abc", leadHref(models.LeadKindInquiry, "abc"))
	assert.Len(t, newLeadID(), 36)
}
