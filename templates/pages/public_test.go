package pages_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"agency_site_go/services/content"
	"agency_site_go/services/i18n"
	"agency_site_go/services/routing"
	"agency_site_go/services/site"
	"agency_site_go/templates/pages"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderDocument(t *testing.T, req site.Request) (*goquery.Document, *pages.PublicPage) {
	t.Helper()
	require.NoError(t, i18n.Load())
	router, err := routing.Default("https://agencija.me")
	require.NoError(t, err)
	store, err := content.Default()
	require.NoError(t, err)
	b, err := site.New(router, store, site.WithTurnstile("site-key"),
		site.WithClock(func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)

	view, _, err := b.Page(req)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pages.Document(pages.Shell(), view).Render(context.Background(), &buf))
	html := buf.String()
	for _, placeholder := range []string{pages.HeadPlaceholder, pages.HTMLPlaceholder, pages.StatePlaceholder, pages.LangPlaceholder} {
		assert.NotContains(t, html, placeholder)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc, view
}

func TestDocumentHead(t *testing.T) {
	doc, _ := renderDocument(t, site.Request{Path: "/usluge/seo", Nonce: "abc"})

	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "me", lang)

	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://agencija.me/usluge/seo", canonical)

	alternates := map[string]string{}
	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		hreflang, _ := s.Attr("hreflang")
		href, _ := s.Attr("href")
		alternates[hreflang] = href
	})
	assert.Equal(t, map[string]string{
		"sr-ME":     "https://agencija.me/usluge/seo",
		"en":        "https://agencija.me/en/services/seo",
		"x-default": "https://agencija.me/usluge/seo",
	}, alternates)

	ogLocale, _ := doc.Find(`meta[property="og:locale"]`).Attr("content")
	assert.Equal(t, "sr_ME", ogLocale)
	robots, _ := doc.Find(`meta[name="robots"]`).Attr("content")
	assert.Equal(t, "index, follow", robots)

	ld := doc.Find(`script[type="application/ld+json"]`)
	nonce, _ := ld.Attr("nonce")
	assert.Equal(t, "abc", nonce)
	var graph map[string]any
	require.NoError(t, json.Unmarshal([]byte(ld.Text()), &graph))
	assert.Equal(t, "https://schema.org", graph["@context"])
}

func TestDocumentState(t *testing.T) {
	doc, _ := renderDocument(t, site.Request{Path: "/en/services/branding"})

	var state pages.State
	require.NoError(t, json.Unmarshal([]byte(doc.Find("#__APP_STATE__").Text()), &state))
	assert.Equal(t, pages.State{
		Locale:          "en",
		Page:            "branding",
		HasLocalePrefix: true,
		Canonical:       "https://agencija.me/en/services/branding",
	}, state)

	assert.Equal(t, 1, doc.Find("#app main#main").Length())
	assert.Equal(t, "Branding", strings.TrimSpace(doc.Find(".site-footer a[href='/en/services/branding']").Text()))
	assert.Equal(t, 4, doc.Find(".other-services .service-card").Length())
	cta, _ := doc.Find(".service a.button").Attr("href")
	assert.Equal(t, "/en/service-inquiry?service=branding", cta)
}

func TestDocumentContactForm(t *testing.T) {
	doc, _ := renderDocument(t, site.Request{Path: "/", CSRF: "csrf-token"})

	form := doc.Find("form#contact-form")
	require.Equal(t, 1, form.Length())
	action, _ := form.Attr("action")
	assert.Equal(t, "/forms/contact", action)
	csrf, _ := form.Find(`input[name="_csrf"]`).Attr("value")
	assert.Equal(t, "csrf-token", csrf)
	page, _ := form.Find(`input[name="page"]`).Attr("value")
	assert.Equal(t, "home", page)
	assert.Equal(t, 1, form.Find(`textarea[name="message"]`).Length())
	sitekey, _ := form.Find(".cf-turnstile").Attr("data-sitekey")
	assert.Equal(t, "site-key", sitekey)
	assert.Equal(t, 5, doc.Find(".services .service-card").Length())
}

func TestDocumentFormErrors(t *testing.T) {
	form := &pages.Form{
		Kind:   "inquiry",
		Action: "/forms/service-inquiry",
		Locale: "en",
		Values: map[string]string{"name": `Ana "<b>"`, "service": "seo"},
		Errors: map[string]string{"email": "form.error.invalid_email"},
		Services: []pages.Option{
			{Value: "web-design", Label: "Web design"},
			{Value: "seo", Label: "SEO"},
		},
	}
	require.NoError(t, i18n.Load())

	var buf bytes.Buffer
	require.NoError(t, pages.FormFragment(form).Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Find(".form-errors").Length())
	assert.Equal(t, 1, doc.Find(".field.has-error").Length())
	assert.NotEmpty(t, strings.TrimSpace(doc.Find(".field.has-error .field-error").Text()))
	name, _ := doc.Find(`input[name="name"]`).Attr("value")
	assert.Equal(t, `Ana "<b>"`, name)
	selected, _ := doc.Find(`select[name="service"] option[selected]`).Attr("value")
	assert.Equal(t, "seo", selected)
	enctype, _ := doc.Find("form").Attr("enctype")
	assert.Equal(t, "multipart/form-data", enctype)
}

func TestFormSuccessFragment(t *testing.T) {
	require.NoError(t, i18n.Load())
	var buf bytes.Buffer
	require.NoError(t, pages.FormFragment(&pages.Form{Kind: "contact", Locale: "en", Sent: true}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `class="form-success"`)
	assert.NotContains(t, buf.String(), "<form")
}

func TestNotFoundDocument(t *testing.T) {
	doc, _ := renderDocument(t, site.Request{Path: "/en/nothing-here"})

	robots, _ := doc.Find(`meta[name="robots"]`).Attr("content")
	assert.Equal(t, "noindex, follow", robots)
	assert.Equal(t, 0, doc.Find(`link[rel="canonical"]`).Length())
	assert.Equal(t, "Page not found", strings.TrimSpace(doc.Find("main h1").Text()))
}

func TestFill(t *testing.T) {
	out := pages.Fill(`<html lang="%APP_LANG%"><head><!--app-head--></head><body><!--app-html--><!--app-state--></body></html>`,
		"en", "<title>x</title>", "<p>hi</p>", pages.State{Locale: "en", Page: "home"})
	assert.Contains(t, out, `<html lang="en">`)
	assert.Contains(t, out, "<head><title>x</title></head>")
	assert.Contains(t, out, `<p>hi</p><script id="__APP_STATE__" type="application/json">{"locale":"en","page":"home","hasLocalePrefix":false,"canonical":""}</script>`)
}
