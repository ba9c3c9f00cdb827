// Package site assembles public page views from the router and content
// store. The HTTP handlers and the prerenderer share it so both produce the
// same document for a path.
package site

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"agency_site_go/models"
	"agency_site_go/services"
	"agency_site_go/services/content"
	"agency_site_go/services/i18n"
	"agency_site_go/services/routing"
	"agency_site_go/templates/pages"
)

const defaultOGImage = "/static/images/og-default.png"

// Builder turns paths into page views.
type Builder struct {
	router           *routing.Router
	content          *content.Store
	patterns         map[routing.PageType]*regexp.Regexp
	siteName         string
	turnstileSiteKey string
	now              func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithSiteName sets the brand shown in titles and structured data.
func WithSiteName(name string) Option { return func(b *Builder) { b.siteName = name } }

// WithTurnstile enables the captcha widget on forms.
func WithTurnstile(siteKey string) Option { return func(b *Builder) { b.turnstileSiteKey = siteKey } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// New validates the slug table and compiles the route patterns.
func New(router *routing.Router, store *content.Store, opts ...Option) (*Builder, error) {
	if err := router.ValidateSlugs(); err != nil {
		return nil, err
	}
	patterns, err := router.RoutePatterns()
	if err != nil {
		return nil, err
	}

	b := &Builder{
		router:   router,
		content:  store,
		patterns: patterns,
		siteName: i18n.Translate(i18n.DefaultLang, "site.name"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Router returns the router the builder resolves against.
func (b *Builder) Router() *routing.Router { return b.router }

// Request carries the per-request inputs of a page view.
type Request struct {
	Path       string
	Nonce      string
	CSRF       string
	CSSVersion string
	JSVersion  string
	// Sent marks the page's form as successfully submitted.
	Sent bool
	// Form replaces the page's blank form, e.g. after a failed submission.
	Form *pages.Form
	// Prefill seeds the blank form.
	Prefill map[string]string
}

// Resolve parses path and reports whether it is a URL of the page it
// resolves to. Paths that only reach their page through the home fallback
// are not.
func (b *Builder) Resolve(path string) (routing.ParsedPath, bool) {
	parsed := b.router.ParsePathname(path)
	re, ok := b.patterns[parsed.Page]
	if !ok {
		return parsed, false
	}
	return parsed, re.MatchString(normalizePath(path))
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if u, err := url.PathUnescape(p); err == nil {
		p = u
	}
	p = strings.ToLower(p)
	if p == "" {
		p = "/"
	}
	return p
}

// Page builds the view of req.Path. found is false when the path is not a
// known URL, in which case the view is the localized not-found page.
func (b *Builder) Page(req Request) (view *pages.PublicPage, found bool, err error) {
	parsed, known := b.Resolve(req.Path)
	if !known {
		return b.NotFound(parsed.Locale, req), false, nil
	}

	cluster, err := b.router.BuildCanonicalCluster(routing.CanonicalRequest{CurrentURL: (&url.URL{Path: normalizePath(req.Path)}).String(), Page: parsed.Page})
	if err != nil {
		return nil, false, fmt.Errorf("failed to build canonical cluster: %w", err)
	}

	locale, page := parsed.Locale, parsed.Page
	doc := b.content.Get(locale, page)
	view = b.base(locale, page, req)
	view.Content = doc
	view.State = pages.State{
		Locale:          string(locale),
		Page:            string(page),
		HasLocalePrefix: parsed.HasLocalePrefix,
		Canonical:       cluster.Canonical,
	}

	seo := models.DefaultSEO(b.title(doc), firstNonEmpty(doc.SEO.Description, doc.Summary)).
		WithCanonical(cluster.Canonical).
		WithKeywords(doc.SEO.Keywords).
		WithOGImage(b.absolute(firstNonEmpty(doc.SEO.OGImage, defaultOGImage))).
		WithLocale(locale.OGLocale(), b.otherOGLocales(locale)...)
	for _, a := range cluster.Alternates {
		seo.Alternates = append(seo.Alternates, models.HrefLangLink{HrefLang: a.HrefLang, Href: a.Href})
	}
	graph, err := content.Graph(b.structuredData(locale, page, doc, cluster.Canonical)...)
	if err != nil {
		return nil, false, err
	}
	seo.WithJSONLD(graph)
	view.SEO = seo

	switch {
	case page == routing.PageHome:
		view.Template = pages.TemplateHome
		view.Cards = b.cards(locale, "")
		view.Form = b.form(models.LeadKindContact, locale, page, req)
	case page.IsService():
		view.Template = pages.TemplateService
		view.Cards = b.cards(locale, page)
	case page == routing.PageFreeConsultation:
		view.Template = pages.TemplateForm
		view.Form = b.form(models.LeadKindConsultation, locale, page, req)
	case page == routing.PageServiceInquiry:
		view.Template = pages.TemplateForm
		view.Form = b.form(models.LeadKindInquiry, locale, page, req)
	}
	return view, true, nil
}

// NotFound builds the localized 404 view. It is never indexed.
func (b *Builder) NotFound(locale routing.Locale, req Request) *pages.PublicPage {
	return b.status(locale, req, pages.TemplateNotFound, "pages.not_found_title", "pages.not_found_body")
}

// Error builds the localized error view.
func (b *Builder) Error(locale routing.Locale, req Request) *pages.PublicPage {
	return b.status(locale, req, pages.TemplateError, "pages.error_title", "pages.error_body")
}

func (b *Builder) status(locale routing.Locale, req Request, tmpl, titleKey, bodyKey string) *pages.PublicPage {
	lang := string(locale)
	view := b.base(locale, "", req)
	view.Template = tmpl
	view.SEO = models.DefaultSEO(
		i18n.Translate(lang, titleKey)+" | "+b.siteName,
		i18n.Translate(lang, bodyKey),
	).WithLocale(locale.OGLocale()).WithNoIndex()
	view.State = pages.State{Locale: lang, Page: tmpl}
	return view
}

func (b *Builder) base(locale routing.Locale, page routing.PageType, req Request) *pages.PublicPage {
	lang := string(locale)
	link := func(p routing.PageType) string { return b.router.BuildLocalizedPath(locale, p) }

	view := &pages.PublicPage{
		Layout: pages.Layout{
			Locale:           lang,
			Page:             string(page),
			SiteName:         b.siteName,
			HomeHref:         link(routing.PageHome),
			ConsultationHref: link(routing.PageFreeConsultation),
			InquiryHref:      link(routing.PageServiceInquiry),
			Nonce:            req.Nonce,
			CSSVersion:       req.CSSVersion,
			JSVersion:        req.JSVersion,
			Year:             b.now().Year(),
		},
	}

	view.Nav = []pages.Link{
		{Label: i18n.Translate(lang, "nav.home"), Href: link(routing.PageHome), Active: page == routing.PageHome},
		{Label: i18n.Translate(lang, "nav.services"), Href: link(routing.PageHome) + "#services", Active: page.IsService()},
		{Label: i18n.Translate(lang, "nav.consultation"), Href: link(routing.PageFreeConsultation), Active: page == routing.PageFreeConsultation},
		{Label: i18n.Translate(lang, "nav.inquiry"), Href: link(routing.PageServiceInquiry), Active: page == routing.PageServiceInquiry},
	}
	for _, p := range routing.ServicePages() {
		view.Services = append(view.Services, pages.Link{
			Label:  i18n.Translate(lang, "services."+string(p)),
			Href:   link(p),
			Active: p == page,
		})
	}

	target := page
	if target == "" {
		target = routing.PageHome
	}
	for _, l := range b.router.Locales() {
		view.Languages = append(view.Languages, pages.LangLink{
			Locale:   string(l),
			Label:    strings.ToUpper(string(l)),
			HrefLang: l.HrefLang(),
			Href:     b.router.BuildLocalizedPath(l, target),
			Active:   l == locale,
		})
	}
	return view
}

func (b *Builder) cards(locale routing.Locale, except routing.PageType) []pages.ServiceCard {
	var out []pages.ServiceCard
	for _, p := range routing.ServicePages() {
		if p == except {
			continue
		}
		doc := b.content.Get(locale, p)
		out = append(out, pages.ServiceCard{
			Page:    string(p),
			Title:   doc.Title,
			Summary: doc.Summary,
			Href:    b.router.BuildLocalizedPath(locale, p),
		})
	}
	return out
}

// NewForm returns a blank form of kind for a page.
func (b *Builder) NewForm(kind models.LeadKind, locale routing.Locale, page routing.PageType, csrf string) *pages.Form {
	lang := string(locale)
	f := &pages.Form{
		Kind:             string(kind),
		Action:           "/forms/" + formPath(kind),
		Locale:           lang,
		Page:             string(page),
		CSRF:             csrf,
		TurnstileSiteKey: b.turnstileSiteKey,
		Values:           map[string]string{},
		SentHref:         b.router.BuildLocalizedPath(locale, page),
		MinDate:          b.now().Format("2006-01-02"),
	}
	switch kind {
	case models.LeadKindConsultation:
		f.ContactOptions = options(lang, "form.contact_options.", services.ContactOptions)
	case models.LeadKindInquiry:
		for _, p := range routing.ServicePages() {
			f.Services = append(f.Services, pages.Option{Value: string(p), Label: i18n.Translate(lang, "services."+string(p))})
		}
		f.Budgets = options(lang, "form.budget_options.", services.BudgetOptions)
		f.Timelines = options(lang, "form.timeline_options.", services.TimelineOptions)
	}
	return f
}

func (b *Builder) form(kind models.LeadKind, locale routing.Locale, page routing.PageType, req Request) *pages.Form {
	if req.Form != nil {
		return req.Form
	}
	f := b.NewForm(kind, locale, page, req.CSRF)
	for k, v := range req.Prefill {
		f.Values[k] = v
	}
	f.Sent = req.Sent
	return f
}

// formPath is the URL segment of a form endpoint.
func formPath(kind models.LeadKind) string {
	if kind == models.LeadKindInquiry {
		return "service-inquiry"
	}
	return string(kind)
}

func options(lang, prefix string, values []string) []pages.Option {
	out := make([]pages.Option, len(values))
	for i, v := range values {
		out[i] = pages.Option{Value: v, Label: i18n.Translate(lang, prefix+v)}
	}
	return out
}

func (b *Builder) title(doc content.Page) string {
	if doc.SEO.Title != "" {
		return doc.SEO.Title
	}
	if doc.Page == routing.PageHome {
		return b.siteName
	}
	return doc.Title + " | " + b.siteName
}

func (b *Builder) otherOGLocales(current routing.Locale) []string {
	var out []string
	for _, l := range b.router.Locales() {
		if l != current {
			out = append(out, l.OGLocale())
		}
	}
	return out
}

func (b *Builder) absolute(p string) string {
	if strings.HasPrefix(p, "/") {
		return b.router.AbsoluteURL(p)
	}
	return p
}

func (b *Builder) structuredData(locale routing.Locale, page routing.PageType, doc content.Page, canonical string) []content.Node {
	siteURL := b.router.BaseURL()
	nodes := []content.Node{
		content.Organization(b.siteName, siteURL, b.absolute("/static/images/logo.png")),
		content.WebSite(b.siteName, siteURL, locale),
	}
	if page == routing.PageHome {
		return nodes
	}

	lang := string(locale)
	crumbs := []content.Crumb{{Name: i18n.Translate(lang, "nav.home"), URL: b.router.AbsoluteURL(b.router.BuildLocalizedPath(locale, routing.PageHome))}}
	if page.IsService() {
		nodes = append(nodes, content.Service(doc, canonical, siteURL))
		crumbs = append(crumbs, content.Crumb{
			Name: i18n.Translate(lang, "nav.services"),
			URL:  b.router.AbsoluteURL(b.router.BuildLocalizedPath(locale, routing.PageHome)) + "#services",
		})
	}
	crumbs = append(crumbs, content.Crumb{Name: doc.Title, URL: canonical})
	return append(nodes, content.BreadcrumbList(crumbs))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// StaticPages builds the view of every enumerated static path.
func (b *Builder) StaticPages(req Request) (map[string]*pages.PublicPage, error) {
	out := make(map[string]*pages.PublicPage)
	for _, path := range b.router.EnumerateStaticPaths() {
		r := req
		r.Path = path
		view, found, err := b.Page(r)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", path, err)
		}
		if !found {
			return nil, fmt.Errorf("static path %s does not match its route pattern", path)
		}
		out[path] = view
	}
	return out, nil
}
