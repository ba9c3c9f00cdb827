// Package routing maps between localized URL paths and abstract pages.
//
// A Router is built once from a SlugTable and is read-only afterwards, so it
// is safe for concurrent use. It builds localized paths, parses incoming
// pathnames back into (locale, page), computes canonical and hreflang links,
// and enumerates every static path for prerendering and sitemaps.
package routing

import (
	"fmt"
	"net/url"
	"strings"
)

// ParsedPath is the interpretation of an incoming pathname.
type ParsedPath struct {
	Locale          Locale   `json:"locale"`
	HasLocalePrefix bool     `json:"hasLocalePrefix"`
	Page            PageType `json:"page"`
}

// Router resolves pages and paths for a fixed set of locales.
type Router struct {
	slugs         SlugTable
	locales       []Locale
	defaultLocale Locale
	baseURL       *url.URL

	// pageTables maps locale -> joined unprefixed slug path -> page.
	pageTables map[Locale]map[string]PageType
	resolvers  []resolver
}

// Option configures a Router.
type Option func(*routerOptions)

type routerOptions struct {
	locales       []Locale
	defaultLocale Locale
	baseURL       string
}

// WithLocales sets the served locales. Order is the scan priority for
// unprefixed paths; the default locale is always moved to the front.
func WithLocales(locales ...Locale) Option {
	return func(o *routerOptions) {
		o.locales = append([]Locale(nil), locales...)
	}
}

// WithDefaultLocale sets the locale served without a prefix.
func WithDefaultLocale(l Locale) Option {
	return func(o *routerOptions) {
		o.defaultLocale = l
	}
}

// WithBaseURL sets the absolute site URL used for canonical links.
func WithBaseURL(raw string) Option {
	return func(o *routerOptions) {
		o.baseURL = raw
	}
}

// New builds a Router over slugs.
func New(slugs SlugTable, opts ...Option) (*Router, error) {
	o := routerOptions{
		locales:       ActiveLocales(),
		defaultLocale: DefaultLocale,
		baseURL:       "http://localhost:8080",
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.locales) == 0 {
		return nil, fmt.Errorf("router needs at least one locale")
	}

	locales := []Locale{o.defaultLocale}
	found := false
	for _, l := range o.locales {
		if l == o.defaultLocale {
			found = true
			continue
		}
		locales = append(locales, l)
	}
	if !found {
		return nil, fmt.Errorf("default locale %q is not among the served locales", o.defaultLocale)
	}

	base, err := parseBaseURL(o.baseURL)
	if err != nil {
		return nil, err
	}

	r := &Router{
		slugs:         slugs,
		locales:       locales,
		defaultLocale: o.defaultLocale,
		baseURL:       base,
		pageTables:    make(map[Locale]map[string]PageType, len(locales)),
	}

	for _, l := range locales {
		table := make(map[string]PageType, len(pages))
		for _, p := range pages {
			key := strings.Join(r.localizedSegments(l, p), "/")
			if _, taken := table[key]; !taken {
				table[key] = p
			}
		}
		r.pageTables[l] = table
	}

	r.resolvers = []resolver{
		{name: "empty", resolve: r.resolveEmpty},
		{name: "locale-prefix", resolve: r.resolveLocalePrefix},
		{name: "unprefixed-scan", resolve: r.resolveUnprefixed},
	}

	return r, nil
}

// Default builds a Router from the embedded slug table for the active locales.
func Default(baseURL string) (*Router, error) {
	slugs, err := DefaultSlugTable()
	if err != nil {
		return nil, err
	}
	return New(slugs, WithBaseURL(baseURL))
}

// DefaultLocale returns the unprefixed locale.
func (r *Router) DefaultLocale() Locale { return r.defaultLocale }

// Locales returns the served locales, default first.
func (r *Router) Locales() []Locale {
	out := make([]Locale, len(r.locales))
	copy(out, r.locales)
	return out
}

// BaseURL returns the configured absolute site URL without a trailing slash.
func (r *Router) BaseURL() string {
	return strings.TrimSuffix(r.baseURL.String(), "/")
}

// IsLocale reports whether value is one of the router's locales.
func (r *Router) IsLocale(value string) bool {
	for _, l := range r.locales {
		if string(l) == value {
			return true
		}
	}
	return false
}

// PathOption adjusts BuildLocalizedPath.
type PathOption func(*pathOptions)

type pathOptions struct {
	includePrefix *bool
}

// WithLocalePrefix forces the locale prefix on or off. Without it, every
// locale except the default one is prefixed.
func WithLocalePrefix(include bool) PathOption {
	return func(o *pathOptions) {
		o.includePrefix = &include
	}
}

// BuildLocalizedPath returns the root-relative URL path of page in locale.
// It never fails: untranslated segments fall back to their raw keys.
func (r *Router) BuildLocalizedPath(locale Locale, page PageType, opts ...PathOption) string {
	var o pathOptions
	for _, opt := range opts {
		opt(&o)
	}

	include := locale != r.defaultLocale
	if o.includePrefix != nil {
		include = *o.includePrefix
	}

	parts := r.localizedSegments(locale, page)
	if include {
		parts = append([]string{string(locale)}, parts...)
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// localizedSegments returns the non-empty localized slugs composing page.
func (r *Router) localizedSegments(locale Locale, page PageType) []string {
	if page == PageHome {
		if slug := r.slugs.Slug(locale, homeKey); slug != "" {
			return []string{slug}
		}
		return nil
	}

	keys := page.Segments()
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if slug := r.slugs.Slug(locale, string(key)); slug != "" {
			out = append(out, slug)
		}
	}
	return out
}

// lookup finds the page whose unprefixed slug path in locale equals segments.
func (r *Router) lookup(locale Locale, segments []string) (PageType, bool) {
	table, ok := r.pageTables[locale]
	if !ok {
		return "", false
	}
	page, ok := table[strings.Join(segments, "/")]
	return page, ok
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid site base URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("site base URL %q must be absolute", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}
