package routing

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// EnumerateStaticPaths returns every path the site serves: "/", each
// locale/page with its prefix, and the default locale's unprefixed variants.
// The result is deduplicated and its order is deterministic.
func (r *Router) EnumerateStaticPaths() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 1+len(r.locales)*len(pages)*2)
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	add("/")
	for _, l := range r.locales {
		for _, p := range pages {
			if l == r.defaultLocale {
				add(r.BuildLocalizedPath(l, p, WithLocalePrefix(false)))
			}
			add(r.BuildLocalizedPath(l, p, WithLocalePrefix(true)))
		}
	}
	return out
}

// GetRoutePattern returns an anchored regular expression matching every URL
// of page: an optional locale prefix followed by each segment as an
// alternation of its slugs across locales. It reports false for pages
// outside the closed set.
func (r *Router) GetRoutePattern(page PageType) (string, bool) {
	if !page.Valid() {
		return "", false
	}

	var b strings.Builder
	b.WriteString(`^(?:/`)
	b.WriteString(alternation(localeStrings(r.locales)))
	b.WriteString(`)?`)

	if page == PageHome {
		var homes []string
		for _, l := range r.locales {
			if s := r.slugs.Slug(l, homeKey); s != "" {
				homes = append(homes, s)
			}
		}
		if len(homes) > 0 {
			b.WriteString(`(?:/`)
			b.WriteString(alternation(homes))
			b.WriteString(`)?`)
		}
	} else {
		for _, key := range page.Segments() {
			var slugs []string
			for _, l := range r.locales {
				if s := r.slugs.Slug(l, string(key)); s != "" {
					slugs = append(slugs, s)
				}
			}
			if len(slugs) == 0 {
				continue
			}
			b.WriteString(`/`)
			b.WriteString(alternation(slugs))
		}
	}

	b.WriteString(`/?$`)
	return b.String(), true
}

// RoutePatterns compiles GetRoutePattern for every page.
func (r *Router) RoutePatterns() (map[PageType]*regexp.Regexp, error) {
	out := make(map[PageType]*regexp.Regexp, len(pages))
	for _, p := range pages {
		pattern, _ := r.GetRoutePattern(p)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile route pattern for %s: %w", p, err)
		}
		out[p] = re
	}
	return out, nil
}

// ErrSlugCollision is returned by ValidateSlugs.
var ErrSlugCollision = errors.New("slug collision")

// ValidateSlugs checks that the unprefixed scan is unambiguous: no two
// locales map the same slug path to different pages, and no page path
// starts with a locale code.
func (r *Router) ValidateSlugs() error {
	type owner struct {
		locale Locale
		page   PageType
	}

	var errs []error
	owners := make(map[string]owner)
	for _, l := range r.locales {
		for _, p := range pages {
			segs := r.localizedSegments(l, p)
			key := strings.Join(segs, "/")

			if prev, ok := owners[key]; ok && prev.page != p {
				errs = append(errs, fmt.Errorf("%w: %q is %s/%s and %s/%s",
					ErrSlugCollision, "/"+key, prev.locale, prev.page, l, p))
			} else if !ok {
				owners[key] = owner{locale: l, page: p}
			}

			if len(segs) > 0 && r.IsLocale(segs[0]) {
				errs = append(errs, fmt.Errorf("%w: %s/%s starts with locale code %q",
					ErrSlugCollision, l, p, segs[0]))
			}
		}
	}
	return errors.Join(errs...)
}

// MissingTranslations lists "<locale>.<key>" entries that fall back to the
// raw segment key.
func (r *Router) MissingTranslations() []string {
	keys := make(map[string]struct{})
	for _, p := range pages {
		for _, k := range p.Segments() {
			keys[string(k)] = struct{}{}
		}
	}

	var out []string
	for _, l := range r.locales {
		for k := range keys {
			if !r.slugs.Has(l, k) {
				out = append(out, string(l)+"."+k)
			}
		}
	}
	sort.Strings(out)
	return out
}

func alternation(values []string) string {
	seen := make(map[string]struct{}, len(values))
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		quoted = append(quoted, regexp.QuoteMeta(v))
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}

func localeStrings(locales []Locale) []string {
	out := make([]string, len(locales))
	for i, l := range locales {
		out[i] = string(l)
	}
	return out
}
