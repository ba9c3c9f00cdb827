package routing

import (
	"net/url"
	"strings"
)

// resolver is one step of the pathname resolution chain. Resolvers run in
// order and the first one that reports ok wins.
type resolver struct {
	name    string
	resolve func(segments []string) (ParsedPath, bool)
}

// ParsePathname resolves the locale and page a pathname denotes. Paths that
// no strategy recognises resolve to the default locale's home page.
func (r *Router) ParsePathname(pathname string) ParsedPath {
	segments := splitPath(pathname)
	for _, res := range r.resolvers {
		if parsed, ok := res.resolve(segments); ok {
			return parsed
		}
	}
	return r.homeFallback()
}

// ResolverNames lists the resolution strategies in the order they run.
func (r *Router) ResolverNames() []string {
	names := make([]string, len(r.resolvers))
	for i, res := range r.resolvers {
		names[i] = res.name
	}
	return names
}

func (r *Router) homeFallback() ParsedPath {
	return ParsedPath{Locale: r.defaultLocale, HasLocalePrefix: false, Page: PageHome}
}

// resolveEmpty handles "" and "/".
func (r *Router) resolveEmpty(segments []string) (ParsedPath, bool) {
	if len(segments) != 0 {
		return ParsedPath{}, false
	}
	return r.homeFallback(), true
}

// resolveLocalePrefix handles paths whose first segment is a locale code.
// The rest is matched against that locale, then the default locale, then
// collapses to home.
func (r *Router) resolveLocalePrefix(segments []string) (ParsedPath, bool) {
	if len(segments) == 0 || !r.IsLocale(segments[0]) {
		return ParsedPath{}, false
	}

	locale := Locale(segments[0])
	rest := segments[1:]

	page, ok := r.lookup(locale, rest)
	if !ok {
		page, ok = r.lookup(r.defaultLocale, rest)
	}
	if !ok {
		page = PageHome
	}

	return ParsedPath{Locale: locale, HasLocalePrefix: true, Page: page}, true
}

// resolveUnprefixed scans every locale's page table, default locale first.
func (r *Router) resolveUnprefixed(segments []string) (ParsedPath, bool) {
	for _, l := range r.locales {
		if page, ok := r.lookup(l, segments); ok {
			return ParsedPath{Locale: l, HasLocalePrefix: false, Page: page}, true
		}
	}
	return ParsedPath{}, false
}

// splitPath drops any query or fragment, splits on "/", discards empty
// segments and returns the unescaped lower-case remainder.
func splitPath(pathname string) []string {
	if i := strings.IndexAny(pathname, "?#"); i >= 0 {
		pathname = pathname[:i]
	}

	raw := strings.Split(pathname, "/")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		seg = strings.ToLower(strings.TrimSpace(seg))
		if seg == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}
