package routing

import (
	"net/url"
	"strings"
)

// currentPath extracts the path of an absolute or root-relative URL. Query
// and fragment are dropped before parsing, and a path url.Parse rejects is
// used as-is, so a malformed request URL never fails the cluster.
func currentPath(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if u, err := url.Parse(raw); err == nil {
		return u.EscapedPath()
	}
	if i := strings.Index(raw, "://"); i >= 0 {
		raw = raw[i+3:]
		if j := strings.IndexByte(raw, '/'); j >= 0 {
			return raw[j:]
		}
		return "/"
	}
	return raw
}

// XDefault is the hreflang value of the fallback alternate.
const XDefault = "x-default"

// Alternate is one hreflang link.
type Alternate struct {
	HrefLang string `json:"hreflang"`
	Href     string `json:"href"`
}

// CanonicalCluster is the canonical URL of a page plus its hreflang alternates.
type CanonicalCluster struct {
	Canonical  string      `json:"canonical"`
	Alternates []Alternate `json:"alternates"`
}

// CanonicalRequest is the input of BuildCanonicalCluster.
type CanonicalRequest struct {
	// CurrentURL is the request URL, absolute or root-relative.
	CurrentURL string
	// Page is the resolved page. When empty it is taken from CurrentURL.
	Page PageType
	// SiteBaseURL overrides the router's base URL when set.
	SiteBaseURL string
}

// BuildCanonicalCluster computes the canonical URL and hreflang alternates
// for a request. The canonical is rebuilt from the resolved locale and page,
// so prefixed and unprefixed variants of a default-locale URL converge and
// query strings and fragments never leak into it.
func (r *Router) BuildCanonicalCluster(req CanonicalRequest) (CanonicalCluster, error) {
	base := r.baseURL
	if req.SiteBaseURL != "" {
		b, err := parseBaseURL(req.SiteBaseURL)
		if err != nil {
			return CanonicalCluster{}, err
		}
		base = b
	}

	parsed := r.ParsePathname(currentPath(req.CurrentURL))
	page := req.Page
	if page == "" {
		page = parsed.Page
	}

	cluster := CanonicalCluster{
		Canonical: absoluteURL(base, r.BuildLocalizedPath(parsed.Locale, page)),
	}

	seen := make(map[Alternate]struct{}, len(r.locales)+1)
	add := func(a Alternate) {
		if _, dup := seen[a]; dup {
			return
		}
		seen[a] = struct{}{}
		cluster.Alternates = append(cluster.Alternates, a)
	}

	for _, l := range r.locales {
		add(Alternate{HrefLang: l.HrefLang(), Href: absoluteURL(base, r.BuildLocalizedPath(l, page))})
	}
	add(Alternate{
		HrefLang: XDefault,
		Href:     absoluteURL(base, r.BuildLocalizedPath(r.defaultLocale, page, WithLocalePrefix(false))),
	})

	return cluster, nil
}

// AbsoluteURL joins a root-relative path onto the router's base URL.
func (r *Router) AbsoluteURL(path string) string {
	return absoluteURL(r.baseURL, path)
}

func absoluteURL(base *url.URL, path string) string {
	u := *base
	u.Path = strings.TrimSuffix(base.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
