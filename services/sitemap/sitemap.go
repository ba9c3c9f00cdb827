// Package sitemap builds per-locale XML sitemaps with hreflang alternates
// and the index that references them.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"agency_site_go/logging"
	"agency_site_go/services/routing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	xmlnsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xmlnsXHTML   = "http://www.w3.org/1999/xhtml"

	// IndexFile is the name of the sitemap index document.
	IndexFile = "sitemap-index.xml"
)

// Link is an xhtml:link hreflang alternate.
type Link struct {
	XMLName  xml.Name `xml:"xhtml:link"`
	Rel      string   `xml:"rel,attr"`
	HrefLang string   `xml:"hreflang,attr"`
	Href     string   `xml:"href,attr"`
}

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	Links      []Link `xml:"xhtml:link"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	XHTML   string   `xml:"xmlns:xhtml,attr"`
	URLs    []URL    `xml:"url"`
}

type Ref struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type Index struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Xmlns    string   `xml:"xmlns,attr"`
	Sitemaps []Ref    `xml:"sitemap"`
}

// Options tune Build.
type Options struct {
	// LastMod returns the lastmod date (YYYY-MM-DD) of a page, or "".
	LastMod func(locale routing.Locale, page routing.PageType) string
	// Generated is the lastmod written on index entries.
	Generated string
}

// Set is a built sitemap: one urlset per active locale plus the index.
type Set struct {
	Locales []routing.Locale
	URLSets map[routing.Locale]*URLSet
	Index   *Index
}

// FileName is the sitemap document name of locale.
func FileName(l routing.Locale) string {
	return "sitemap-" + string(l) + ".xml"
}

func frequency(page routing.PageType) (string, string) {
	switch {
	case page == routing.PageHome:
		return "weekly", "1.0"
	case page.IsService():
		return "monthly", "0.8"
	default:
		return "monthly", "0.6"
	}
}

// Build assembles the sitemaps from the router. It fails when a localized
// page path is missing from the enumerated static paths.
func Build(router *routing.Router, opts Options) (*Set, error) {
	var localized []string
	for _, l := range router.Locales() {
		for _, page := range routing.Pages() {
			localized = append(localized, router.BuildLocalizedPath(l, page))
		}
	}
	if err := assertCovered(router.EnumerateStaticPaths(), localized); err != nil {
		return nil, err
	}

	set := &Set{
		Locales: router.Locales(),
		URLSets: make(map[routing.Locale]*URLSet),
		Index:   &Index{Xmlns: xmlnsSitemap},
	}

	for _, l := range set.Locales {
		us := &URLSet{Xmlns: xmlnsSitemap, XHTML: xmlnsXHTML}
		for _, page := range routing.Pages() {
			path := router.BuildLocalizedPath(l, page)
			cluster, err := router.BuildCanonicalCluster(routing.CanonicalRequest{CurrentURL: path, Page: page})
			if err != nil {
				return nil, fmt.Errorf("failed to build alternates for %s: %w", path, err)
			}

			freq, prio := frequency(page)
			u := URL{Loc: cluster.Canonical, ChangeFreq: freq, Priority: prio}
			if opts.LastMod != nil {
				u.LastMod = opts.LastMod(l, page)
			}
			for _, a := range cluster.Alternates {
				u.Links = append(u.Links, Link{Rel: "alternate", HrefLang: a.HrefLang, Href: a.Href})
			}
			us.URLs = append(us.URLs, u)
		}
		set.URLSets[l] = us
		set.Index.Sitemaps = append(set.Index.Sitemaps, Ref{
			Loc:     router.AbsoluteURL("/" + FileName(l)),
			LastMod: opts.Generated,
		})
	}
	return set, nil
}

// assertCovered fails when a sitemap path has no prerendered document.
func assertCovered(static, paths []string) error {
	known := make(map[string]struct{}, len(static))
	for _, p := range static {
		known[p] = struct{}{}
	}
	for _, p := range paths {
		if _, ok := known[p]; !ok {
			return fmt.Errorf("sitemap path %q is not a prerendered static path", p)
		}
	}
	return nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Document returns the encoded document called name, either IndexFile or
// a locale's FileName.
func (s *Set) Document(name string) ([]byte, bool, error) {
	if name == IndexFile {
		b, err := encode(s.Index)
		return b, true, err
	}
	for _, l := range s.Locales {
		if name == FileName(l) {
			b, err := encode(s.URLSets[l])
			return b, true, err
		}
	}
	return nil, false, nil
}

// Files encodes every document keyed by file name.
func (s *Set) Files() (map[string][]byte, error) {
	names := []string{IndexFile}
	for _, l := range s.Locales {
		names = append(names, FileName(l))
	}
	out := make(map[string][]byte, len(names))
	for _, name := range names {
		b, _, err := s.Document(name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		out[name] = b
	}
	return out, nil
}

// Write stores every document in each of dirs. All directories are created
// before any file is written; writes then run concurrently and the first
// error is returned after all have settled.
func Write(ctx context.Context, set *Set, dirs ...string) error {
	files, err := set.Files()
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var g errgroup.Group
	for _, dir := range dirs {
		for name, data := range files {
			target := filepath.Join(dir, name)
			g.Go(func() error {
				if err := os.WriteFile(target, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", target, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logging.L().Info("sitemaps written", zap.Int("files", len(files)), zap.Strings("dirs", dirs))
	return nil
}
