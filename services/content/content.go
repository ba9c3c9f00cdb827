// Package content holds the localized copy of every page: SEO metadata,
// feature lists and a Markdown body, one front-matter document per
// locale and page.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"agency_site_go/services/routing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed pages
var embedded embed.FS

// Feature is one bullet of a service page.
type Feature struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// SEO holds the metadata overrides of a page.
type SEO struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Keywords    string `yaml:"keywords"`
	OGImage     string `yaml:"og_image"`
}

// Page is the rendered content of one locale/page pair.
type Page struct {
	Locale    routing.Locale
	Page      routing.PageType
	Title     string
	Heading   string
	Summary   string
	Features  []Feature
	SEO       SEO
	Body      template.HTML
	UpdatedAt time.Time
	// Fallback is set when the page was served from another locale or
	// synthesized because no document exists.
	Fallback bool
}

type frontMatter struct {
	Title     string    `yaml:"title"`
	Heading   string    `yaml:"heading"`
	Summary   string    `yaml:"summary"`
	UpdatedAt string    `yaml:"updated_at"`
	Features  []Feature `yaml:"features"`
	SEO       SEO       `yaml:"seo"`
}

type key struct {
	locale routing.Locale
	page   routing.PageType
}

// Store is an immutable index of parsed pages.
type Store struct {
	pages         map[key]Page
	defaultLocale routing.Locale
}

var (
	defaultStore     *Store
	defaultStoreErr  error
	defaultStoreOnce sync.Once
)

// Default returns the store built from the embedded documents.
func Default() (*Store, error) {
	defaultStoreOnce.Do(func() {
		sub, err := fs.Sub(embedded, "pages")
		if err != nil {
			defaultStoreErr = err
			return
		}
		defaultStore, defaultStoreErr = Load(sub, routing.DefaultLocale)
	})
	return defaultStore, defaultStoreErr
}

// Load parses every <locale>/<page>.md document in fsys. Files whose
// directory is not a locale or whose name is not a page are rejected.
func Load(fsys fs.FS, defaultLocale routing.Locale) (*Store, error) {
	s := &Store{pages: make(map[key]Page), defaultLocale: defaultLocale}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".md" {
			return nil
		}

		dir, file := path.Split(p)
		locale := routing.Locale(strings.Trim(dir, "/"))
		page, ok := routing.ParsePageType(strings.TrimSuffix(file, ".md"))
		if !ok {
			return fmt.Errorf("content: %s does not name a page", p)
		}
		if locale == "" || strings.Contains(string(locale), "/") {
			return fmt.Errorf("content: %s must live in a locale directory", p)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("content: read %s: %w", p, err)
		}
		parsed, err := parse(data)
		if err != nil {
			return fmt.Errorf("content: parse %s: %w", p, err)
		}
		parsed.Locale = locale
		parsed.Page = page
		if parsed.Title == "" {
			parsed.Title = prettify(string(page))
		}
		s.pages[key{locale, page}] = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the page for locale, falling back to the default locale and
// then to a synthesized page titled after the page key.
func (s *Store) Get(locale routing.Locale, page routing.PageType) Page {
	if p, ok := s.pages[key{locale, page}]; ok {
		return p
	}
	if p, ok := s.pages[key{s.defaultLocale, page}]; ok {
		p.Locale = locale
		p.Fallback = true
		return p
	}
	return Page{
		Locale:   locale,
		Page:     page,
		Title:    prettify(string(page)),
		Heading:  prettify(string(page)),
		Fallback: true,
	}
}

// Has reports whether a document exists for locale and page.
func (s *Store) Has(locale routing.Locale, page routing.PageType) bool {
	_, ok := s.pages[key{locale, page}]
	return ok
}

// Missing lists "<locale>/<page>" pairs without a document.
func (s *Store) Missing(locales []routing.Locale, pages []routing.PageType) []string {
	var out []string
	for _, l := range locales {
		for _, p := range pages {
			if !s.Has(l, p) {
				out = append(out, string(l)+"/"+string(p))
			}
		}
	}
	sort.Strings(out)
	return out
}

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
	)
	policy = bluemonday.UGCPolicy()
)

// ErrEmptyDocument is returned for documents with neither front matter nor body.
var ErrEmptyDocument = errors.New("empty document")

func parse(data []byte) (Page, error) {
	fm, body := splitFrontMatter(string(data))
	if strings.TrimSpace(fm) == "" && strings.TrimSpace(body) == "" {
		return Page{}, ErrEmptyDocument
	}

	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, err
		}
	}

	rendered, err := RenderMarkdown(body)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Title:    strings.TrimSpace(front.Title),
		Heading:  strings.TrimSpace(front.Heading),
		Summary:  strings.TrimSpace(front.Summary),
		Features: front.Features,
		SEO:      front.SEO,
		Body:     rendered,
	}
	if page.Heading == "" {
		page.Heading = page.Title
	}
	if front.UpdatedAt != "" {
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(front.UpdatedAt)); err == nil {
			page.UpdatedAt = t
		}
	}
	return page, nil
}

// RenderMarkdown converts Markdown to sanitized HTML.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func prettify(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
