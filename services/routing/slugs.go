package routing

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed slugs.json
var embeddedSlugs []byte

// SlugTable maps locale -> segment key (or "home") -> localized slug.
// It is treated as immutable once loaded.
type SlugTable map[Locale]map[string]string

var (
	defaultSlugsOnce sync.Once
	defaultSlugs     SlugTable
	defaultSlugsErr  error
)

// LoadSlugTable decodes a slug table from JSON keyed by locale.
func LoadSlugTable(r io.Reader) (SlugTable, error) {
	var raw map[string]map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode slug table: %w", err)
	}

	table := make(SlugTable, len(raw))
	for code, entries := range raw {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			return nil, fmt.Errorf("slug table contains an empty locale code")
		}
		slugs := make(map[string]string, len(entries))
		for key, slug := range entries {
			slugs[key] = normalizeSlug(slug)
		}
		table[Locale(code)] = slugs
	}
	return table, nil
}

// DefaultSlugTable returns the slug table embedded in the binary.
func DefaultSlugTable() (SlugTable, error) {
	defaultSlugsOnce.Do(func() {
		defaultSlugs, defaultSlugsErr = LoadSlugTable(bytes.NewReader(embeddedSlugs))
	})
	return defaultSlugs, defaultSlugsErr
}

// Slug returns the localized slug for key, or key itself when the locale has
// no translation for it.
func (t SlugTable) Slug(locale Locale, key string) string {
	if slugs, ok := t[locale]; ok {
		if slug, ok := slugs[key]; ok {
			return slug
		}
	}
	if key == homeKey {
		return ""
	}
	return key
}

// Has reports whether locale carries an explicit translation for key.
func (t SlugTable) Has(locale Locale, key string) bool {
	slugs, ok := t[locale]
	if !ok {
		return false
	}
	_, ok = slugs[key]
	return ok
}

func normalizeSlug(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), "/"))
}
