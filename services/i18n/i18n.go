package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"agency_site_go/logging"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed *.json
var fs embed.FS

// DefaultLang is the site's primary language (Montenegrin).
const DefaultLang = "me"

// translations stores flattened keys: "me" -> "nav.home" -> "Početna"
var (
	translations = make(map[string]map[string]string)
	mutex        sync.RWMutex
	defaultLang  = DefaultLang
)

// supportedTags lists the tags the matcher negotiates against, in the same
// order as supportedLangs. Montenegrin has no ISO 639-1 code, so the
// Serbo-Croatian family and "cnr" all map to "me".
var (
	supportedTags = []language.Tag{
		language.MustParse("sr-Latn-ME"),
		language.English,
		language.Make("cnr"),
		language.Croatian,
		language.Make("bs"),
		language.Serbian,
	}
	supportedLangs = []string{"me", "en", "me", "me", "me", "me"}
	matcher        = language.NewMatcher(supportedTags)
)

// Load initializes the translations from the embedded JSON files.
// Every .json file in the package directory is a locale named after the file.
func Load() error {
	mutex.Lock()
	defer mutex.Unlock()

	entries, err := fs.ReadDir(".")
	if err != nil {
		return fmt.Errorf("failed to read embedded locales: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			lang := strings.TrimSuffix(entry.Name(), ".json")
			content, err := fs.ReadFile(entry.Name())
			if err != nil {
				return fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
			}

			var result map[string]interface{}
			if err := json.Unmarshal(content, &result); err != nil {
				return fmt.Errorf("failed to unmarshal locale %s: %w", entry.Name(), err)
			}

			flat := make(map[string]string)
			flatten("", result, flat)
			translations[lang] = flat
			logging.L().Debug("loaded locale", zap.String("lang", lang), zap.Int("keys", len(flat)))
		}
	}

	return nil
}

// flatten recursively flattens a nested map into dot-notation keys.
func flatten(prefix string, nested map[string]interface{}, result map[string]string) {
	for k, v := range nested {
		newKey := k
		if prefix != "" {
			newKey = prefix + "." + k
		}

		switch child := v.(type) {
		case map[string]interface{}:
			flatten(newKey, child, result)
		case string:
			result[newKey] = child
		default:
			result[newKey] = fmt.Sprintf("%v", child)
		}
	}
}

// T retrieves a translation for the given key using the language from the context.
// If the key is missing in the target language, it falls back to the default language,
// and then to the key itself.
// Supports simple named variable replacement {name} if args are provided.
func T(ctx context.Context, key string, args ...map[string]interface{}) string {
	lang := GetLocale(ctx)
	return Translate(lang, key, args...)
}

// Translate retrieves a translation for a specific language code.
func Translate(lang, key string, args ...map[string]interface{}) string {
	mutex.RLock()
	defer mutex.RUnlock()

	if trans, ok := translations[lang]; ok {
		if val, ok := trans[key]; ok {
			return format(val, args...)
		}
	}

	if lang != defaultLang {
		if trans, ok := translations[defaultLang]; ok {
			if val, ok := trans[key]; ok {
				return format(val, args...)
			}
		}
	}

	return key
}

// Has reports whether lang (or the default language) defines key.
func Has(lang, key string) bool {
	return Translate(lang, key) != key
}

// format replaces {var} placeholders with values from args if present.
func format(text string, args ...map[string]interface{}) string {
	if len(args) == 0 {
		return text
	}

	vars := args[0]
	for k, v := range vars {
		placeholder := "{" + k + "}"
		valStr := fmt.Sprintf("%v", v)
		text = strings.ReplaceAll(text, placeholder, valStr)
	}
	return text
}

// Match picks the best supported language for an Accept-Language header.
// It returns the default language when nothing matches.
func Match(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return defaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return defaultLang
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return defaultLang
	}
	return supportedLangs[index]
}

type contextKey string

const LocaleContextKey contextKey = "locale"

// WithLocale returns a copy of ctx carrying lang.
func WithLocale(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LocaleContextKey, lang)
}

// GetLocale extracts the locale from the context, defaulting to DefaultLang.
func GetLocale(ctx context.Context) string {
	if val := ctx.Value(LocaleContextKey); val != nil {
		if str, ok := val.(string); ok && str != "" {
			return str
		}
	}
	return defaultLang
}
