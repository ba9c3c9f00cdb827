package routing

// Locale is a site language code as it appears in URL prefixes.
type Locale string

const (
	LocaleME Locale = "me"
	LocaleEN Locale = "en"
	// LocaleFR is reserved. No slugs ship for it and IsLocale rejects it.
	LocaleFR Locale = "fr"
)

// DefaultLocale is served without a URL prefix.
const DefaultLocale = LocaleME

// activeLocales is the priority order used when scanning unprefixed paths.
var activeLocales = []Locale{LocaleME, LocaleEN}

// ActiveLocales returns the locales the site currently serves, default first.
func ActiveLocales() []Locale {
	out := make([]Locale, len(activeLocales))
	copy(out, activeLocales)
	return out
}

// IsLocale reports whether value names an active locale.
func IsLocale(value string) bool {
	for _, l := range activeLocales {
		if string(l) == value {
			return true
		}
	}
	return false
}

// HrefLang returns the BCP 47 value used in hreflang attributes.
func (l Locale) HrefLang() string {
	switch l {
	case LocaleME:
		return "sr-ME"
	default:
		return string(l)
	}
}

// OGLocale returns the Open Graph locale (language_TERRITORY).
func (l Locale) OGLocale() string {
	switch l {
	case LocaleME:
		return "sr_ME"
	case LocaleEN:
		return "en_US"
	case LocaleFR:
		return "fr_FR"
	default:
		return string(l)
	}
}

func (l Locale) String() string { return string(l) }
