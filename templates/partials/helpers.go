// Package partials holds the template helpers shared by the public and admin views.
package partials

import (
	"fmt"
	"html/template"
	"time"

	"agency_site_go/services/i18n"
)

// FuncMap returns the helpers available in every view.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"t":              i18n.Translate,
		"formatFileSize": FormatFileSize,
		"formatDate":     FormatDate,
		"formatDateTime": FormatDateTime,
		"relativeTime":   FormatRelativeTime,
		"add":            func(a, b int) int { return a + b },
	}
}

// FormatFileSize renders a byte count for humans.
func FormatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatDate uses the day-first format for Montenegrin and ISO otherwise.
func FormatDate(lang string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if lang == i18n.DefaultLang {
		return t.Format("02.01.2006")
	}
	return t.Format("2006-01-02")
}

// FormatDateTime is FormatDate with hours and minutes.
func FormatDateTime(lang string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatDate(lang, t) + " " + t.Format("15:04")
}

// FormatRelativeTime renders how long ago t was, falling back to the date
// after a week.
func FormatRelativeTime(lang string, t time.Time) string {
	return relativeTime(lang, t, time.Now())
}

func relativeTime(lang string, t, now time.Time) string {
	duration := now.Sub(t)
	count := func(key string, n int) string {
		return i18n.Translate(lang, key, map[string]interface{}{"count": n})
	}

	switch {
	case duration < time.Minute:
		return i18n.Translate(lang, "time.just_now")
	case duration < time.Hour:
		return count("time.minutes_ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return count("time.hours_ago", int(duration.Hours()))
	case duration < 7*24*time.Hour:
		return count("time.days_ago", int(duration.Hours()/24))
	default:
		return FormatDate(lang, t)
	}
}
