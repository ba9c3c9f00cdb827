package partials

import (
	"testing"
	"time"

	"agency_site_go/services/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.50 KB", FormatFileSize(1536))
	assert.Equal(t, "2.00 MB", FormatFileSize(2*1024*1024))
	assert.Equal(t, "1.00 GB", FormatFileSize(1024*1024*1024))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "09.03.2026", FormatDate("me", d))
	assert.Equal(t, "2026-03-09", FormatDate("en", d))
	assert.Equal(t, "09.03.2026 14:05", FormatDateTime("me", d))
	assert.Empty(t, FormatDate("me", time.Time{}))
}

func TestRelativeTime(t *testing.T) {
	require.NoError(t, i18n.Load())
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", relativeTime("en", now.Add(-10*time.Second), now))
	assert.Equal(t, "5 minutes ago", relativeTime("en", now.Add(-5*time.Minute), now))
	assert.Equal(t, "prije 3 h", relativeTime("me", now.Add(-3*time.Hour), now))
	assert.Equal(t, "2 days ago", relativeTime("en", now.Add(-48*time.Hour), now))
	assert.Equal(t, "01.10.2026", relativeTime("me", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), now))
}
