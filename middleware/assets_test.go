package middleware

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFileHash(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test.css")
	require.NoError(t, os.WriteFile(tmpFile, []byte("body { color: red; }"), 0644))

	hash := computeFileHash(tmpFile)
	assert.Len(t, hash, 8)
	assert.Equal(t, hash, computeFileHash(tmpFile), "hash is stable")

	assert.Empty(t, computeFileHash("non_existent_file.css"))
	assert.Equal(t, "1", versionOf("non_existent_file.css"))
}

func TestGetVersionsDefault(t *testing.T) {
	ctx := context.Background()

	// Globals may already be set by another test; either a hash or "1" is fine
	assert.NotEmpty(t, GetCSSVersion(ctx))
	assert.NotEmpty(t, GetFaviconVersion(ctx))
	assert.NotEmpty(t, GetAppJSVersion(ctx))
}
