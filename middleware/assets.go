package middleware

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync"

	"agency_site_go/logging"

	"go.uber.org/zap"
)

var (
	cssVersion        string
	faviconVersion    string
	appJSVersion      string
	assetVersionsOnce sync.Once
)

// InitAssetVersions computes file hashes for cache busting at startup.
// dir is the public assets directory.
func InitAssetVersions(dir string) {
	assetVersionsOnce.Do(func() {
		cssVersion = versionOf(filepath.Join(dir, "css", "style.css"))
		faviconVersion = versionOf(filepath.Join(dir, "images", "favicon.svg"))
		appJSVersion = versionOf(filepath.Join(dir, "js", "app.js"))

		logging.L().Info("asset versions initialized",
			zap.String("css", cssVersion),
			zap.String("favicon", faviconVersion),
			zap.String("app_js", appJSVersion),
		)
	})
}

func versionOf(path string) string {
	if v := computeFileHash(path); v != "" {
		return v
	}
	return "1"
}

// computeFileHash returns the first 8 characters of the MD5 hash of a file
func computeFileHash(path string) string {
	file, err := os.Open(path)
	if err != nil {
		logging.L().Warn("failed to open file for hashing", zap.String("path", path), zap.Error(err))
		return ""
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		logging.L().Warn("failed to hash file", zap.String("path", path), zap.Error(err))
		return ""
	}

	return hex.EncodeToString(hash.Sum(nil))[:8]
}

// GetCSSVersion returns the CSS file version hash for cache busting
func GetCSSVersion(ctx context.Context) string {
	if cssVersion == "" {
		return "1"
	}
	return cssVersion
}

// GetFaviconVersion returns the favicon file version hash for cache busting
func GetFaviconVersion(ctx context.Context) string {
	if faviconVersion == "" {
		return "1"
	}
	return faviconVersion
}

// GetAppJSVersion returns the app.js file version hash for cache busting
func GetAppJSVersion(ctx context.Context) string {
	if appJSVersion == "" {
		return "1"
	}
	return appJSVersion
}
