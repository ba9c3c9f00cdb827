// Package prerender writes a static index.html for every enumerated path.
package prerender

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agency_site_go/logging"
	"agency_site_go/services/site"
	"agency_site_go/templates/pages"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Options configure Run.
type Options struct {
	OutDir      string
	Shell       string
	Concurrency int
	CSSVersion  string
	JSVersion   string
}

// LoadShell reads a document shell and checks it carries every placeholder.
func LoadShell(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read shell: %w", err)
	}
	shell := string(b)
	for _, p := range []string{pages.HeadPlaceholder, pages.HTMLPlaceholder, pages.StatePlaceholder} {
		if !strings.Contains(shell, p) {
			return "", fmt.Errorf("shell %s is missing %s", path, p)
		}
	}
	return shell, nil
}

// OutputPath maps a URL path to its index.html under out.
func OutputPath(out, urlPath string) string {
	rel := strings.Trim(urlPath, "/")
	return filepath.Join(out, filepath.FromSlash(rel), "index.html")
}

// Run renders every static path and writes it under opts.OutDir. Files are
// written concurrently and Run returns once all writes have settled. It
// returns the written paths in sorted order.
func Run(ctx context.Context, b *site.Builder, opts Options) ([]string, error) {
	if opts.OutDir == "" {
		return nil, fmt.Errorf("prerender: output directory is required")
	}
	if opts.Shell == "" {
		opts.Shell = pages.Shell()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	views, err := b.StaticPages(site.Request{CSSVersion: opts.CSSVersion, JSVersion: opts.JSVersion})
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	written := make([]string, 0, len(views))
	for urlPath, view := range views {
		target := OutputPath(opts.OutDir, urlPath)
		written = append(written, target)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := pages.Document(opts.Shell, view).Render(ctx, &buf); err != nil {
				return fmt.Errorf("failed to render %s: %w", urlPath, err)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", urlPath, err)
			}
			if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(written)
	logging.L().Info("prerender complete", zap.Int("pages", len(written)), zap.String("out", opts.OutDir))
	return written, nil
}
