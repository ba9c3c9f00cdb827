package main

import (
	"context"
	"fmt"
	"time"

	"agency_site_go/services/site"
	"agency_site_go/services/sitemap"

	"github.com/spf13/cobra"
)

var sitemapDirs []string

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Write the per-locale sitemaps and the index",
	Long: `Write sitemap-<locale>.xml and sitemap-index.xml into every --dir.
Defaults to DIST_DIR and PUBLIC_DIR.`,
	RunE: runSitemap,
}

func init() {
	sitemapCmd.Flags().StringSliceVar(&sitemapDirs, "dir", nil, "target directory (repeatable)")
}

func buildSitemap(b *site.Builder) (*sitemap.Set, error) {
	return sitemap.Build(b.Router(), sitemap.Options{
		Generated: time.Now().UTC().Format("2006-01-02"),
	})
}

func runSitemap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dirs := sitemapDirs
	if len(dirs) == 0 {
		dirs = []string{cfg.DistDir, cfg.PublicDir}
	}

	b, err := newBuilder()
	if err != nil {
		return err
	}
	set, err := buildSitemap(b)
	if err != nil {
		return err
	}
	if err := sitemap.Write(ctx, set, dirs...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sitemaps into %v\n", len(set.Locales)+1, dirs)
	return nil
}
