package main

import (
	"context"
	"fmt"

	"agency_site_go/logging"
	"agency_site_go/middleware"
	"agency_site_go/services"
	"agency_site_go/services/prerender"
	"agency_site_go/services/sitemap"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	prerenderOut         string
	prerenderShell       string
	prerenderConcurrency int
	prerenderPublish     bool
	prerenderPrefix      string
)

var prerenderCmd = &cobra.Command{
	Use:   "prerender",
	Short: "Render every localized page to index.html",
	Long: `Render every enumerated path to <out>/<path>/index.html, then write the
sitemaps next to them.

With --publish the output directory is uploaded to the R2 bucket.`,
	RunE: runPrerender,
}

func init() {
	prerenderCmd.Flags().StringVar(&prerenderOut, "out", "", "output directory (default DIST_DIR)")
	prerenderCmd.Flags().StringVar(&prerenderShell, "shell", "", "document shell with the app placeholders (default embedded)")
	prerenderCmd.Flags().IntVar(&prerenderConcurrency, "concurrency", 0, "pages rendered at once")
	prerenderCmd.Flags().BoolVar(&prerenderPublish, "publish", false, "upload the output to R2")
	prerenderCmd.Flags().StringVar(&prerenderPrefix, "prefix", "site", "key prefix used by --publish")
}

func runPrerender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := prerenderOut
	if out == "" {
		out = cfg.DistDir
	}

	shell := ""
	if prerenderShell != "" {
		var err error
		if shell, err = prerender.LoadShell(prerenderShell); err != nil {
			return err
		}
	}

	b, err := newBuilder()
	if err != nil {
		return err
	}

	middleware.InitAssetVersions(cfg.PublicDir)
	written, err := prerender.Run(ctx, b, prerender.Options{
		OutDir:      out,
		Shell:       shell,
		Concurrency: prerenderConcurrency,
		CSSVersion:  middleware.GetCSSVersion(ctx),
		JSVersion:   middleware.GetAppJSVersion(ctx),
	})
	if err != nil {
		return err
	}

	set, err := buildSitemap(b)
	if err != nil {
		return err
	}
	if err := sitemap.Write(ctx, set, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d pages into %s\n", len(written), out)

	if !prerenderPublish {
		return nil
	}
	if !cfg.R2Configured() {
		return fmt.Errorf("--publish needs the R2_* settings")
	}
	r2, err := services.NewR2Storage(cfg)
	if err != nil {
		return err
	}
	n, err := services.PublishDir(ctx, r2, out, prerenderPrefix)
	if err != nil {
		return err
	}
	logging.L().Info("published site", zap.Int("files", n), zap.String("bucket", cfg.R2BucketName))
	fmt.Fprintf(cmd.OutOrStdout(), "Published %d files to %s/%s\n", n, cfg.R2BucketName, prerenderPrefix)
	return nil
}
