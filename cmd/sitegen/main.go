// Command sitegen prerenders the public site, writes the sitemaps and
// inspects the route table.
package main

import (
	"fmt"
	"os"

	"agency_site_go/config"
	"agency_site_go/logging"
	"agency_site_go/services/i18n"
	"agency_site_go/services/site"

	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sitegen",
	Short: "Build the static site",
	Long: `Build and inspect the static parts of the agency site.

Available subcommands:
  prerender - Render every localized page to index.html
  sitemap   - Write the per-locale sitemaps and the index
  routes    - Print the route table and check the slugs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		if _, err := logging.New(cfg.Environment, level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return i18n.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.AddCommand(prerenderCmd, sitemapCmd, routesCmd)
}

// newBuilder returns the page builder for the loaded configuration.
func newBuilder() (*site.Builder, error) {
	return site.FromConfig(cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
