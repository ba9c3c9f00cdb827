package site

import (
	"fmt"

	"agency_site_go/config"
	"agency_site_go/logging"
	"agency_site_go/services/content"
	"agency_site_go/services/routing"

	"go.uber.org/zap"
)

// FromConfig builds the router, loads the embedded content and returns a
// Builder over them. The server and the sitegen CLI both start here.
func FromConfig(cfg *config.Config) (*Builder, error) {
	slugs, err := routing.DefaultSlugTable()
	if err != nil {
		return nil, fmt.Errorf("failed to load slug table: %w", err)
	}
	router, err := routing.New(slugs,
		routing.WithBaseURL(cfg.SiteBaseURL),
		routing.WithDefaultLocale(routing.Locale(cfg.DefaultLocale)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	store, err := content.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if missing := store.Missing(router.Locales(), routing.Pages()); len(missing) > 0 {
		logging.L().Warn("content falls back to the default locale", zap.Strings("missing", missing))
	}

	opts := []Option{WithSiteName(cfg.SiteName)}
	if cfg.TurnstileSiteKey != "" {
		opts = append(opts, WithTurnstile(cfg.TurnstileSiteKey))
	}
	return New(router, store, opts...)
}
