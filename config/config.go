package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// MinSessionSecretLength is the minimum required length for session secret in production
	MinSessionSecretLength = 32
)

type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Database (local sqlite, or Turso when the URL is set)
	DBPath           string `env:"DB_PATH" envDefault:"db/app.db"`
	TursoDatabaseURL string `env:"TURSO_DATABASE_URL"`
	TursoAuthToken   string `env:"TURSO_AUTH_TOKEN"`

	// Site
	SiteBaseURL   string `env:"SITE_BASE_URL" envDefault:"http://localhost:8080"`
	SiteName      string `env:"SITE_NAME" envDefault:"Digitalna Agencija"`
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"me"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"data/uploads"`
	DistDir       string `env:"DIST_DIR" envDefault:"dist"`
	PublicDir     string `env:"PUBLIC_DIR" envDefault:"static"`

	// Email
	EmailProvider       string   `env:"EMAIL_PROVIDER" envDefault:"resend"` // resend | postmark
	ResendAPIKey        string   `env:"RESEND_API_KEY"`
	PostmarkServerToken string   `env:"POSTMARK_SERVER_TOKEN"`
	EmailFrom           string   `env:"EMAIL_FROM" envDefault:"noreply@agencija.me"`
	EmailFromName       string   `env:"EMAIL_FROM_NAME" envDefault:"Digitalna Agencija"`
	EmailTestMode       bool     `env:"EMAIL_TEST_MODE" envDefault:"true"` // When true, emails are logged instead of sent
	NotifyEmails        []string `env:"NOTIFY_EMAIL" envSeparator:"," envDefault:"team@agencija.me"`

	// Security
	SessionSecret  string   `env:"SESSION_SECRET"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Cloudflare Turnstile
	TurnstileSiteKey   string `env:"TURNSTILE_SITE_KEY"`
	TurnstileSecretKey string `env:"TURNSTILE_SECRET_KEY"`

	// Cloudflare R2 Storage
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`

	// Background jobs
	Timezone          string `env:"JOBS_TIMEZONE" envDefault:"Europe/Podgorica"`
	LeadRetentionDays int    `env:"LEAD_RETENTION_DAYS" envDefault:"180"`
	LeadDigest        bool   `env:"LEAD_DIGEST" envDefault:"true"`

	// Headless Chrome for PDF export
	ChromePath string `env:"CHROME_PATH"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine, system env vars are used instead
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := ValidateSessionSecret(cfg.SessionSecret, cfg.Environment); err != nil {
		return nil, err
	}

	// In development, generate a secure secret if none provided
	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = GenerateSecureSecret()
	}

	cfg.SiteBaseURL = strings.TrimSuffix(cfg.SiteBaseURL, "/")
	return cfg, nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// R2Configured reports whether all R2 credentials are present.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

var ErrInsecureSessionSecret = errors.New("SESSION_SECRET is insecure")

// ValidateSessionSecret validates the session secret meets security requirements
// In production, it must be at least 32 bytes and not a known insecure default
func ValidateSessionSecret(secret string, environment string) error {
	// Known insecure defaults that must be rejected
	insecureDefaults := []string{
		"dev-secret-change-in-production",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				return fmt.Errorf("%w: set to a default value, generate one with: openssl rand -base64 32", ErrInsecureSessionSecret)
			}
			return nil
		}
	}

	if environment == "production" && len(secret) < MinSessionSecretLength {
		return fmt.Errorf("%w: must be at least %d characters in production (current: %d)", ErrInsecureSessionSecret, MinSessionSecretLength, len(secret))
	}

	return nil
}

// GenerateSecureSecret generates a cryptographically secure random secret
// This is used only for development when no secret is provided
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
