package db

import (
	"fmt"
	"net/url"
	"strings"

	"agency_site_go/logging"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func gormConfig(environment string) *gorm.Config {
	// Determine log level based on environment
	logLevel := logger.Info
	if environment == "production" {
		logLevel = logger.Warn
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}
}

// Initialize sets up the database connection with WAL mode for concurrency
func Initialize(dbPath string, environment string) error {
	var err error

	// Enable WAL mode for better concurrency support
	dsn := dbPath + "?_journal_mode=WAL"

	DB, err = gorm.Open(sqlite.Open(dsn), gormConfig(environment))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.L().Info("database connection established", zap.String("driver", "sqlite"), zap.String("path", dbPath))
	return nil
}

// InitializeRemote connects to a Turso (libsql) database over the network.
// The auth token is appended to the URL unless it already carries one.
func InitializeRemote(databaseURL, authToken, environment string) error {
	dsn, err := libsqlDSN(databaseURL, authToken)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "libsql",
		DSN:        dsn,
	}), gormConfig(environment))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	u, _ := url.Parse(databaseURL)
	logging.L().Info("database connection established", zap.String("driver", "libsql"), zap.String("host", u.Host))
	return nil
}

func libsqlDSN(databaseURL, authToken string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(databaseURL))
	if err != nil {
		return "", fmt.Errorf("invalid TURSO_DATABASE_URL: %w", err)
	}
	switch u.Scheme {
	case "libsql", "https", "http", "wss", "ws":
	default:
		return "", fmt.Errorf("invalid TURSO_DATABASE_URL scheme %q", u.Scheme)
	}
	if authToken != "" {
		q := u.Query()
		if q.Get("authToken") == "" {
			q.Set("authToken", authToken)
			u.RawQuery = q.Encode()
		}
	}
	return u.String(), nil
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(models...)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.L().Info("database migrations completed", zap.Int("models", len(models)))
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
