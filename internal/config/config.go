package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tcardoso/licensedesk/internal/capacity"
	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/migrations"
	_ "modernc.org/sqlite"
)

// Config holds all configuration for the licensedesk service
type Config struct {
	DBPath string
	Port   string

	// TokenSecret signs login session tokens. The service refuses to
	// start without one.
	TokenSecret string

	// CountPolicy selects which assignments consume pool seats,
	// "active-only" or "all".
	CountPolicy capacity.Policy

	// ExpiryWindowDays is how far ahead the dashboard looks for
	// licenses expiring soon.
	ExpiryWindowDays int
}

// NewConfig creates a new Config with default values, overridable via
// LICENSEDESK_* environment variables. A malformed override is an error:
// the seat counting policy changes what the whole service reports, so a
// typo must not silently fall back to the default.
func NewConfig() (*Config, error) {
	c := &Config{
		DBPath:           "~/licensedesk/data/licensedesk.db",
		Port:             "8080",
		CountPolicy:      capacity.CountActiveOnly,
		ExpiryWindowDays: domain.DefaultExpiryWindowDays,
	}

	if v := os.Getenv("LICENSEDESK_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("LICENSEDESK_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("LICENSEDESK_TOKEN_SECRET"); v != "" {
		c.TokenSecret = v
	}
	if v := os.Getenv("LICENSEDESK_COUNT_POLICY"); v != "" {
		policy, err := capacity.ParsePolicy(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LICENSEDESK_COUNT_POLICY: %w", err)
		}
		c.CountPolicy = policy
	}
	if v := os.Getenv("LICENSEDESK_EXPIRY_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid LICENSEDESK_EXPIRY_WINDOW_DAYS %q, want a positive integer", v)
		}
		c.ExpiryWindowDays = days
	}

	return c, nil
}

// InitializeDatabase creates and configures the database connection
func (c *Config) InitializeDatabase() (*sql.DB, error) {
	dbPath := c.expandPath(c.DBPath)

	// Ensure database directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// SQLite enforces foreign keys per connection, so the pragma rides
	// on the DSN where every pooled connection picks it up.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply performance optimizations
	OptimizeDatabaseConnection(db)

	if err := ApplyPragmaOptimizations(db); err != nil {
		return nil, fmt.Errorf("failed to apply performance optimizations: %w", err)
	}

	// Run migrations
	if err := migrations.NewMigrator(db).Run(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// expandPath expands ~ to home directory
func (c *Config) expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Return original path if we can't get home dir
		return path
	}

	return filepath.Join(homeDir, path[2:])
}
