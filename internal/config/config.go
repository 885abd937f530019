// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
// Secret fields are never logged; use LogAttrs for startup logging.
type Config struct {
	EncryptionSecret   string
	SupabaseURL        string
	SupabaseServiceKey string
	DatabaseURL        string
	DBPath             string
	ListenAddr         string
	RateLimitWindow    time.Duration
	RateLimitMax       int
	ResendAPIKey       string
	EmailFrom          string
	MaxImageBytes      int64
}

// HasEncryptionSecret returns true when a master encryption secret is set.
func (c *Config) HasEncryptionSecret() bool {
	return c.EncryptionSecret != ""
}

// HasIdentityProvider returns true when both the identity provider URL and
// its service key are set. Without them every authenticated endpoint reports
// a configuration error.
func (c *Config) HasIdentityProvider() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// UsePostgres returns true when TRADESCOPE_DATABASE_URL selects Postgres
// instead of the embedded SQLite store.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// HasEmailService returns true when trade notifications can be delivered.
func (c *Config) HasEmailService() bool {
	return c.ResendAPIKey != ""
}

// LogAttrs returns key/value pairs describing the configuration without any
// secret material.
func (c *Config) LogAttrs() []any {
	store := "sqlite"
	if c.UsePostgres() {
		store = "postgres"
	}
	return []any{
		"listen_addr", c.ListenAddr,
		"store", store,
		"db_path", c.DBPath,
		"identity_provider", c.HasIdentityProvider(),
		"encryption_secret", c.HasEncryptionSecret(),
		"email_service", c.HasEmailService(),
		"rate_limit_window", c.RateLimitWindow,
		"rate_limit_max", c.RateLimitMax,
	}
}

// Load reads configuration from environment variables and returns a validated Config.
// The encryption secret, identity provider and email service are optional at
// load time; absent values disable the dependent features, which then fail
// with a "not configured" error instead of crashing.
// Optional variables with defaults: TRADESCOPE_LISTEN_ADDR (127.0.0.1:8080),
// TRADESCOPE_DB_PATH (tradescope.db), TRADESCOPE_RATE_LIMIT_WINDOW (1m),
// TRADESCOPE_RATE_LIMIT_MAX (5), TRADESCOPE_MAX_IMAGE_BYTES (10 MiB),
// TRADESCOPE_EMAIL_FROM (TradeScope AI <onboarding@resend.dev>).
func Load() (*Config, error) {
	cfg := &Config{
		EncryptionSecret:   os.Getenv("TRADESCOPE_ENCRYPTION_SECRET"),
		SupabaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("TRADESCOPE_SUPABASE_URL")), "/"),
		SupabaseServiceKey: strings.TrimSpace(os.Getenv("TRADESCOPE_SUPABASE_SERVICE_ROLE_KEY")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("TRADESCOPE_DATABASE_URL")),
		DBPath:             "tradescope.db",
		ListenAddr:         "127.0.0.1:8080",
		RateLimitWindow:    time.Minute,
		RateLimitMax:       5,
		ResendAPIKey:       strings.TrimSpace(os.Getenv("TRADESCOPE_RESEND_API_KEY")),
		EmailFrom:          "TradeScope AI <onboarding@resend.dev>",
		MaxImageBytes:      10 << 20,
	}

	if cfg.SupabaseURL != "" {
		u, err := url.Parse(cfg.SupabaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("TRADESCOPE_SUPABASE_URL must be an absolute http(s) URL")
		}
	}

	if v, ok := os.LookupEnv("TRADESCOPE_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("TRADESCOPE_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("TRADESCOPE_RATE_LIMIT_WINDOW"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TRADESCOPE_RATE_LIMIT_WINDOW has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("TRADESCOPE_RATE_LIMIT_WINDOW must be positive, got %s", parsed)
		}
		cfg.RateLimitWindow = parsed
	}

	if v, ok := os.LookupEnv("TRADESCOPE_RATE_LIMIT_MAX"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TRADESCOPE_RATE_LIMIT_MAX has invalid integer %q: %w", v, err)
		}
		if parsed < 1 {
			return nil, fmt.Errorf("TRADESCOPE_RATE_LIMIT_MAX must be at least 1, got %d", parsed)
		}
		cfg.RateLimitMax = parsed
	}

	if v, ok := os.LookupEnv("TRADESCOPE_MAX_IMAGE_BYTES"); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TRADESCOPE_MAX_IMAGE_BYTES has invalid integer %q: %w", v, err)
		}
		if parsed < 1024 {
			return nil, fmt.Errorf("TRADESCOPE_MAX_IMAGE_BYTES must be at least 1024, got %d", parsed)
		}
		cfg.MaxImageBytes = parsed
	}

	if v, ok := os.LookupEnv("TRADESCOPE_EMAIL_FROM"); ok && strings.TrimSpace(v) != "" {
		cfg.EmailFrom = strings.TrimSpace(v)
	}

	return cfg, nil
}
