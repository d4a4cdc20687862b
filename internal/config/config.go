// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// TokenStrategy selects how the admin session token travels between the
// browser and the API.
type TokenStrategy string

const (
	StrategyCookie TokenStrategy = "cookie"
	StrategyBearer TokenStrategy = "bearer"
	StrategyBoth   TokenStrategy = "both"
)

// UsesCookie reports whether the strategy sets/reads the auth cookie.
func (s TokenStrategy) UsesCookie() bool {
	return s == StrategyCookie || s == StrategyBoth
}

// UsesBearer reports whether the strategy reads the Authorization header and
// returns the token in the login response body.
func (s TokenStrategy) UsesBearer() bool {
	return s == StrategyBearer || s == StrategyBoth
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
const MinJWTSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"PF_DB_PATH" envDefault:"./data/parentfacile.db"`
	PDFDir     string `env:"PF_PDF_DIR" envDefault:"./public/pdfs"`
	ServerHost string `env:"PF_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PF_SERVER_PORT" envDefault:"4000"`
	Env        string `env:"PF_ENV" envDefault:"development"`
	LogLevel   string `env:"PF_LOG_LEVEL" envDefault:"info"`

	// Admin auth configuration
	JWTSecret     string        `env:"PF_JWT_SECRET,required"`
	JWTExpiry     time.Duration `env:"PF_JWT_EXPIRES" envDefault:"48h"`
	TokenStrategy TokenStrategy `env:"PF_TOKEN_STRATEGY" envDefault:"both"`
	CookieName    string        `env:"PF_COOKIE_NAME" envDefault:"admintoken"`
	CookieSecure  bool          `env:"PF_COOKIE_SECURE" envDefault:"false"`

	// Admin account. PasswordHash takes priority over Password; Password is a
	// development-only affordance. The seed pair creates the admin_users row
	// at startup when both are set.
	AdminEmail        string `env:"PF_ADMIN_EMAIL" envDefault:"admin@parentfacile.fr"`
	AdminPasswordHash string `env:"PF_ADMIN_PASSWORD_HASH"`
	AdminPassword     string `env:"PF_ADMIN_PASSWORD"`
	AdminSeedEmail    string `env:"PF_ADMIN_SEED_EMAIL"`
	AdminSeedPassword string `env:"PF_ADMIN_SEED_PASSWORD"`

	// Upload limits
	MaxUploadBytes int64 `env:"PF_MAX_UPLOAD_BYTES" envDefault:"20971520"` // 20MB

	// SMTP relay for the contact form. Mail is disabled when the host is empty.
	SMTPHost string `env:"PF_SMTP_HOST"`
	SMTPPort int    `env:"PF_SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"PF_SMTP_USER"`
	SMTPPass string `env:"PF_SMTP_PASS"`
	SMTPFrom string `env:"PF_SMTP_FROM"`
	MailTo   string `env:"PF_CONTACT_TO"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MailEnabled returns true if the SMTP relay is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailTo != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("PF_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	switch s := TokenStrategy(strings.ToLower(string(cfg.TokenStrategy))); s {
	case StrategyCookie, StrategyBearer, StrategyBoth:
		cfg.TokenStrategy = s
	default:
		return nil, fmt.Errorf("PF_TOKEN_STRATEGY must be one of cookie, bearer, both; got %q", cfg.TokenStrategy)
	}

	if cfg.JWTExpiry <= 0 {
		return nil, fmt.Errorf("PF_JWT_EXPIRES must be positive, got %s", cfg.JWTExpiry)
	}

	return cfg, nil
}
