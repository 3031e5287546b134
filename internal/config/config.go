package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the whole application configuration, read once from the
// environment at startup and treated as immutable afterwards.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	JWTSecret    string `env:"JWT_SECRET" envDefault:"dev-secret-please-change"`
	TokenTTLHrs  int    `env:"TOKEN_TTL_HOURS" envDefault:"24"`
	SessionTTLMn int    `env:"SESSION_TTL_MINUTES" envDefault:"90"`

	// Reserved administrative sign-in pair. The defaults mirror the demo
	// shortcut and are unsafe for anything public; main logs a warning when
	// they are still in effect.
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	AuthRatePerMin int `env:"AUTH_RATE_PER_MIN" envDefault:"10"`
	AuthRateBurst  int `env:"AUTH_RATE_BURST" envDefault:"10"`
}

// Load reads Config from the environment. DATABASE_URL is the only strictly
// required value.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL not set")
	}
	return cfg, nil
}

// UsingDefaultAdminPair reports whether the demo admin credentials are live.
func (c *Config) UsingDefaultAdminPair() bool {
	return c.AdminUsername == "admin" && c.AdminPassword == "admin"
}
