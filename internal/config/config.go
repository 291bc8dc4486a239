// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration, loaded once at startup.
type Config struct {
	Port    int    `env:"PORT" envDefault:"8080"`
	DBPath  string `env:"DB_PATH" envDefault:"data/leaderboard.db"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// JWTSecret signs session tokens and must be long random data.
	JWTSecret string `env:"JWT_SECRET"`

	// SMTP settings. When Host is empty the server falls back to the log
	// mailer and confirmation/recovery mails land in the log.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@localhost"`

	// GitHub OAuth. Sign-in routes answer 404 until both are set.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

// Load parses the environment and applies derived defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("%s/auth/github/callback", cfg.BaseURL)
	}

	return &cfg, nil
}

// SMTPConfigured reports whether a real mail relay is available.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}

// GitHubConfigured reports whether OAuth sign-in can be offered.
func (c *Config) GitHubConfigured() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}
