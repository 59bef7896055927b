package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// Exactly one of APIKey and APIKeyHash must be set. APIKeyHash is a
	// bcrypt hash of the key, for deployments that refuse plaintext secrets
	// in their environment.
	APIKey     string `env:"API_KEY"`
	APIKeyHash string `env:"API_KEY_HASH"`

	// TokenSecret enables the bearer-token endpoint when set.
	TokenSecret string `env:"TOKEN_SECRET"`

	// RateLimitRPS caps requests per second per client; 0 disables limiting.
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the env parser cannot express.
func (c *Config) Validate() error {
	if c.APIKey == "" && c.APIKeyHash == "" {
		return errors.New("one of API_KEY or API_KEY_HASH is required")
	}
	if c.APIKey != "" && c.APIKeyHash != "" {
		return errors.New("API_KEY and API_KEY_HASH are mutually exclusive")
	}
	if c.TokenSecret != "" && len(c.TokenSecret) < 32 {
		return errors.New("TOKEN_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.RateLimitRPS < 0 {
		return errors.New("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}
