// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

const (
	AdminPolicyEmail = "email"
	AdminPolicyRole  = "role"
)

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress          string        `env:"RUN_ADDRESS"`
	DatabaseURI         string        `env:"DATABASE_URI"`
	IdentityProviderURL string        `env:"IDENTITY_PROVIDER_URL"`
	IdentityTokenSecret string        `env:"IDENTITY_TOKEN_SECRET"`
	IdentityIssuer      string        `env:"IDENTITY_ISSUER"`
	SessionSecret       string        `env:"SESSION_SECRET"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	AdminEmail          string        `env:"ADMIN_EMAIL"`
	AdminPolicy         string        `env:"ADMIN_POLICY" envDefault:"email"`
	StatusPolicy        string        `env:"STATUS_POLICY" envDefault:"strict"`
	Timezone            string        `env:"TIMEZONE" envDefault:"Asia/Seoul"`
	RedisAddr           string        `env:"REDIS_ADDR"`
	KafkaBrokers        []string      `env:"KAFKA_BROKERS" envSeparator:","`

	location *time.Location
}

// Parse считывает конфигурацию из .env, флагов командной строки и переменных
// окружения. Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envIdentityURL := cfg.IdentityProviderURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.IdentityProviderURL, "i", "", "identity provider base URL")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envIdentityURL != "" {
		cfg.IdentityProviderURL = envIdentityURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AdminPolicy {
	case AdminPolicyEmail, AdminPolicyRole:
	default:
		return fmt.Errorf("unknown ADMIN_POLICY %q", c.AdminPolicy)
	}

	switch model.StatusPolicy(c.StatusPolicy) {
	case model.StatusPolicyStrict, model.StatusPolicyPermissive:
	default:
		return fmt.Errorf("unknown STATUS_POLICY %q", c.StatusPolicy)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("load TIMEZONE: %w", err)
	}
	c.location = loc
	return nil
}

// Location возвращает часовой пояс витрины.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Policy возвращает политику смены статусов заказа.
func (c *Config) Policy() model.StatusPolicy {
	return model.StatusPolicy(c.StatusPolicy)
}
