package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full environment-sourced configuration surface.
type Config struct {
	Env       string `envconfig:"APP_ENV" default:"development"`
	Port      int    `envconfig:"PORT" default:"8080"`
	SecretKey string `envconfig:"SECRET_KEY" default:"change-this-dev-secret-key"`

	// BaseURL builds the absolute links embedded in outbound email.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	MagicLinkInterval time.Duration `envconfig:"MAGIC_LINK_INTERVAL" default:"1m"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	Database DatabaseConfig
	Mail     MailConfig
}

type DatabaseConfig struct {
	// Driver is sqlite or postgres; DSN is the sqlite file path or the
	// postgres connection string.
	Driver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DB_DSN" default:"appointment.db"`
}

type MailConfig struct {
	Host     string `envconfig:"MAIL_HOST" default:"localhost"`
	Port     int    `envconfig:"MAIL_PORT" default:"587"`
	Username string `envconfig:"MAIL_USERNAME"`
	Password string `envconfig:"MAIL_PASSWORD"`
	UseSSL   bool   `envconfig:"MAIL_USE_SSL" default:"false"`
	From     string `envconfig:"MAIL_FROM" default:"no-reply@example.com"`

	// SuppressSend keeps non-production environments from emailing real
	// patients; messages are logged instead.
	SuppressSend bool `envconfig:"MAIL_SUPPRESS_SEND" default:"false"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.IsProduction() && c.SecretKey == "change-this-dev-secret-key" {
		return fmt.Errorf("SECRET_KEY must be set to a real secret in production")
	}
	return nil
}
