package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int    `env:"PORT"          envDefault:"8080"`
	AppEnv       string `env:"APP_ENV"       envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./scheduleu.db"`

	SupabaseURL     string `env:"SUPABASE_URL,required"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY,required"`
	SessionSecret   string `env:"SESSION_SECRET,required"`

	AllowedEmailSuffix       string        `env:"ALLOWED_EMAIL_SUFFIX"        envDefault:".edu"`
	RegisterRedirectDelay    time.Duration `env:"REGISTER_REDIRECT_DELAY"     envDefault:"2s"`
	PasswordResetRedirectURL string        `env:"PASSWORD_RESET_REDIRECT_URL"`
	HTTPClientTimeout        time.Duration `env:"HTTP_CLIENT_TIMEOUT"         envDefault:"0s"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	EventRetention     time.Duration `env:"EVENT_RETENTION"      envDefault:"720h"`
	EventPruneSchedule string        `env:"EVENT_PRUNE_SCHEDULE" envDefault:"0 3 * * *"`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) validate() error {
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	if c.SupabaseURL == "" {
		return errors.New("SUPABASE_URL must not be empty")
	}
	if strings.TrimSpace(c.AllowedEmailSuffix) == "" {
		return errors.New("ALLOWED_EMAIL_SUFFIX must not be empty")
	}
	if c.RegisterRedirectDelay < 0 {
		return fmt.Errorf("REGISTER_REDIRECT_DELAY must not be negative, got %s", c.RegisterRedirectDelay)
	}
	if c.EventRetention <= 0 {
		return fmt.Errorf("EVENT_RETENTION must be positive, got %s", c.EventRetention)
	}
	if _, err := cron.ParseStandard(c.EventPruneSchedule); err != nil {
		return fmt.Errorf("invalid EVENT_PRUNE_SCHEDULE: %w", err)
	}
	return nil
}
