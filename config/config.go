// Package config loads scheduler server/client settings from the
// environment, with godotenv picking up a local .env file first if one
// is present.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the server's network and logging settings.
type Config struct {
	Env string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`

	Host string `env:"ASYNC_SCHED_HOST" envDefault:"127.0.0.1" validate:"required"`
	Port int    `env:"ASYNC_SCHED_PORT" envDefault:"8000" validate:"min=1,max=65535"`

	UpdatePath string `env:"ASYNC_SCHED_UPDATE_PATH"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
}

// Load reads a .env file if present, then parses and validates the
// environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
