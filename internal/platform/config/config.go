package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Activator
	Port               string        `env:"PORT" default:"3000"`
	GateServerURL      string        `env:"GATE_SERVER_URL" default:"http://localhost:6748"`
	GateRequestTimeout time.Duration `env:"GATE_REQUEST_TIMEOUT" default:"0s"` // 0 keeps the http.Client default (no timeout)

	// Gate
	GatePort           string        `env:"GATE_PORT" default:"6748"`
	GateDefaultTimeout time.Duration `env:"GATE_DEFAULT_TIMEOUT" default:"5s"`
	GateStore          string        `env:"GATE_STORE" default:"memory"`
	RedisURL           string        `env:"REDIS_URL"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas, dropping blanks.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.GateServerURL)
	if err != nil {
		return fmt.Errorf("GATE_SERVER_URL is not a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("GATE_SERVER_URL must be an absolute http(s) URL, got %q", cfg.GateServerURL)
	}

	if cfg.GateRequestTimeout < 0 {
		return errors.New("GATE_REQUEST_TIMEOUT must not be negative")
	}
	if cfg.GateDefaultTimeout <= 0 {
		return errors.New("GATE_DEFAULT_TIMEOUT must be positive")
	}

	switch cfg.GateStore {
	case StoreMemory:
	case StoreRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required when GATE_STORE=redis")
		}
	default:
		return fmt.Errorf("GATE_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, cfg.GateStore)
	}

	return nil
}
