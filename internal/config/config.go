// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// Snapshot backends.
const (
	BackendNone     = "none"
	BackendFile     = "file"
	BackendLevelDB  = "leveldb"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// Config is the full process configuration.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`

	SnapshotBackend  string        `env:"SNAPSHOT_BACKEND" envDefault:"file"`
	SnapshotPath     string        `env:"SNAPSHOT_PATH" envDefault:"data/ledger.snapshot"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"0s"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisKey         string        `env:"REDIS_KEY"`
	// AllowFreshOnCorrupt starts an empty ledger when the stored snapshot is unreadable.
	AllowFreshOnCorrupt bool `env:"LEDGER_ALLOW_FRESH_ON_CORRUPT" envDefault:"false"`

	JWTSecret       string   `env:"JWT_HS256_SECRET"`
	JWTIssuer       string   `env:"JWT_ISSUER"`
	JWTAudience     string   `env:"JWT_AUDIENCE"`
	AdminIdentities []string `env:"ADMIN_IDENTITIES" envSeparator:","`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`

	DisplayCurrency string `env:"DISPLAY_CURRENCY" envDefault:"USD"`
	DevSeed         bool   `env:"DEV_SEED" envDefault:"false"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.SnapshotBackend = strings.ToLower(strings.TrimSpace(cfg.SnapshotBackend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.SnapshotBackend {
	case BackendNone:
	case BackendFile, BackendLevelDB, BackendSQLite:
		if strings.TrimSpace(c.SnapshotPath) == "" {
			return fmt.Errorf("SNAPSHOT_PATH is required for backend %q", c.SnapshotBackend)
		}
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for backend %q", c.SnapshotBackend)
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR is required for backend %q", c.SnapshotBackend)
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}
	if c.SnapshotInterval < 0 {
		return fmt.Errorf("SNAPSHOT_INTERVAL must not be negative")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	if _, err := c.Admins(); err != nil {
		return err
	}
	return nil
}

// Admins parses AdminIdentities.
func (c Config) Admins() ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(c.AdminIdentities))
	for _, raw := range c.AdminIdentities {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDENTITIES entry %q: %w", raw, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds the process logger: JSON by default, text when LOG_FORMAT=text.
func (c Config) Logger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)
	if strings.EqualFold(strings.TrimSpace(c.LogFormat), "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
