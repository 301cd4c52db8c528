// Package config loads the books inventory service configuration from the
// environment. A .env file is read first when present; variables already set
// in the environment win.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: HTTP listen port (default: 8080)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - SHUTDOWN_TIMEOUT: graceful shutdown budget (default: 10s)
//
// Backing Store:
//   - DATABASE_DRIVER: sqlite3 or postgres (default: sqlite3)
//   - DATABASE_DSN: driver specific DSN (default: shared in-memory SQLite)
//
// Remote Cache:
//   - REDIS_URL: redis:// or rediss:// URL (default: redis://localhost:6379/0)
//   - CACHE_REMOTE_TTL: remote entry expiration (default: 1h)
//   - CACHE_REMOTE_ENVELOPE: frame remote values with a write-time header (default: false)
//   - CACHE_KEY_PREFIX: prefix for every remote key (default: none)
//
// Local Cache:
//   - CACHE_LOCAL_CAPACITY: maximum entries (default: 10000)
//   - CACHE_LOCAL_SHARDS: shard count (default: 256)
//   - CACHE_LOCAL_TTL: local entry expiration (default: 5m)
//   - CACHE_LOCAL_EVICTION_PERCENTAGE: share evicted when full (default: 10)
//
// Connections:
//   - CONNECT_RETRY_ATTEMPTS: startup attempts for the database and Redis (default: 3)
//   - CONNECT_RETRY_INTERVAL: base backoff between attempts (default: 1s)
package config

import (
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jmgilman/go/errors"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-tiered-cache/cache"
)

const defaultDSN = "file:books?mode=memory&cache=shared"

var portPattern = regexp.MustCompile(`^[0-9]{1,5}$`)

// Config holds every setting of the service.
type Config struct {
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	DatabaseDriver string
	DatabaseDSN    string

	RedisURL      string
	RedisEnvelope bool

	Cache cache.Config

	RetryAttempts int
	RetryInterval time.Duration
}

// LoadDotEnv reads the given .env files (".env" when none are given) into the
// process environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, errors.CodeInvalidConfig, "config: failed to read %s", file)
		}
	}
	return nil
}

// Load builds a Config from the environment, applying defaults for unset
// variables. Malformed numbers and durations are errors. Call Validate
// before use.
func Load() (*Config, error) {
	p := &parser{}

	defaults := cache.DefaultConfig()
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),

		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisEnvelope: p.boolean("CACHE_REMOTE_ENVELOPE", false),

		Cache: cache.Config{
			Local: cache.LocalConfig{
				Capacity:           p.integer("CACHE_LOCAL_CAPACITY", defaults.Local.Capacity),
				NumShards:          p.integer("CACHE_LOCAL_SHARDS", defaults.Local.NumShards),
				TTL:                p.duration("CACHE_LOCAL_TTL", defaults.Local.TTL),
				EvictionPercentage: p.integer("CACHE_LOCAL_EVICTION_PERCENTAGE", defaults.Local.EvictionPercentage),
				EvictionInterval:   defaults.Local.EvictionInterval,
			},
			RemoteTTL: p.duration("CACHE_REMOTE_TTL", defaults.RemoteTTL),
			KeyPrefix: getEnv("CACHE_KEY_PREFIX", ""),
		},

		RetryAttempts: p.integer("CONNECT_RETRY_ATTEMPTS", 3),
		RetryInterval: p.duration("CONNECT_RETRY_INTERVAL", time.Second),
	}

	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Match(portPattern)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.DatabaseDriver, validation.Required, validation.In("sqlite3", "postgres")),
		validation.Field(&c.DatabaseDSN, validation.Required),
		validation.Field(&c.RedisURL, validation.Required, validation.Match(regexp.MustCompile(`^rediss?://`))),
		validation.Field(&c.RetryAttempts, validation.Min(1)),
		validation.Field(&c.RetryInterval, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "config: invalid configuration")
	}

	if port, _ := strconv.Atoi(c.Port); port < 1 || port > 65535 {
		return errors.Newf(errors.CodeInvalidConfig, "config: PORT %s out of range", c.Port)
	}

	return c.Cache.Validate()
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first conversion error so Load reads like a table.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, cause error) {
	if p.err == nil {
		p.err = errors.WithContext(
			errors.Wrapf(cause, errors.CodeInvalidConfig, "config: malformed %s=%q", key, value),
			"variable", key,
		)
	}
}

func (p *parser) integer(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return n
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return d
}

func (p *parser) boolean(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return b
}
