// Package config loads database and logging settings from a YAML file and
// turns them into executor options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coregx/sqlassist/internal/core"
	"github.com/coregx/sqlassist/internal/dialects"
	"github.com/coregx/sqlassist/internal/logger"
	"github.com/coregx/sqlassist/internal/security"
)

// ErrInvalid is returned for a configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config is the file configuration.
type Config struct {
	// Driver is the database/sql driver name; it also selects the dialect.
	Driver string `yaml:"driver"`
	// DSN is the driver data source name.
	DSN  string `yaml:"dsn"`
	Pool Pool   `yaml:"pool"`
	// StmtCache is the prepared statement cache capacity; negative disables it.
	StmtCache int `yaml:"stmt_cache"`
	// HealthCheck is the background ping interval, zero disables it.
	HealthCheck time.Duration `yaml:"health_check"`
	Log         Log           `yaml:"log"`
	// StrictValidation rejects statement keywords and quotes in raw fragments.
	StrictValidation bool `yaml:"strict_validation"`
}

// Pool holds the connection pool limits.
type Pool struct {
	MaxOpen     int           `yaml:"max_open"`
	MaxIdle     int           `yaml:"max_idle"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

// Log holds the logging settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// SensitiveFields replaces the default masked column names.
	SensitiveFields []string `yaml:"sensitive_fields"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("%w: driver is required", ErrInvalid)
	}
	if _, ok := dialects.Lookup(c.Driver); !ok {
		return fmt.Errorf("%w: no dialect for driver %q", ErrInvalid, c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("%w: dsn is required", ErrInvalid)
	}
	if c.Pool.MaxOpen < 0 || c.Pool.MaxIdle < 0 {
		return fmt.Errorf("%w: pool sizes must not be negative", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q must be text or json", ErrInvalid, c.Log.Format)
	}
	return nil
}

// Logger builds the logger described by the configuration, writing to w.
func (c *Config) Logger(w io.Writer) logger.Logger {
	level, _ := logger.ParseLevel(c.Log.Level)
	if c.Log.Format == "json" {
		return logger.NewJSON(w, level)
	}
	return logger.NewText(w, level)
}

// Validator returns the fragment validator described by the configuration.
func (c *Config) Validator() *security.Validator {
	return security.NewValidator(security.WithStrict(c.StrictValidation))
}

// Options converts the configuration into executor options, logging to l.
func (c *Config) Options(l logger.Logger) []core.Option {
	opts := []core.Option{core.WithLogger(l)}
	if c.Pool.MaxOpen > 0 {
		opts = append(opts, core.WithMaxOpenConns(c.Pool.MaxOpen))
	}
	if c.Pool.MaxIdle > 0 {
		opts = append(opts, core.WithMaxIdleConns(c.Pool.MaxIdle))
	}
	if c.Pool.MaxLifetime > 0 {
		opts = append(opts, core.WithConnMaxLifetime(c.Pool.MaxLifetime))
	}
	switch {
	case c.StmtCache < 0:
		opts = append(opts, core.WithoutStmtCache())
	case c.StmtCache > 0:
		opts = append(opts, core.WithStmtCacheCapacity(c.StmtCache))
	}
	if c.HealthCheck > 0 {
		opts = append(opts, core.WithHealthCheck(c.HealthCheck))
	}
	if len(c.Log.SensitiveFields) > 0 {
		opts = append(opts, core.WithSensitiveFields(c.Log.SensitiveFields...))
	}
	return opts
}

// Open opens the configured database, logging to w.
func (c *Config) Open(w io.Writer) (*core.DB, error) {
	return core.Open(c.Driver, c.DSN, c.Options(c.Logger(w))...)
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	level, _ := logger.ParseLevel(c.Log.Level)
	return level
}
