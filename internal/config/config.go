// Package config loads the settings of the talks binary: built-in
// defaults, then an optional YAML file, then TALKS_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TALKS_"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds every setting.
type Config struct {
	Store      string     `yaml:"store" env:"STORE"`
	Dir        string     `yaml:"dir" env:"DIR"`
	SQLite     string     `yaml:"sqlite" env:"SQLITE"`
	Redis      Redis      `yaml:"redis" envPrefix:"REDIS_"`
	Encryption Encryption `yaml:"encryption" envPrefix:"ENCRYPTION_"`
	Login      string     `yaml:"login" env:"LOGIN"`
	Authors    []string   `yaml:"authors" env:"AUTHORS" envSeparator:","`
	MaxComment int        `yaml:"max_comment" env:"MAX_COMMENT"`
	Addr       string     `yaml:"addr" env:"ADDR"`
	LogLevel   string     `yaml:"log_level" env:"LOG_LEVEL"`
}

// Encryption turns on encryption at rest when Key is set.
// Keys are base64 encoded AES-256 keys.
type Encryption struct {
	Key          string   `yaml:"key" env:"KEY"`
	FallbackKeys []string `yaml:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`
}

// Redis configures the redis store and the distributed lock.
type Redis struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Store:      StoreFile,
		Dir:        ".talks",
		SQLite:     "talks.db",
		Redis:      Redis{Addr: "localhost:6379", Prefix: "talks:"},
		Login:      "talks",
		MaxComment: 64 * 1024,
		Addr:       ":8080",
		LogLevel:   "info",
	}
}

// Load builds the configuration. path may be empty; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreFile:
		if c.Dir == "" {
			return fmt.Errorf("config: store %q needs dir", c.Store)
		}
	case StoreSQLite:
		if c.SQLite == "" {
			return fmt.Errorf("config: store %q needs sqlite", c.Store)
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: store %q needs redis.addr", c.Store)
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("config: redis.ttl cannot be negative")
	}
	return nil
}
