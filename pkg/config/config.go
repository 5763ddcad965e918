package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigPath is the file Load reads when present.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for ekaya-record.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds the connection settings for the mapped database.
// Port and Schema fall back to dialect defaults when left empty.
type DatabaseConfig struct {
	Type           string `yaml:"type" env:"DB_TYPE" env-default:"postgres"` // postgres or mssql
	Host           string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"DB_PORT"`
	User           string `yaml:"user" env:"DB_USER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"DB_PASS"` // Secret - not in YAML
	Database       string `yaml:"database" env:"DB_NAME" env-default:"ekaya_record"`
	Schema         string `yaml:"schema" env:"DB_SCHEMA"`
	SSLMode        string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"10"`
}

// RedisConfig configures the optional shared column cache.
// An empty Host disables Redis.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`

	DialTimeoutSeconds int `yaml:"dial_timeout_seconds" env:"REDIS_DIAL_TIMEOUT_SECONDS" env-default:"5"`
}

// CatalogConfig controls column metadata caching.
type CatalogConfig struct {
	// CacheTTLSeconds bounds how long introspected columns are reused.
	// Zero disables the cache entirely.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" env:"CATALOG_CACHE_TTL_SECONDS" env-default:"300"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// Load reads DefaultConfigPath with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultConfigPath, version)
}

// LoadFrom reads configuration from path when the file exists, otherwise from
// the environment alone.
func LoadFrom(path string, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}

	switch strings.ToLower(c.Database.Type) {
	case "postgres", "mssql":
	default:
		return fmt.Errorf("database type %q is not supported (must be postgres or mssql)", c.Database.Type)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Catalog.CacheTTLSeconds < 0 {
		return fmt.Errorf("catalog cache ttl must not be negative")
	}
	return nil
}

// Addr returns host:port for the Redis client.
func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(ResolveHost(c.Host), strconv.Itoa(c.Port))
}

// DialTimeout bounds connecting to and pinging Redis.
func (c *RedisConfig) DialTimeout() time.Duration {
	if c.DialTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

// TTL returns CacheTTLSeconds as a duration.
func (c *CatalogConfig) TTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Enabled reports whether Redis is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}
