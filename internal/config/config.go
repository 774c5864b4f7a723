package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the issue bridge configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Tracker     TrackerConfig     `yaml:"tracker"`
	SchemaCache SchemaCacheConfig `yaml:"schema_cache"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TrackerConfig is the fallback tracker connection used by projects that
// have none of their own.
type TrackerConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
	Project  string `yaml:"project"`
	Timeout  string `yaml:"timeout"`
}

type SchemaCacheConfig struct {
	TTL string `yaml:"ttl"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			Path: "./issue-bridge.db",
		},
		Tracker: TrackerConfig{
			Timeout: "10s",
		},
		SchemaCache: SchemaCacheConfig{
			TTL: "600s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ISSUE_BRIDGE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ISSUE_BRIDGE_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("YOUTRACK_URL"); v != "" {
		c.Tracker.URL = v
	}
	if v := os.Getenv("YOUTRACK_TOKEN"); v != "" {
		c.Tracker.Token = v
	}
	if v := os.Getenv("YOUTRACK_USERNAME"); v != "" {
		c.Tracker.Username = v
	}
	if v := os.Getenv("YOUTRACK_PASSWORD"); v != "" {
		c.Tracker.Password = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) GetTrackerTimeout() time.Duration {
	return parseDuration(c.Tracker.Timeout, 10*time.Second)
}

func (c *Config) GetSchemaCacheTTL() time.Duration {
	return parseDuration(c.SchemaCache.TTL, 600*time.Second)
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	for name, v := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"tracker.timeout":         c.Tracker.Timeout,
		"schema_cache.ttl":        c.SchemaCache.TTL,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
