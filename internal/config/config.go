package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "250ms" or "15s" parse
// directly.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Settlement SettlementConfig `yaml:"settlement"`
	Fanout     FanoutConfig     `yaml:"fanout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds store settings. Driver selects the in-memory store or
// the Postgres-backed one.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "memory" or "postgres"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// SettlementConfig holds settlement sweep settings.
type SettlementConfig struct {
	SweepInterval Duration `yaml:"sweep_interval"`
}

// FanoutConfig holds notification fanout settings.
type FanoutConfig struct {
	// SubscriberBuffer is the per-subscriber event channel capacity. A
	// subscriber that falls further behind than this misses events and must
	// re-fetch the auction snapshot.
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Driver:  "memory",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Settlement: SettlementConfig{
			SweepInterval: Duration(time.Second),
		},
		Fanout: FanoutConfig{
			SubscriberBuffer: 64,
		},
	}
}

// Load reads a YAML configuration file from the given path, applying defaults
// for anything the file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "memory", "postgres":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"memory\" or \"postgres\"", c.Database.Driver)
	}
	if c.Settlement.SweepInterval <= 0 {
		return fmt.Errorf("settlement sweep_interval must be positive, got %s", c.Settlement.SweepInterval.Std())
	}
	if c.Fanout.SubscriberBuffer <= 0 {
		return fmt.Errorf("fanout subscriber_buffer must be positive, got %d", c.Fanout.SubscriberBuffer)
	}
	return nil
}
