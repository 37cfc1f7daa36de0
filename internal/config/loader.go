package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/company-calendar/internal/scheduler"
)

// Environment variables recognised by Load.
const (
	EnvConfigFile      = "SCHEDULER_CONFIG_FILE"
	EnvHTTPPort        = "SCHEDULER_HTTP_PORT"
	EnvSQLitePath      = "SCHEDULER_SQLITE_PATH"
	EnvDefaultTimezone = "SCHEDULER_DEFAULT_TIMEZONE"
	EnvLogLevel        = "SCHEDULER_LOG_LEVEL"
	EnvLogFormat       = "SCHEDULER_LOG_FORMAT"
)

// Config captures the settings of the calendar service.
type Config struct {
	HTTPPort   int    `yaml:"http_port"`
	SQLitePath string `yaml:"sqlite_path"`
	// DefaultTimezone is assigned to accounts that sign up without one.
	DefaultTimezone string        `yaml:"default_timezone"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		SQLitePath:      "calendar.db",
		DefaultTimezone: "UTC",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// SCHEDULER_CONFIG_FILE when set, then individual environment variables.
// Every invalid value is reported in a single error.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	invalid := cfg.applyEnv()
	invalid = append(invalid, cfg.validate()...)
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() []string {
	invalid := make([]string, 0, 1)

	if portValue := strings.TrimSpace(os.Getenv(EnvHTTPPort)); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil {
			invalid = append(invalid, EnvHTTPPort)
		} else {
			c.HTTPPort = port
		}
	}
	if path := strings.TrimSpace(os.Getenv(EnvSQLitePath)); path != "" {
		c.SQLitePath = path
	}
	if tz := strings.TrimSpace(os.Getenv(EnvDefaultTimezone)); tz != "" {
		c.DefaultTimezone = tz
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		c.LogLevel = level
	}
	if format := strings.TrimSpace(os.Getenv(EnvLogFormat)); format != "" {
		c.LogFormat = format
	}

	return invalid
}

func (c *Config) validate() []string {
	var invalid []string

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "http_port")
	}
	if strings.TrimSpace(c.SQLitePath) == "" {
		invalid = append(invalid, "sqlite_path")
	}
	if _, err := scheduler.LoadLocation(c.DefaultTimezone); err != nil {
		invalid = append(invalid, "default_timezone")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "log_level")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		invalid = append(invalid, "log_format")
	}
	if c.ShutdownTimeout <= 0 {
		invalid = append(invalid, "shutdown_timeout")
	}

	return invalid
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
