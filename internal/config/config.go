// Package config loads linkctl settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "linkctl.yaml"

// Config holds client configuration.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Timezone  string        `yaml:"timezone"`
	CopyDelay time.Duration `yaml:"copy_delay"`
	LogLevel  string        `yaml:"log_level"`

	// ConfigPath is the file the settings were read from, if any.
	ConfigPath string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:   "http://localhost:8080",
		Timeout:   10 * time.Second,
		CopyDelay: 1500 * time.Millisecond,
		LogLevel:  "info",
	}
}

// Load builds the configuration. LINKCTL_CONFIG names the YAML file; when
// unset, linkctl.yaml in the working directory is used if present.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Default()

	path := os.Getenv("LINKCTL_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg.BaseURL = getEnvString("LINKCTL_BASE_URL", cfg.BaseURL)
	cfg.Timeout = getEnvDuration("LINKCTL_TIMEOUT", cfg.Timeout)
	cfg.Timezone = getEnvString("LINKCTL_TIMEZONE", cfg.Timezone)
	cfg.CopyDelay = getEnvDuration("LINKCTL_COPY_DELAY", cfg.CopyDelay)
	cfg.LogLevel = getEnvString("LINKCTL_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.ConfigPath = path
	return nil
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.CopyDelay <= 0 {
		return errors.New("copy_delay must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	return loc, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvString(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
