// Package config provides environment-variable-first configuration
// loading with optional YAML file fallback for the hogcheck CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	// APIBase is the base URL of the capture service's HTTP API.
	APIBase string `yaml:"api_base"`

	// SMTPAddr is the host:port of the capture service's SMTP endpoint.
	SMTPAddr string `yaml:"smtp_addr"`

	// Count is the number of messages a verification run sends.
	Count int `yaml:"count"`

	// Image overrides the container image for ephemeral instances.
	// Empty selects the built-in default.
	Image string `yaml:"image"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible
// defaults. Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.APIBase = "http://localhost:8025"
	c.SMTPAddr = "localhost:1025"
	c.Count = 1
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("HOGCHECK_API_BASE"); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv("HOGCHECK_SMTP_ADDR"); v != "" {
		c.SMTPAddr = v
	}
	if v := os.Getenv("HOGCHECK_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Count = n
		}
	}
	if v := os.Getenv("HOGCHECK_IMAGE"); v != "" {
		c.Image = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
