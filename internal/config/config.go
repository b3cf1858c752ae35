package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the gazette-sync CLI.
type Config struct {
	BaseURL     string      `yaml:"base_url"`
	Repo        string      `yaml:"repo"`
	Revision    string      `yaml:"revision"`
	Output      string      `yaml:"output"`
	Concurrency int         `yaml:"concurrency"`
	HotPeriods  int         `yaml:"hot_periods"`
	Periods     []string    `yaml:"periods"`
	Progress    bool        `yaml:"progress"`
	Retry       RetryConfig `yaml:"retry"`
}

// RetryConfig defines retry behavior for hub requests.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:     "https://huggingface.co",
		Repo:        "chaiyosart/thai-royal-gazette",
		Revision:    "main",
		Output:      "./data",
		Concurrency: 5,
		HotPeriods:  2,
		Progress:    true,
		Retry: RetryConfig{
			Attempts: 3,
			Backoff:  time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	BaseURL     string          `yaml:"base_url"`
	Repo        string          `yaml:"repo"`
	Revision    string          `yaml:"revision"`
	Output      string          `yaml:"output"`
	Concurrency int             `yaml:"concurrency"`
	HotPeriods  int             `yaml:"hot_periods"`
	Periods     []string        `yaml:"periods"`
	Progress    *bool           `yaml:"progress"`
	Retry       yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Backoff  string `yaml:"backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.Repo != "" {
		cfg.Repo = yc.Repo
	}
	if yc.Revision != "" {
		cfg.Revision = yc.Revision
	}
	if yc.Output != "" {
		cfg.Output = yc.Output
	}
	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	if yc.HotPeriods != 0 {
		cfg.HotPeriods = yc.HotPeriods
	}
	if len(yc.Periods) > 0 {
		cfg.Periods = yc.Periods
	}
	if yc.Progress != nil {
		cfg.Progress = *yc.Progress
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the GAZETTE_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("GAZETTE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("GAZETTE_REPO"); v != "" {
		c.Repo = v
	}
	if v := os.Getenv("GAZETTE_REVISION"); v != "" {
		c.Revision = v
	}
	if v := os.Getenv("GAZETTE_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("GAZETTE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GAZETTE_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("GAZETTE_HOT_PERIODS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GAZETTE_HOT_PERIODS: %w", err)
		}
		c.HotPeriods = n
	}
	if v := os.Getenv("GAZETTE_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("GAZETTE_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GAZETTE_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("GAZETTE_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse GAZETTE_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.Repo == "" {
		return errors.New("config: repo is required")
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.Repo != "" {
		c.Repo = override.Repo
	}
	if override.Revision != "" {
		c.Revision = override.Revision
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.Concurrency != 0 {
		c.Concurrency = override.Concurrency
	}
	if override.HotPeriods != 0 {
		c.HotPeriods = override.HotPeriods
	}
	if len(override.Periods) > 0 {
		c.Periods = override.Periods
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	return c
}
