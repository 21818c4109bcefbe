// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the root of config.yaml.
type Config struct {
	Http     Http     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Model    Model    `yaml:"model"`
	Database Database `yaml:"database"`
}

// Http holds listener settings.
type Http struct {
	Port         int           `yaml:"port"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// Log holds logger settings. An empty File logs to stderr only.
type Log struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
	Development bool   `yaml:"development"`
}

// Model points at the trained artifact.
type Model struct {
	Path          string `yaml:"path"`
	PositiveLabel string `yaml:"positive_label"`
	Cache         bool   `yaml:"cache"`
}

// Database configures the prediction history. An empty Path disables it.
type Database struct {
	Path string `yaml:"path"`
}

const (
	defaultPort         = 5000
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 64 << 10
	defaultLogLevel     = "info"
	defaultMaxSizeMB    = 100
	defaultMaxBackups   = 3
	defaultMaxAgeDays   = 28
	defaultModelPath    = "model.json"
	defaultPositive     = "yes"
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = defaultPort
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = defaultTimeout
	}
	if c.Http.MaxBodyBytes == 0 {
		c.Http.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaultMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaultMaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = defaultMaxAgeDays
	}
	if c.Model.Path == "" {
		c.Model.Path = defaultModelPath
	}
	if c.Model.PositiveLabel == "" {
		c.Model.PositiveLabel = defaultPositive
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Http.Port < 1 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.Http.Port)
	}
	if c.Http.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative: %s", c.Http.Timeout)
	}
	if c.Http.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must not be negative: %d", c.Http.MaxBodyBytes)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level unknown: %q", c.Log.Level)
	}
	return nil
}
