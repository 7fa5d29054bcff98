package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the default
// config file location.
const EnvConfigPath = "NFEKEY_CONFIG"

const defaultFileName = "nfekey.yaml"

// Config is the top-level nfekey configuration.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	StoreFile   string `yaml:"store_file"`
	JournalFile string `yaml:"journal_file"`
	LogFile     string `yaml:"log_file"`
	Listen      string `yaml:"listen"`

	Webcam  WebcamConfig  `yaml:"webcam"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// WebcamConfig configures the local V4L2 capture loop.
type WebcamConfig struct {
	Device      string        `yaml:"device"`
	Width       uint32        `yaml:"width"`
	Height      uint32        `yaml:"height"`
	IntervalRaw string        `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
}

// MetricsConfig configures the Prometheus endpoint on the web server.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"` // pointer to distinguish unset from false; default true
}

// MetricsEnabled returns whether /metrics should be served.
func (m MetricsConfig) MetricsEnabled() bool {
	if m.Enabled == nil {
		return true
	}
	return *m.Enabled
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a configuration file. With an empty path it falls back to
// $NFEKEY_CONFIG, then nfekey.yaml in the working directory, then pure
// defaults. String values support ${VAR} environment expansion.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		if _, err := os.Stat(defaultFileName); err == nil {
			path = defaultFileName
		} else {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// parseDurations converts raw duration strings into their typed fields.
func (c *Config) parseDurations() error {
	if c.Webcam.IntervalRaw == "" {
		return nil
	}
	d, err := time.ParseDuration(c.Webcam.IntervalRaw)
	if err != nil {
		return fmt.Errorf("webcam interval: %w", err)
	}
	c.Webcam.Interval = d
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.StoreFile == "" {
		c.StoreFile = filepath.Join(c.DataDir, "access_keys.csv")
	}
	if c.JournalFile == "" {
		c.JournalFile = filepath.Join(c.DataDir, "scan_journal.jsonl")
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Webcam.Device == "" {
		c.Webcam.Device = "/dev/video0"
	}
	if c.Webcam.Width == 0 {
		c.Webcam.Width = 1280
	}
	if c.Webcam.Height == 0 {
		c.Webcam.Height = 720
	}
	if c.Webcam.Interval == 0 {
		c.Webcam.Interval = 500 * time.Millisecond
	}
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	if c.Webcam.Interval <= 0 {
		return fmt.Errorf("webcam interval must be positive, got %s", c.Webcam.Interval)
	}
	if c.Webcam.Width == 0 || c.Webcam.Height == 0 {
		return fmt.Errorf("webcam dimensions must be positive")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	return nil
}
