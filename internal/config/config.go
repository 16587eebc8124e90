// Package config loads the settings of the agglo command from YAML files and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid")

// Config contains all settings of a clustering run.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Cluster ClusterConfig `yaml:"cluster"`
	Limits  LimitsConfig  `yaml:"limits"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// InputConfig describes the rating file.
type InputConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

// ClusterConfig contains the search settings.
type ClusterConfig struct {
	Acuity               float64       `yaml:"acuity"`
	Workers              int           `yaml:"workers"`
	CacheCapacity        int           `yaml:"cache_capacity"`
	DisableCache         bool          `yaml:"disable_cache"`
	DisableOverlapFilter bool          `yaml:"disable_overlap_filter"`
	ProgressInterval     time.Duration `yaml:"progress_interval"`
}

// LimitsConfig caps resources shared by all searches. Zero means unlimited.
type LimitsConfig struct {
	MemoryBytes int64 `yaml:"memory_bytes"`
	MaxWorkers  int64 `yaml:"max_workers"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Input: InputConfig{
			Delimiter: ",",
		},
		Cluster: ClusterConfig{
			Acuity:           1.0,
			ProgressInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from path over the defaults and applies
// AGGLO_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup("AGGLO_INPUT"); ok {
		cfg.Input.Path = v
	}
	if v, ok := lookup("AGGLO_ACUITY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AGGLO_ACUITY: %w", err)
		}
		cfg.Cluster.Acuity = f
	}
	if v, ok := lookup("AGGLO_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGGLO_WORKERS: %w", err)
		}
		cfg.Cluster.Workers = n
	}
	if v, ok := lookup("AGGLO_MEMORY_LIMIT"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AGGLO_MEMORY_LIMIT: %w", err)
		}
		cfg.Limits.MemoryBytes = n
	}
	if v, ok := lookup("AGGLO_LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup("AGGLO_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if !(c.Cluster.Acuity > 0) {
		return fmt.Errorf("%w: acuity must be positive, got %v", ErrInvalidConfig, c.Cluster.Acuity)
	}
	if c.Cluster.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if c.Cluster.CacheCapacity < 0 {
		return fmt.Errorf("%w: cache_capacity must not be negative", ErrInvalidConfig)
	}
	if c.Limits.MemoryBytes < 0 || c.Limits.MaxWorkers < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if len([]rune(c.Input.Delimiter)) != 1 {
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfig, c.Input.Delimiter)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// Delimiter returns the input delimiter as a rune.
func (c Config) Delimiter() rune {
	return []rune(c.Input.Delimiter)[0]
}
