// Package config holds the settings of a sol0 compilation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/susji/sol0/internal/log"
	"github.com/susji/sol0/report"
)

const DefaultFile = "sol0.yaml"

var (
	ErrLogLevel = errors.New("unknown log level")
	ErrWorkers  = errors.New("workers must be positive")
)

type Analysis struct {
	UnassignedStorage bool `yaml:"unassigned_storage"`
	UnreachableCode   bool `yaml:"unreachable_code"`
	Workers           int  `yaml:"workers"`
}

type Output struct {
	Format string `yaml:"format"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Config struct {
	Analysis Analysis `yaml:"analysis"`
	Output   Output   `yaml:"output"`
	Log      Log      `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Analysis: Analysis{
			UnassignedStorage: true,
			UnreachableCode:   true,
			Workers:           1,
		},
		Output: Output{Format: report.FormatText},
		Log:    Log{Level: "warn"},
	}
}

// Parse reads YAML on top of the defaults. Keys missing from data keep their
// default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration from path and applies the environment
// overrides. An empty path means the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SOL0_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SOL0_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOL0_WORKERS: %w", err)
		}
		cfg.Analysis.Workers = n
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Output.Format {
	case report.FormatText, report.FormatJSON, report.FormatMsgpack:
	default:
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, c.Output.Format)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrLogLevel, c.Log.Level)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrWorkers, c.Analysis.Workers)
	}
	return nil
}
