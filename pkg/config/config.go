// Package config provides configuration loading and management for exemplarfill.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"exemplarfill/pkg/priority"
)

// ErrInvalid is returned by Validate for out-of-range settings
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Inpainting parameters
	Inpainting struct {
		// PatchRadius is the half-width w of the (2w+1)x(2w+1) patches
		PatchRadius int `yaml:"patchRadius"`

		// Alpha normalizes the data term (255 for 8-bit images)
		Alpha float64 `yaml:"alpha"`

		// PriorityMode is one of product, confidence or data
		PriorityMode string `yaml:"priorityMode"`

		// Workers specifies how many goroutines evaluate priorities and search patches
		Workers int `yaml:"workers"`
	} `yaml:"inpainting"`

	// Output parameters
	Output struct {
		// SaveIntermediary determines whether to write snapshots while filling
		SaveIntermediary bool `yaml:"saveIntermediary"`

		// IntermediaryDir is the directory snapshots are written to
		IntermediaryDir string `yaml:"intermediaryDir"`

		// IntermediaryEvery writes a snapshot every N iterations
		IntermediaryEvery int `yaml:"intermediaryEvery"`

		// Verbose enables progress output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is a zerolog level name (trace, debug, info, warn, error)
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Inpainting.PatchRadius = 4
	cfg.Inpainting.Alpha = 255
	cfg.Inpainting.PriorityMode = priority.Product.String()
	cfg.Inpainting.Workers = runtime.NumCPU()

	cfg.Output.SaveIntermediary = false
	cfg.Output.IntermediaryDir = "intermediary"
	cfg.Output.IntermediaryEvery = 10
	cfg.Output.Verbose = true

	cfg.Logging.Level = zerolog.InfoLevel.String()

	return cfg
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Inpainting.PatchRadius < 1 {
		return errors.Wrapf(ErrInvalid, "inpainting.patchRadius must be at least 1, got %d", c.Inpainting.PatchRadius)
	}
	if c.Inpainting.Alpha < 0 {
		return errors.Wrapf(ErrInvalid, "inpainting.alpha must not be negative, got %g", c.Inpainting.Alpha)
	}
	if _, err := priority.ParseMode(c.Inpainting.PriorityMode); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.Output.IntermediaryEvery < 1 {
		return errors.Wrapf(ErrInvalid, "output.intermediaryEvery must be at least 1, got %d", c.Output.IntermediaryEvery)
	}
	if c.Output.SaveIntermediary && c.Output.IntermediaryDir == "" {
		return errors.Wrap(ErrInvalid, "output.intermediaryDir is required when saving intermediary results")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrapf(ErrInvalid, "logging.level: %v", err)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
