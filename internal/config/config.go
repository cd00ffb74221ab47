// Package config provides configuration loading for the catalog aggregator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the environment variable prefix for application settings.
const EnvPrefix = "DE_CATALOG"

const (
	// DefaultOutputPath is where the consolidated catalog is written
	DefaultOutputPath = "catalog/list.json"

	// DefaultControllerPath is the manual override file merged over the catalog
	DefaultControllerPath = "controller.json"

	// DefaultSourcesFile lists the configured source URLs
	DefaultSourcesFile = "predefined_url.json"

	// DefaultLegacyURL is the fixed legacy design-store endpoint, always
	// included regardless of the sources file. Scheduled for removal when the
	// design store is phased out.
	DefaultLegacyURL = "https://bsas.intel.com/api/design_examples/latest/"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path     string
	required bool
}

// WithConfigPath loads configuration from a YAML file. The file is optional:
// loading proceeds with defaults when it does not exist.
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}
		cfg.path = filepath.Clean(path)
		return nil
	}
}

// WithRequiredConfigPath loads configuration from a YAML file and fails when
// the file is missing. Used when the operator passed an explicit --config.
func WithRequiredConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if err := WithConfigPath(path)(cfg); err != nil {
			return err
		}
		cfg.required = true
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Output is the path the consolidated catalog is written to
	Output string `yaml:"output,omitempty"`

	// Controller is the path of the manual override file. Its top-level keys
	// replace same-named catalog keys on write.
	Controller string `yaml:"controller,omitempty"`

	// SourcesFile is the path of the JSON document listing source URLs
	SourcesFile string `yaml:"sourcesFile,omitempty"`

	// LegacyURL is the fixed endpoint prepended to the configured sources
	LegacyURL string `yaml:"legacyUrl,omitempty"`

	// HTTP holds transport settings shared by all fetch paths
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines transport settings
type HTTPConfig struct {
	// Timeout is the per-request timeout as a duration string (e.g. "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// UserAgent overrides the default request user agent
	UserAgent string `yaml:"userAgent,omitempty"`
}

// Default returns a configuration populated with the fixed relative paths
// the tool uses when no config file is present.
func Default() *Config {
	return &Config{
		Output:      DefaultOutputPath,
		Controller:  DefaultControllerPath,
		SourcesFile: DefaultSourcesFile,
		LegacyURL:   DefaultLegacyURL,
	}
}

// LoadConfig loads and parses configuration from a YAML file, applying
// defaults for every unset field.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	config := Default()

	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			if os.IsNotExist(err) && !loaderCfg.required {
				return config, nil
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyDefaults fills fields an explicit config file left empty.
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.Output == "" {
		c.Output = defaults.Output
	}
	if c.Controller == "" {
		c.Controller = defaults.Controller
	}
	if c.SourcesFile == "" {
		c.SourcesFile = defaults.SourcesFile
	}
	if c.LegacyURL == "" {
		c.LegacyURL = defaults.LegacyURL
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Output == "" {
		return fmt.Errorf("output path is required")
	}

	if c.HTTP.Timeout != "" {
		if _, err := time.ParseDuration(c.HTTP.Timeout); err != nil {
			return fmt.Errorf("http.timeout must be a valid duration (e.g. '10s', '1m'): %w", err)
		}
	}

	return nil
}

// HTTPTimeout returns the parsed request timeout, or zero when unset so the
// client falls back to its default.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTP.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 0
	}
	return d
}
