package cmd

import (
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/chainsight/measures/pkg/api"
	"github.com/chainsight/measures/pkg/dataset"
	"github.com/chainsight/measures/pkg/measures"
)

// Config is the top-level service configuration shared by the CLI commands
type Config struct {
	// Logging level for the service commands
	Logging string `yaml:"logging" default:"info" validate:"oneof=panic fatal error warn info debug trace"`

	// Measures configures definition discovery
	Measures measures.Config `yaml:"measures"`

	// Datasets configures the dataset client and record cache
	Datasets dataset.Config `yaml:"datasets"`

	// API configures the diagnostic HTTP API
	API api.Config `yaml:"api"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics"`

	// Reload configures scheduled definition reloads
	Reload ReloadConfig `yaml:"reload"`
}

// MetricsConfig configures the Prometheus metrics endpoint and the optional
// pprof server
type MetricsConfig struct {
	Enabled   bool    `yaml:"enabled" default:"true"`
	Addr      string  `yaml:"addr" default:":9090" validate:"hostname_port"`
	PProfAddr *string `yaml:"pprofAddr,omitempty"`
}

// ReloadConfig configures scheduled reloading of measure definitions.
// Schedule is a cron expression; empty disables reloading.
type ReloadConfig struct {
	Schedule string `yaml:"schedule,omitempty"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Measures.Validate(); err != nil {
		return err
	}
	if err := c.Datasets.Validate(); err != nil {
		return err
	}

	return c.API.Validate()
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults, so the CLI works out of the box against ./measures.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	config := &Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, config.Validate()
		}
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, config.Validate()
}
