package dataset

import (
	"errors"
	"time"
)

var (
	// ErrCacheURLRequired is returned when caching is enabled without a Redis URL
	ErrCacheURLRequired = errors.New("cache URL is required when caching is enabled")
)

// Config describes the dataset collaborator
type Config struct {
	// Fixtures is a path to a YAML file of in-memory datasets (CLI and tests)
	Fixtures string `yaml:"fixtures,omitempty"`

	Fields FieldConfig `yaml:"fields"`
	Cache  CacheConfig `yaml:"cache"`
}

// FieldConfig names the well-known columns used to scope fetches
type FieldConfig struct {
	Entity    string `yaml:"entity" default:"entityId"`
	Dimension string `yaml:"dimension" default:"dimensionId"`
	Date      string `yaml:"date" default:"date"`
}

// CacheConfig configures the Redis record cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" default:"false"`
	URL     string        `yaml:"url,omitempty"`
	TTL     time.Duration `yaml:"ttl" default:"5m"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Cache.Enabled && c.Cache.URL == "" {
		return ErrCacheURLRequired
	}

	return nil
}
