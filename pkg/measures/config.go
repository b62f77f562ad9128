package measures

// Config defines where measure definitions are loaded from
type Config struct {
	// Paths are directories or files scanned for measure definition YAML
	Paths []string `yaml:"paths"`

	// Tags optionally restricts which measures the host exposes
	Tags *TagSelection `yaml:"tags,omitempty"`
}

// Validate validates and sets defaults for the configuration
func (c *Config) Validate() error {
	c.SetDefaults()

	return nil
}

// SetDefaults sets the default definition paths
func (c *Config) SetDefaults() {
	if len(c.Paths) == 0 {
		c.Paths = []string{"measures"}
	}
}
