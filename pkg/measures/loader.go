package measures

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// definitionDoc is the YAML shape of a definition file: either a list of
// measures under a `measures:` key or a single measure document.
type definitionDoc struct {
	Measures []Measure `yaml:"measures"`
}

// Load discovers, parses and registers every measure definition under the
// configured paths, then finalizes the registry (cross-reference and cycle
// validation). Any configuration error is fatal and blocks evaluation.
func Load(cfg *Config, logger logrus.FieldLogger) (*Registry, error) {
	cfg.SetDefaults()
	log := logger.WithField("component", "measures-loader")

	files, err := DiscoverPaths(cfg.Paths)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()

	for _, file := range files {
		parsed, parseErr := ParseDefinitions(file.Content)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file.FilePath, parseErr)
		}

		for i := range parsed {
			if regErr := registry.Register(&parsed[i]); regErr != nil {
				return nil, fmt.Errorf("failed to register measure from %s: %w", file.FilePath, regErr)
			}
		}

		log.WithField("file", file.FilePath).
			WithField("measures", len(parsed)).
			Debug("Loaded measure definitions")
	}

	if err := registry.Finalize(); err != nil {
		return nil, err
	}

	log.WithField("total", registry.Len()).Info("Measure registry loaded")

	return registry, nil
}

// ParseDefinitions parses one definition file's content
func ParseDefinitions(content []byte) ([]Measure, error) {
	var doc definitionDoc
	if err := yaml.Unmarshal(content, &doc); err == nil && len(doc.Measures) > 0 {
		return doc.Measures, nil
	}

	var single Measure
	if err := yaml.Unmarshal(content, &single); err != nil {
		return nil, err
	}
	if single.Key == "" {
		return nil, ErrKeyRequired
	}

	return []Measure{single}, nil
}
