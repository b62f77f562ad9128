package measures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefinitionFile is a discovered measure definition file
type DefinitionFile struct {
	FilePath string
	Content  []byte
}

// DiscoverPaths walks the configured paths and returns every YAML definition
// file found. Missing directories are skipped, not errors, so optional paths
// can stay in the default configuration.
func DiscoverPaths(paths []string) ([]DefinitionFile, error) {
	var files []DefinitionFile

	for _, path := range paths {
		discovered, err := discoverInPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to discover measure definitions in %s: %w", path, err)
		}
		files = append(files, discovered...)
	}

	return files, nil
}

func discoverInPath(basePath string) ([]DefinitionFile, error) {
	var files []DefinitionFile

	err := filepath.Walk(basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		content, readErr := os.ReadFile(path) //nolint:gosec // Paths come from configuration
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", path, readErr)
		}

		files = append(files, DefinitionFile{FilePath: path, Content: content})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
