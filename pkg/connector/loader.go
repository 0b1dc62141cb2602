package connector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// definitionFile is the on-disk shape of a connector definition file: either
// a single definition or a `connectors:` list of them.
type definitionFile struct {
	Connectors []Definition `yaml:"connectors"`
}

// DirLoader reads connector definitions from every *.yaml / *.yml file in
// dir. Files are read in name order so duplicate-id errors are stable. The
// load is purely local: no network access happens here.
func DirLoader(dir string) LoaderFunc {
	return func(ctx context.Context) ([]Definition, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read connectors directory: %w", err)
		}

		var paths []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if ext == ".yaml" || ext == ".yml" {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
		sort.Strings(paths)

		var definitions []Definition
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			defs, err := readDefinitionFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load connector file %s: %w", path, err)
			}
			definitions = append(definitions, defs...)
		}

		return definitions, nil
	}
}

// StaticLoader serves a fixed definition set, mainly for tests and embedded
// defaults.
func StaticLoader(definitions []Definition) LoaderFunc {
	return func(ctx context.Context) ([]Definition, error) {
		return definitions, nil
	}
}

func readDefinitionFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Connectors) > 0 {
		return file.Connectors, nil
	}

	var single Definition
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if single.ID == "" {
		return nil, fmt.Errorf("no connector definitions found")
	}
	return []Definition{single}, nil
}
