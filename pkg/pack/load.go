package pack

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	manifestFileName = "manifest.yaml"

	defaultOperatorFile = "briefing.yaml"
	defaultReadmeFile   = "README.md"
	defaultFixtureFile  = "fixture.json"
)

// LoadDir builds a Bundle from a pack directory: a manifest file plus the
// operator document it references, plus optional readme and fixture files.
// Loading performs no validation beyond the manifest parsing itself; callers
// validate the returned bundle before trusting it.
func LoadDir(dir string) (Bundle, error) {
	manifestPath := filepath.Join(dir, manifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		alt := filepath.Join(dir, "manifest.yml")
		if altData, altErr := os.ReadFile(alt); altErr == nil {
			data = altData
		} else {
			return Bundle{}, fmt.Errorf("failed to read pack manifest: %w", err)
		}
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Bundle{}, fmt.Errorf("failed to parse pack manifest: %w", err)
	}

	bundle := Bundle{Manifest: manifest}

	operatorPath := filepath.Join(dir, manifest.FilePath("config", defaultOperatorFile))
	operator, err := os.ReadFile(operatorPath)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read operator document: %w", err)
	}
	bundle.OperatorYAML = string(operator)

	if readme, err := os.ReadFile(filepath.Join(dir, manifest.FilePath("readme", defaultReadmeFile))); err == nil {
		bundle.Readme = string(readme)
	}
	if fixture, err := os.ReadFile(filepath.Join(dir, manifest.FilePath("fixture", defaultFixtureFile))); err == nil {
		bundle.FixtureContext = string(fixture)
	}

	return bundle, nil
}
