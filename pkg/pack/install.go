package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Install persists a validated bundle into the local packs directory under
// its manifest id. Invalid bundles are refused outright: validation failure
// is terminal for a bundle, never partial-use.
func Install(bundle Bundle, packsDir string) (string, error) {
	result := Validate(bundle)
	if !result.Valid {
		return "", fmt.Errorf("refusing to install invalid pack: %s", strings.Join(result.Errors, "; "))
	}

	dir := filepath.Join(packsDir, bundle.Manifest.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create pack directory: %w", err)
	}

	manifestData, err := yaml.Marshal(bundle.Manifest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), manifestData, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	operatorPath := filepath.Join(dir, bundle.Manifest.FilePath("config", defaultOperatorFile))
	if err := os.WriteFile(operatorPath, []byte(bundle.OperatorYAML), 0644); err != nil {
		return "", fmt.Errorf("failed to write operator document: %w", err)
	}

	if bundle.Readme != "" {
		path := filepath.Join(dir, bundle.Manifest.FilePath("readme", defaultReadmeFile))
		if err := os.WriteFile(path, []byte(bundle.Readme), 0644); err != nil {
			return "", fmt.Errorf("failed to write readme: %w", err)
		}
	}
	if bundle.FixtureContext != "" {
		path := filepath.Join(dir, bundle.Manifest.FilePath("fixture", defaultFixtureFile))
		if err := os.WriteFile(path, []byte(bundle.FixtureContext), 0644); err != nil {
			return "", fmt.Errorf("failed to write fixture: %w", err)
		}
	}

	return dir, nil
}
