package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifestYAML = `
schemaVersion: 1
id: sales-daily
name: Daily Sales
version: 1.0.0
tags: [sales, crm]
files:
  config: briefing.yaml
  readme: README.md
`

func writePackDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(testManifestYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "briefing.yaml"), []byte(validOperatorYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Sales pack\n"), 0644))
	return dir
}

func TestLoadDir(t *testing.T) {
	bundle, err := LoadDir(writePackDir(t))
	require.NoError(t, err)

	assert.Equal(t, "sales-daily", bundle.Manifest.ID)
	assert.Equal(t, 1, bundle.Manifest.SchemaVersion)
	assert.Contains(t, bundle.OperatorYAML, "connector: hubspot")
	assert.Contains(t, bundle.Readme, "Sales pack")
	assert.Empty(t, bundle.FixtureContext)

	result := Validate(bundle)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestLoadDir_MissingManifest(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest")
}

func TestLoadDir_MissingOperatorDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(testManifestYAML), 0644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator document")
}

func TestInstall_RoundTrip(t *testing.T) {
	packsDir := t.TempDir()

	bundle := validBundle()
	bundle.Readme = "# Sales pack\n"

	installed, err := Install(bundle, packsDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(packsDir, "sales-daily"), installed)

	reloaded, err := LoadDir(installed)
	require.NoError(t, err)
	assert.Equal(t, bundle.Manifest.ID, reloaded.Manifest.ID)
	assert.Equal(t, bundle.OperatorYAML, reloaded.OperatorYAML)
	assert.Equal(t, bundle.Readme, reloaded.Readme)
	assert.True(t, Validate(reloaded).Valid)
}

func TestInstall_RefusesInvalidBundle(t *testing.T) {
	bundle := validBundle()
	bundle.Manifest.SchemaVersion = 2

	_, err := Install(bundle, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to install invalid pack")
}
