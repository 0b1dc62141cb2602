package pack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmund/crier/pkg/config"
)

const validOperatorYAML = `
id: sales-daily
name: Daily sales briefing
sources:
  - connector: hubspot
    fetch: get_deals
briefing:
  prompt: What changed since yesterday?
`

func validBundle() Bundle {
	return Bundle{
		Manifest: Manifest{
			SchemaVersion: 1,
			ID:            "sales-daily",
			Name:          "Daily Sales",
			Version:       "1.0.0",
		},
		OperatorYAML: validOperatorYAML,
	}
}

func TestValidate_ValidBundle(t *testing.T) {
	result := Validate(validBundle())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_SchemaVersionAndMissingSources(t *testing.T) {
	// One manifest violation plus one config violation: exactly two errors,
	// manifest first.
	bundle := Bundle{
		Manifest: Manifest{
			SchemaVersion: 2,
			ID:            "sales-daily",
			Name:          "Daily Sales",
			Version:       "1.0.0",
		},
		OperatorYAML: `
id: sales-daily
name: Daily sales briefing
briefing:
  prompt: p
`,
	}

	result := Validate(bundle)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "schemaVersion")
	assert.Contains(t, result.Errors[1], "at least one source")
}

func TestValidate_ManifestFieldViolations(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Manifest)
		fragment string
	}{
		{"bad id characters", func(m *Manifest) { m.ID = "Sales Daily!" }, "must match"},
		{"missing id", func(m *Manifest) { m.ID = "" }, "id is required"},
		{"missing name", func(m *Manifest) { m.Name = " " }, "name is required"},
		{"missing version", func(m *Manifest) { m.Version = "" }, "version is required"},
		{"bad version", func(m *Manifest) { m.Version = "v1.2" }, "not a valid semantic version"},
		{"non-string file entry", func(m *Manifest) { m.Files = map[string]any{"config": 42} }, "files.config"},
		{"tags not an array", func(m *Manifest) { m.Tags = "sales" }, "tags must be an array"},
		{"non-string tag", func(m *Manifest) { m.Tags = []any{"ok", 7} }, "tags[1]"},
		{"unstructured requirements", func(m *Manifest) { m.Requirements = []any{"x"} }, "requirements must be a structured object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := validBundle()
			tt.mutate(&bundle.Manifest)

			result := Validate(bundle)
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.fragment)
		})
	}
}

func TestValidate_SemverGrammar(t *testing.T) {
	valid := []string{"0.1.0", "1.2.3", "10.20.30", "1.0.0-alpha", "1.0.0-alpha.1", "2.0.0+build.5", "1.0.0-rc.1+build"}
	invalid := []string{"1", "1.2", "v1.2.3", "1.2.x", "1.2.3.4", "01a.2.3x"}

	for _, v := range valid {
		bundle := validBundle()
		bundle.Manifest.Version = v
		assert.Truef(t, Validate(bundle).Valid, "version %q should be valid", v)
	}
	for _, v := range invalid {
		bundle := validBundle()
		bundle.Manifest.Version = v
		assert.Falsef(t, Validate(bundle).Valid, "version %q should be invalid", v)
	}
}

func TestValidate_EmptyOperatorDocument(t *testing.T) {
	bundle := validBundle()
	bundle.OperatorYAML = "   "

	result := Validate(bundle)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "operator document is empty")
}

func TestValidate_AccumulatesAcrossManifestAndConfig(t *testing.T) {
	bundle := Bundle{
		Manifest:     Manifest{SchemaVersion: 3},
		OperatorYAML: "description: nothing useful\n",
	}

	result := Validate(bundle)
	assert.False(t, result.Valid)
	// 4 manifest violations (schemaVersion, id, name, version) then 4 config
	// violations (id, name, sources, work product), in that order.
	require.Len(t, result.Errors, 8)
	for _, e := range result.Errors[:4] {
		assert.Contains(t, e, "manifest:")
	}
	for _, e := range result.Errors[4:] {
		assert.Contains(t, e, "config:")
	}
}

func TestValidate_EmptyBriefingSectionValidViaDefaultPrompt(t *testing.T) {
	// A bare briefing section satisfies the work-product rule the same way the
	// runtime loader does: the default prompt is applied before validation.
	bundle := validBundle()
	bundle.OperatorYAML = `
id: sales-daily
name: Daily sales briefing
sources:
  - connector: hubspot
    fetch: get_deals
briefing: {}
`

	require.True(t, Validate(bundle).Valid)

	cfg, err := config.Parse([]byte(bundle.OperatorYAML))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBriefingPrompt, cfg.Briefing.Prompt)
}

func TestValidate_RoundTrip(t *testing.T) {
	// A bundle that passes Validate must have an operator document the
	// runtime loader accepts under the same grammar.
	bundle := validBundle()
	require.True(t, Validate(bundle).Valid)

	cfg, err := config.Parse([]byte(bundle.OperatorYAML))
	require.NoError(t, err)
	assert.Equal(t, "sales-daily", cfg.ID)
}
