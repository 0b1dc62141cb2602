package pack

// SchemaVersion is the only manifest schema this build understands.
const SchemaVersion = 1

// Manifest describes a pack bundle. Field types on the loosely validated
// fields (Files, Tags, Requirements) stay untyped so a malformed manifest
// decodes far enough for the validator to report every violation at once.
type Manifest struct {
	SchemaVersion int    `yaml:"schemaVersion" mapstructure:"schemaVersion"`
	ID            string `yaml:"id" mapstructure:"id"`
	Name          string `yaml:"name" mapstructure:"name"`
	Version       string `yaml:"version" mapstructure:"version"`
	Description   string `yaml:"description,omitempty" mapstructure:"description"`

	Files        map[string]any `yaml:"files,omitempty" mapstructure:"files"`
	Tags         any            `yaml:"tags,omitempty" mapstructure:"tags"`
	Requirements any            `yaml:"requirements,omitempty" mapstructure:"requirements"`
	Policy       map[string]any `yaml:"policy,omitempty" mapstructure:"policy"`
}

// Bundle is a pack as loaded from disk or the network: the manifest plus the
// operator configuration document and optional extras. Bundles are validated
// as a whole before any use; a bundle that fails validation is never
// partially used.
type Bundle struct {
	Manifest       Manifest
	OperatorYAML   string
	Readme         string
	FixtureContext string
}

// FilePath returns the string value of a files entry, or the fallback when
// the entry is absent or not a string.
func (m Manifest) FilePath(key, fallback string) string {
	if m.Files == nil {
		return fallback
	}
	if v, ok := m.Files[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
