package source

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Kind discriminates the two descriptor shapes.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnector
	KindLegacy
)

func (k Kind) String() string {
	switch k {
	case KindConnector:
		return "connector"
	case KindLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// ConnectorSource references a registry connector and one of its operations.
type ConnectorSource struct {
	Connector string         `yaml:"connector" mapstructure:"connector"`
	Fetch     string         `yaml:"fetch" mapstructure:"fetch"`
	ID        string         `yaml:"id,omitempty" mapstructure:"id"`
	Name      string         `yaml:"name,omitempty" mapstructure:"name"`
	Args      map[string]any `yaml:"args,omitempty" mapstructure:"args"`
}

// ConnectionParams are the embedded transport parameters of a legacy source.
type ConnectionParams struct {
	Command string            `yaml:"command" mapstructure:"command"`
	Args    []string          `yaml:"args,omitempty" mapstructure:"args"`
	Env     map[string]string `yaml:"env,omitempty" mapstructure:"env"`
}

// LegacySource is self-contained: it bypasses the registry and carries its
// own transport parameters and tool name.
type LegacySource struct {
	ID         string           `yaml:"id" mapstructure:"id"`
	Name       string           `yaml:"name" mapstructure:"name"`
	Connection ConnectionParams `yaml:"connection" mapstructure:"connection"`
	Tool       string           `yaml:"tool" mapstructure:"tool"`
	Args       map[string]any   `yaml:"args,omitempty" mapstructure:"args"`
}

// Descriptor is the classified form of one raw source entry. Classification
// happens once at ingestion; the kind tag is carried through the pipeline.
// The resolved identity is computed here, before any transport work, so a
// failed fetch reports the same id/name a successful one would.
type Descriptor struct {
	Kind      Kind
	Connector *ConnectorSource
	Legacy    *LegacySource

	id   string
	name string
}

// SourceID returns the resolved source id, including the
// "<connector>-<fetch>" fallback for connector sources without an explicit id.
func (d Descriptor) SourceID() string {
	return d.id
}

// SourceName returns the resolved source name.
func (d Descriptor) SourceName() string {
	return d.name
}

// UnknownSourceFormatError reports a descriptor matching neither known shape.
type UnknownSourceFormatError struct {
	Keys []string
}

func (e *UnknownSourceFormatError) Error() string {
	if len(e.Keys) == 0 {
		return "Unknown source format"
	}
	return fmt.Sprintf("Unknown source format: fields %v", e.Keys)
}

// Classify discriminates a raw source entry into a Descriptor.
//
// The rule is structural: connector+fetch selects the connector shape,
// connection+tool selects the legacy shape. On an unrecognized shape the
// returned Descriptor still carries a best-effort identity so the caller can
// report the failure against a stable id.
func Classify(raw map[string]any) (Descriptor, error) {
	if hasString(raw, "connector") && hasString(raw, "fetch") {
		var cs ConnectorSource
		if err := decode(raw, &cs); err != nil {
			return fallbackDescriptor(raw), fmt.Errorf("invalid connector source: %w", err)
		}

		d := Descriptor{
			Kind:      KindConnector,
			Connector: &cs,
			id:        cs.ID,
			name:      cs.Name,
		}
		if d.id == "" {
			d.id = fmt.Sprintf("%s-%s", cs.Connector, cs.Fetch)
		}
		if d.name == "" {
			d.name = cs.Connector
		}
		return d, nil
	}

	if _, hasConnection := raw["connection"]; hasConnection && hasString(raw, "tool") {
		var ls LegacySource
		if err := decode(raw, &ls); err != nil {
			return fallbackDescriptor(raw), fmt.Errorf("invalid legacy source: %w", err)
		}

		d := Descriptor{
			Kind:   KindLegacy,
			Legacy: &ls,
			id:     ls.ID,
			name:   ls.Name,
		}
		if d.id == "" {
			d.id = ls.Tool
		}
		if d.name == "" {
			d.name = ls.Tool
		}
		return d, nil
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fallbackDescriptor(raw), &UnknownSourceFormatError{Keys: keys}
}

// ClassifyAll classifies each entry independently. The returned slice is
// index-aligned with the input; entries that failed classification carry
// their error so the aggregation engine can fail them per-source.
func ClassifyAll(raws []map[string]any) ([]Descriptor, []error) {
	descriptors := make([]Descriptor, len(raws))
	errs := make([]error, len(raws))
	for i, raw := range raws {
		descriptors[i], errs[i] = Classify(raw)
	}
	return descriptors, errs
}

func fallbackDescriptor(raw map[string]any) Descriptor {
	d := Descriptor{Kind: KindUnknown, id: "unknown", name: "unknown"}
	if id, ok := raw["id"].(string); ok && id != "" {
		d.id = id
	}
	if name, ok := raw["name"].(string); ok && name != "" {
		d.name = name
	} else if d.id != "unknown" {
		d.name = d.id
	}
	return d
}

func hasString(raw map[string]any, key string) bool {
	v, ok := raw[key].(string)
	return ok && v != ""
}

func decode(input map[string]any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(input)
}
