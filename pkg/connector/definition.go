package connector

import (
	"fmt"
)

// TransportKind selects the executor strategy for a connector.
type TransportKind string

const (
	// TransportProtocol is the stateful request/response protocol transport:
	// a session is opened, one operation is called, the session is closed.
	TransportProtocol TransportKind = "protocol"

	// TransportDirect is a stateless single HTTP-style call.
	TransportDirect TransportKind = "direct"
)

// Definition describes one registry-resolvable integration: how to reach it
// and which credential binding it needs. Definitions are immutable after the
// registry load.
type Definition struct {
	ID          string        `yaml:"id" mapstructure:"id"`
	Description string        `yaml:"description,omitempty" mapstructure:"description"`
	Transport   TransportKind `yaml:"transport" mapstructure:"transport"`

	// Protocol transport: the server subprocess to spawn per session.
	Command string            `yaml:"command,omitempty" mapstructure:"command"`
	Args    []string          `yaml:"args,omitempty" mapstructure:"args"`
	Env     map[string]string `yaml:"env,omitempty" mapstructure:"env"`

	// Direct transport: the HTTP endpoint serving named operations.
	URL string `yaml:"url,omitempty" mapstructure:"url"`

	// CredentialRef names the environment variable holding this connector's
	// secret. Empty means the connector needs no credentials.
	CredentialRef string `yaml:"credentialRef,omitempty" mapstructure:"credentialRef"`
}

// Validate checks that the definition is internally consistent.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("connector id is required")
	}

	switch d.Transport {
	case TransportProtocol:
		if d.Command == "" {
			return fmt.Errorf("connector '%s': protocol transport requires a command", d.ID)
		}
	case TransportDirect:
		if d.URL == "" {
			return fmt.Errorf("connector '%s': direct transport requires a url", d.ID)
		}
	default:
		return fmt.Errorf("connector '%s': unknown transport '%s'", d.ID, d.Transport)
	}

	return nil
}

// ExecutionContext is the fully bound input of one fetch: the connector, the
// requested operation, the resolved credentials, and the call arguments. It
// is produced per fetch and owned solely by the executing fetch.
type ExecutionContext struct {
	Connector   Definition
	Operation   string
	Credentials map[string]string
	Args        map[string]any
}
