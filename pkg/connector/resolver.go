package connector

import (
	"github.com/oakmund/crier/pkg/source"
)

// Resolver turns a connector-reference descriptor into a fully bound
// execution context: connector definition, operation, and credentials.
type Resolver struct {
	registry    *Registry
	credentials CredentialResolver
}

func NewResolver(registry *Registry, credentials CredentialResolver) *Resolver {
	if credentials == nil {
		credentials = EnvCredentialResolver{}
	}
	return &Resolver{
		registry:    registry,
		credentials: credentials,
	}
}

// Resolve looks up the referenced connector and binds credentials and call
// arguments. The registry must already be loaded; a missing connector id
// surfaces as NotFoundError.
func (r *Resolver) Resolve(ref source.ConnectorSource) (ExecutionContext, error) {
	def, err := r.registry.Get(ref.Connector)
	if err != nil {
		return ExecutionContext{}, err
	}

	return ExecutionContext{
		Connector:   def,
		Operation:   ref.Fetch,
		Credentials: r.credentials.Resolve(def),
		Args:        ref.Args,
	}, nil
}
