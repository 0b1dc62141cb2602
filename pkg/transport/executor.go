package transport

import (
	"context"
	"fmt"

	"github.com/oakmund/crier/pkg/connector"
)

// Executor turns a resolved execution context into data. Implementations do
// not retry or interpret failures beyond their own transport mechanics; the
// caller converts errors into per-source results.
type Executor interface {
	Execute(ctx context.Context, execCtx connector.ExecutionContext) (any, error)
}

// Selector picks the executor matching a connector's transport kind.
type Selector struct {
	protocol Executor
	direct   Executor
}

func NewSelector(protocol, direct Executor) *Selector {
	return &Selector{
		protocol: protocol,
		direct:   direct,
	}
}

// DefaultSelector wires the stock protocol and direct executors.
func DefaultSelector() *Selector {
	return NewSelector(NewProtocolExecutor(), NewDirectExecutor())
}

// For returns the executor for kind, or an error for unknown kinds.
func (s *Selector) For(kind connector.TransportKind) (Executor, error) {
	switch kind {
	case connector.TransportProtocol:
		return s.protocol, nil
	case connector.TransportDirect:
		return s.direct, nil
	default:
		return nil, fmt.Errorf("no executor for transport '%s'", kind)
	}
}
