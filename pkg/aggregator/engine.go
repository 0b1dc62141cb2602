package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oakmund/crier/pkg/connector"
	"github.com/oakmund/crier/pkg/source"
	"github.com/oakmund/crier/pkg/transport"
)

// LegacyCaller executes a single tool call over a scoped protocol session
// opened from explicit connection parameters, bypassing the registry.
type LegacyCaller interface {
	Call(ctx context.Context, command string, env map[string]string, args []string, tool string, toolArgs map[string]any) (any, error)
}

// Engine aggregates context from an ordered list of source descriptors.
//
// Every descriptor is fetched concurrently; the engine waits for all fetches
// to settle and never short-circuits on failure. One slow or failing source
// cannot prevent the others from completing. Output order is input order.
type Engine struct {
	registry *connector.Registry
	resolver *connector.Resolver
	selector *transport.Selector
	legacy   LegacyCaller
}

type Option func(*Engine)

// WithSelector overrides the transport executor selection.
func WithSelector(selector *transport.Selector) Option {
	return func(e *Engine) {
		e.selector = selector
	}
}

// WithLegacyCaller overrides the legacy transport path.
func WithLegacyCaller(caller LegacyCaller) Option {
	return func(e *Engine) {
		e.legacy = caller
	}
}

// WithResolver overrides the source resolver.
func WithResolver(resolver *connector.Resolver) Option {
	return func(e *Engine) {
		e.resolver = resolver
	}
}

func NewEngine(registry *connector.Registry, opts ...Option) *Engine {
	protocol := transport.NewProtocolExecutor()
	e := &Engine{
		registry: registry,
		resolver: connector.NewResolver(registry, nil),
		selector: transport.NewSelector(protocol, transport.NewDirectExecutor()),
		legacy:   protocol,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Gather classifies and fetches every raw source entry. The returned slice
// is index-aligned with the input: output[i] is the result of input[i]
// regardless of completion order. A failing entry carries its error as data
// in its own slot; only a registry load failure aborts the whole batch, since
// no source can be serviced without it.
func (e *Engine) Gather(ctx context.Context, raws []map[string]any) ([]source.ContextResult, error) {
	descriptors, classifyErrs := source.ClassifyAll(raws)
	return e.gather(ctx, descriptors, classifyErrs)
}

// GatherDescriptors is Gather for already-classified descriptors.
func (e *Engine) GatherDescriptors(ctx context.Context, descriptors []source.Descriptor) ([]source.ContextResult, error) {
	return e.gather(ctx, descriptors, make([]error, len(descriptors)))
}

func (e *Engine) gather(ctx context.Context, descriptors []source.Descriptor, classifyErrs []error) ([]source.ContextResult, error) {
	if err := e.registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load connector registry: %w", err)
	}

	results := make([]source.ContextResult, len(descriptors))
	if len(descriptors) == 0 {
		return results, nil
	}

	var wg sync.WaitGroup
	for i := range descriptors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.fetchOne(ctx, descriptors[i], classifyErrs[i])
		}(i)
	}
	wg.Wait()

	return results, nil
}

// fetchOne runs a single fetch to completion and converts any failure into
// the result's error field. The identity fields are taken from the original
// descriptor, so they are present even when resolution never got started.
func (e *Engine) fetchOne(ctx context.Context, d source.Descriptor, classifyErr error) source.ContextResult {
	result := source.ContextResult{
		SourceID:   d.SourceID(),
		SourceName: d.SourceName(),
	}

	start := time.Now()
	data, err := e.dispatch(ctx, d, classifyErr)
	observeFetch(d.Kind, time.Since(start), err)

	if err != nil {
		slog.Debug("Context fetch failed",
			"source_id", result.SourceID,
			"kind", d.Kind.String(),
			"error", err.Error(),
		)
		result.Error = err.Error()
		return result
	}

	result.Data = data
	return result
}

func (e *Engine) dispatch(ctx context.Context, d source.Descriptor, classifyErr error) (any, error) {
	if classifyErr != nil {
		return nil, classifyErr
	}

	switch d.Kind {
	case source.KindConnector:
		execCtx, err := e.resolver.Resolve(*d.Connector)
		if err != nil {
			return nil, err
		}
		executor, err := e.selector.For(execCtx.Connector.Transport)
		if err != nil {
			return nil, err
		}
		return executor.Execute(ctx, execCtx)

	case source.KindLegacy:
		legacy := d.Legacy
		return e.legacy.Call(ctx,
			legacy.Connection.Command,
			legacy.Connection.Env,
			legacy.Connection.Args,
			legacy.Tool,
			legacy.Args,
		)

	default:
		return nil, &source.UnknownSourceFormatError{}
	}
}
