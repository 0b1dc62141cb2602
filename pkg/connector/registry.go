package connector

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/oakmund/crier/pkg/registry"
)

// LoaderFunc produces the full set of connector definitions. It is invoked
// at most once per Registry regardless of how many callers race on Load.
type LoaderFunc func(ctx context.Context) ([]Definition, error)

// Registry is the process-wide cache of connector definitions. It is
// populated once on first Load and read-only afterwards.
type Registry struct {
	loader LoaderFunc
	items  *registry.BaseRegistry[Definition]
	sf     singleflight.Group
	loaded atomic.Bool
}

// NewRegistry creates an unloaded registry backed by the given loader.
func NewRegistry(loader LoaderFunc) *Registry {
	return &Registry{
		loader: loader,
		items:  registry.NewBaseRegistry[Definition](),
	}
}

// Load populates the registry. The first caller performs the physical load;
// concurrent callers join the same in-flight load instead of re-reading, and
// later calls are no-ops. A failed load is not cached: the next call retries.
// Only the flight goroutine mutates the item set, including cleanup of a
// partial load, so a failed flight can never unwind a later successful one.
func (r *Registry) Load(ctx context.Context) error {
	if r.loaded.Load() {
		return nil
	}

	_, err, _ := r.sf.Do("load", func() (any, error) {
		if r.loaded.Load() {
			return nil, nil
		}

		definitions, err := r.loader(ctx)
		if err != nil {
			return nil, err
		}

		for _, def := range definitions {
			if err := def.Validate(); err != nil {
				r.items.Clear()
				return nil, err
			}
			if err := r.items.Register(def.ID, def); err != nil {
				r.items.Clear()
				return nil, err
			}
		}

		r.loaded.Store(true)
		slog.Debug("Connector registry loaded", "connectors", r.items.Count())
		return nil, nil
	})
	return err
}

// Get returns the definition for id, or NotFoundError.
func (r *Registry) Get(id string) (Definition, error) {
	def, ok := r.items.Get(id)
	if !ok {
		return Definition{}, &NotFoundError{ID: id}
	}
	return def, nil
}

// IDs returns the loaded connector ids in sorted order.
func (r *Registry) IDs() []string {
	return r.items.Keys()
}

// Count returns the number of loaded definitions.
func (r *Registry) Count() int {
	return r.items.Count()
}
