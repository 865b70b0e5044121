package pump

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/de-tools/data-pump/pkg/models/domain"
)

// Factory instantiates a pump. It may open connections, so it receives a context.
type Factory func(ctx context.Context) (DataPump, error)

// Definition pairs a pump type's static schema with the factory that instantiates it.
type Definition struct {
	Description string
	Schema      *Schema
	Factory     Factory
}

// Registry resolves pump type names, as stored in report configs, to definitions.
type Registry interface {
	// Register adds a new pump type
	Register(name string, def Definition) error
	// Lookup returns the definition without instantiating the pump
	Lookup(name string) (Definition, error)
	// Create instantiates a pump of the named type
	Create(ctx context.Context, name string) (DataPump, error)
	// List returns the registered pump type names, sorted
	List() []string
}

type registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

func NewRegistry() Registry {
	return &registry{
		definitions: make(map[string]Definition),
	}
}

func (r *registry) Register(name string, def Definition) error {
	if name == "" {
		return fmt.Errorf("pump name cannot be empty")
	}
	if def.Schema == nil {
		return fmt.Errorf("pump %q: schema cannot be nil", name)
	}
	if def.Factory == nil {
		return fmt.Errorf("pump %q: factory cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[name]; exists {
		return fmt.Errorf("pump %q is already registered", name)
	}

	r.definitions[name] = def
	return nil
}

func (r *registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	def, exists := r.definitions[name]
	r.mu.RUnlock()

	if !exists {
		return Definition{}, fmt.Errorf("%w: %q", domain.ErrUnknownPumpType, name)
	}
	return def, nil
}

func (r *registry) Create(ctx context.Context, name string) (DataPump, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	p, err := def.Factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create pump %q: %w", name, err)
	}
	if p == nil || p.Schema() == nil {
		return nil, fmt.Errorf("pump %q factory returned no schema", name)
	}
	return p, nil
}

func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
