package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry routes input URIs to loaders by scheme
type Registry struct {
	loaders map[string]Loader
	schemes map[string]Loader
	mu      sync.RWMutex
}

// NewRegistry creates a new loader registry
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
		schemes: make(map[string]Loader),
	}
}

// Register adds a loader to the registry
func (r *Registry) Register(loader Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := loader.Name()
	if _, exists := r.loaders[name]; exists {
		return fmt.Errorf("loader already registered: %s", name)
	}
	for _, scheme := range loader.Schemes() {
		if other, taken := r.schemes[scheme]; taken {
			return fmt.Errorf("scheme %s already handled by %s", scheme, other.Name())
		}
	}

	r.loaders[name] = loader
	for _, scheme := range loader.Schemes() {
		r.schemes[scheme] = loader
	}
	return nil
}

// Get retrieves a loader by name
func (r *Registry) Get(name string) (Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loader, exists := r.loaders[name]
	if !exists {
		return nil, fmt.Errorf("loader not found: %s", name)
	}

	return loader, nil
}

// List returns all registered loaders sorted by name
func (r *Registry) List() []Loader {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loaders := make([]Loader, 0, len(r.loaders))
	for _, l := range r.loaders {
		loaders = append(loaders, l)
	}
	sort.Slice(loaders, func(i, j int) bool {
		return loaders[i].Name() < loaders[j].Name()
	})
	return loaders
}

// Resolve returns the loader responsible for uri
func (r *Registry) Resolve(uri string) (Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scheme := SchemeOf(uri)
	loader, ok := r.schemes[scheme]
	if !ok {
		return nil, fmt.Errorf("no loader for scheme %q", scheme)
	}
	return loader, nil
}

// Load fetches uri through the matching loader
func (r *Registry) Load(ctx context.Context, uri string) (*Input, error) {
	loader, err := r.Resolve(uri)
	if err != nil {
		return nil, err
	}

	in, err := loader.Load(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", uri, err)
	}
	return in, nil
}

// CloseAll closes all registered loaders
func (r *Registry) CloseAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lastErr error
	for name, loader := range r.loaders {
		if err := loader.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close %s: %w", name, err)
		}
	}
	return lastErr
}
