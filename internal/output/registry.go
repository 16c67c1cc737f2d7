package output

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/badno/catimport/pkg/models"
)

// Registry manages available output adapters
type Registry struct {
	adapters map[string]Adapter
	mu       sync.RWMutex
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter to the registry
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter already registered: %s", name)
	}

	r.adapters[name] = adapter
	return nil
}

// Get retrieves an adapter by name
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[name]
	if !exists {
		return nil, fmt.Errorf("adapter not found: %s", name)
	}

	return adapter, nil
}

// List returns all registered adapters sorted by name
func (r *Registry) List() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapters := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	sort.Slice(adapters, func(i, j int) bool {
		return adapters[i].Name() < adapters[j].Name()
	})
	return adapters
}

// ForFormat returns the first adapter, by name, that writes format
func (r *Registry) ForFormat(format Format) (Adapter, error) {
	for _, a := range r.List() {
		if a.SupportsFormat(format) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no adapter for format: %s", format)
}

// Export writes records with the adapter for opts.Format
func (r *Registry) Export(ctx context.Context, records []models.ImportRecord, opts ExportOptions) (*ExportResult, error) {
	adapter, err := r.ForFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	return adapter.ExportRecords(ctx, records, opts)
}

// CloseAll closes all registered adapters
func (r *Registry) CloseAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lastErr error
	for name, adapter := range r.adapters {
		if err := adapter.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close %s: %w", name, err)
		}
	}
	return lastErr
}

// TestAll tests all registered adapters
func (r *Registry) TestAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error)
	for name, adapter := range r.adapters {
		results[name] = adapter.Test(ctx)
	}
	return results
}
