package eip712

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Field is a single (type, name) pair of a schema.
type Field struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// Schema is a named struct type. Field order is significant.
type Schema struct {
	Name   string
	Fields []Field
}

// Registry maps schema names to schemas.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Define registers a schema under name.
func (r *Registry) Define(name string, fields ...Field) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot define %s", ErrRegistrySealed, name)
	}
	if _, ok := r.schemas[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSchema, name)
	}

	r.schemas[name] = Schema{Name: name, Fields: slices.Clone(fields)}
	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	return s, ok
}

// Has reports whether name is a registered schema.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns all registered schema names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sealed reports whether the registry no longer accepts definitions.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func (r *Registry) seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}
