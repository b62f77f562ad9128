package measures

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores measure definitions. Measures are registered once at
// startup and read many times; after Finalize the registry is effectively
// immutable and safe for concurrent reads from simultaneous batch calls.
type Registry struct {
	mu       sync.RWMutex
	measures map[string]*Measure
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		measures: make(map[string]*Measure),
	}
}

// Register validates and stores a measure. Forward references to measures
// registered later are allowed; Finalize checks the full cross-reference set.
func (r *Registry) Register(m *Measure) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.measures[m.Key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMeasure, m.Key)
	}

	r.measures[m.Key] = m

	return nil
}

// Get returns the measure for a key
func (r *Registry) Get(key string) (*Measure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.measures[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMeasureNotFound, key)
	}

	return m, nil
}

// GetAll returns every registered measure, sorted by key
func (r *Registry) GetAll() []*Measure {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Measure, 0, len(r.measures))
	for _, m := range r.measures {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Key < all[j].Key })

	return all
}

// Keys returns every registered key, sorted
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.measures))
	for key := range r.measures {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Len returns the number of registered measures
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.measures)
}

// Finalize verifies that every measure-typed reference, including those
// inside conditional branches, resolves to a registered measure, and that the
// full graph is acyclic. Call it once after all registrations.
func (r *Registry) Finalize() error {
	r.mu.RLock()
	for key, m := range r.measures {
		for _, dep := range m.Dependencies() {
			if _, ok := r.measures[dep]; !ok {
				r.mu.RUnlock()
				return fmt.Errorf("%w: %s references %s", ErrUnknownDependency, key, dep)
			}
		}
	}
	r.mu.RUnlock()

	// Cycle check over the whole registry
	_, err := r.BuildDependencyGraph(r.Keys())

	return err
}
