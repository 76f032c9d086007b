package core

import (
	"errors"
	"fmt"
	"log"

	"examhub/dispatch/core/domain/service"
)

// registryEntry pairs a descriptor with its precompiled patterns.
type registryEntry struct {
	descriptor *service.Descriptor
	patterns   []*CompiledPattern
}

// ServiceRegistry is the static table of backend services.
// It is built once at startup and never mutated afterwards, so it can be
// read concurrently without locking. Iteration order is registration order,
// which the matcher relies on to break ties deterministically.
type ServiceRegistry struct {
	entries []registryEntry
	byName  map[string]int // Key: service name, value: index into entries
}

// NewServiceRegistry builds a registry from descriptors in the given order.
// It fails fast on duplicate or empty names, missing base addresses, and
// patterns that do not compile.
func NewServiceRegistry(descriptors []*service.Descriptor) (*ServiceRegistry, error) {
	r := &ServiceRegistry{
		entries: make([]registryEntry, 0, len(descriptors)),
		byName:  make(map[string]int, len(descriptors)),
	}

	for _, d := range descriptors {
		if d == nil {
			return nil, errors.New("nil service descriptor")
		}
		if d.Name == "" {
			return nil, errors.New("service descriptor has empty name")
		}
		if d.BaseAddress == "" {
			return nil, fmt.Errorf("service %q has empty base address", d.Name)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("service %q registered more than once", d.Name)
		}

		compiled := make([]*CompiledPattern, 0, len(d.PathPatterns))
		for _, raw := range d.PathPatterns {
			p, err := CompilePattern(raw)
			if err != nil {
				return nil, fmt.Errorf("service %q: %w", d.Name, err)
			}
			compiled = append(compiled, p)
		}

		r.byName[d.Name] = len(r.entries)
		r.entries = append(r.entries, registryEntry{descriptor: d, patterns: compiled})
	}

	log.Printf("Service registry built with %d services", len(r.entries))
	return r, nil
}

// Lookup returns the descriptor registered under name.
func (r *ServiceRegistry) Lookup(name string) (*service.Descriptor, bool) {
	idx, exists := r.byName[name]
	if !exists {
		return nil, false
	}
	return r.entries[idx].descriptor, true
}

// All returns every descriptor in registration order.
func (r *ServiceRegistry) All() []*service.Descriptor {
	services := make([]*service.Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		services = append(services, e.descriptor)
	}
	return services
}

// Len returns the number of registered services.
func (r *ServiceRegistry) Len() int {
	return len(r.entries)
}
