package core

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"examhub/dispatch/core/domain/service"
)

// Failover outcomes, used as metric label values.
const (
	FailoverRerouted  = "rerouted"
	FailoverExhausted = "exhausted"
)

// FailoverGraph maps a service name to its ordered fallback candidates.
// The graph may contain cycles.
type FailoverGraph map[string][]string

// Validate checks that every service and candidate in the graph is registered.
func (g FailoverGraph) Validate(reg *ServiceRegistry) error {
	for name, candidates := range g {
		if _, ok := reg.Lookup(name); !ok {
			return fmt.Errorf("failover source %q is not registered", name)
		}
		for _, c := range candidates {
			if _, ok := reg.Lookup(c); !ok {
				return fmt.Errorf("failover target %q of %q is not registered", c, name)
			}
			if c == name {
				return fmt.Errorf("service %q lists itself as failover target", name)
			}
		}
	}
	return nil
}

// FailoverResolver swaps an unhealthy service for a healthy alternative.
// Resolution is one hop: a fallback's own fallbacks are never consulted, so
// cycles in the graph are harmless.
type FailoverResolver struct {
	registry *ServiceRegistry
	health   HealthReader
	graph    FailoverGraph
	reroutes *rate.Sometimes
	warnings *rate.Sometimes
}

// NewFailoverResolver creates a resolver. The graph is validated against reg.
func NewFailoverResolver(reg *ServiceRegistry, health HealthReader, graph FailoverGraph) (*FailoverResolver, error) {
	if err := graph.Validate(reg); err != nil {
		return nil, err
	}
	return &FailoverResolver{
		registry: reg,
		health:   health,
		graph:    graph,
		reroutes: &rate.Sometimes{First: 10, Interval: 30 * time.Second},
		warnings: &rate.Sometimes{First: 10, Interval: 30 * time.Second},
	}, nil
}

// Resolve returns svc when it is healthy, otherwise the first healthy
// fallback. If none is healthy it logs a warning and returns svc anyway.
func (f *FailoverResolver) Resolve(svc *service.Descriptor) *service.Descriptor {
	if f.health.IsHealthy(svc.Name) {
		return svc
	}

	for _, name := range f.graph[svc.Name] {
		candidate, ok := f.registry.Lookup(name)
		if !ok || !f.health.IsHealthy(name) {
			continue
		}
		f.reroutes.Do(func() {
			log.Printf("Service %s is unhealthy, failing over to %s", svc.Name, name)
		})
		MetricFailovers.WithLabelValues(svc.Name, FailoverRerouted).Inc()
		return candidate
	}

	f.warnings.Do(func() {
		log.Printf("Warning: service %s is unhealthy and no healthy fallback is available, routing to it anyway", svc.Name)
	})
	MetricFailovers.WithLabelValues(svc.Name, FailoverExhausted).Inc()
	return svc
}
