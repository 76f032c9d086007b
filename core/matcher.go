package core

import (
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"examhub/dispatch/core/domain/service"
)

// MatchResult is the outcome of matching a canonical path.
type MatchResult struct {
	Service  *service.Descriptor
	Strategy string // StrategyPattern, StrategyHeuristic or StrategyDefault
	Pattern  string // winning pattern, empty unless Strategy is StrategyPattern
	Priority int
}

// PathMatcher selects the service that owns a logical path.
// It never fails: when no pattern matches it falls back to the heuristic
// table and finally to the default service.
type PathMatcher struct {
	registry       *ServiceRegistry
	fallback       FallbackTable
	defaultService *service.Descriptor
	warnings       *rate.Sometimes
}

// NewPathMatcher creates a matcher over reg. defaultName must be a
// registered service; when empty the first registered service is used.
func NewPathMatcher(reg *ServiceRegistry, fallback FallbackTable, defaultName string) (*PathMatcher, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, errors.New("path matcher needs at least one registered service")
	}

	var def *service.Descriptor
	if defaultName == "" {
		def = reg.All()[0]
	} else {
		svc, ok := reg.Lookup(defaultName)
		if !ok {
			return nil, fmt.Errorf("default service %q is not registered", defaultName)
		}
		def = svc
	}

	return &PathMatcher{
		registry:       reg,
		fallback:       fallback,
		defaultService: def,
		warnings:       &rate.Sometimes{First: 10, Interval: 30 * time.Second},
	}, nil
}

// DefaultService returns the service used when nothing else matches.
func (m *PathMatcher) DefaultService() *service.Descriptor {
	return m.defaultService
}

// Match returns the best service for path. Candidates are ranked by
// priority, then match length; ties keep the first-registered candidate.
func (m *PathMatcher) Match(path string) MatchResult {
	var best MatchResult
	bestLength := -1

	for _, entry := range m.registry.entries {
		for _, p := range entry.patterns {
			priority, length, ok := p.Match(path)
			if !ok {
				continue
			}
			if priority > best.Priority || (priority == best.Priority && length > bestLength) {
				best = MatchResult{
					Service:  entry.descriptor,
					Strategy: StrategyPattern,
					Pattern:  p.Raw,
					Priority: priority,
				}
				bestLength = length
			}
		}
	}

	if best.Service != nil {
		MetricRouteDecisions.WithLabelValues(best.Service.Name, StrategyPattern).Inc()
		return best
	}

	known := func(name string) bool {
		_, ok := m.registry.Lookup(name)
		return ok
	}
	if name, ok := m.fallback.Guess(path, known); ok {
		svc, _ := m.registry.Lookup(name)
		m.warnings.Do(func() {
			log.Printf("Warning: no pattern matches %s, guessed service %s", path, name)
		})
		MetricRouteDecisions.WithLabelValues(name, StrategyHeuristic).Inc()
		return MatchResult{Service: svc, Strategy: StrategyHeuristic}
	}

	m.warnings.Do(func() {
		log.Printf("Warning: no service matches %s, using default service %s", path, m.defaultService.Name)
	})
	MetricRouteDecisions.WithLabelValues(m.defaultService.Name, StrategyDefault).Inc()
	return MatchResult{Service: m.defaultService, Strategy: StrategyDefault}
}
