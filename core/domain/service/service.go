// Package service defines the domain model for backend services known to the router.
package service

import (
	"strings"
)

// Descriptor describes one backend service: where it lives and which
// logical API paths it owns. Descriptors are immutable once handed to the
// registry; callers hold pointers but never mutate them.
type Descriptor struct {
	Name            string   `json:"name"`
	BaseAddress     string   `json:"base_address"`
	PathPatterns    []string `json:"path_patterns"`
	Description     string   `json:"description,omitempty"`
	HealthCheckPath string   `json:"health_check_path,omitempty"`
}

// NewDescriptor creates a descriptor with a copy of the given patterns.
// A trailing slash on the base address is dropped so that joining it with a
// logical path never yields a double slash.
func NewDescriptor(name, baseAddress string, patterns []string, healthCheckPath string) *Descriptor {
	p := make([]string, len(patterns))
	copy(p, patterns)

	return &Descriptor{
		Name:            name,
		BaseAddress:     strings.TrimSuffix(baseAddress, "/"),
		PathPatterns:    p,
		HealthCheckPath: healthCheckPath,
	}
}

// HasHealthCheck reports whether the service declares a health endpoint.
func (d *Descriptor) HasHealthCheck() bool {
	return d.HealthCheckPath != ""
}

// HealthCheckURL returns the full health check URL.
// Example: "http://grading:8085/health"
func (d *Descriptor) HealthCheckURL() string {
	if !d.HasHealthCheck() {
		return ""
	}
	path := d.HealthCheckPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return d.BaseAddress + path
}

// URLFor joins the base address with a logical path.
func (d *Descriptor) URLFor(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return d.BaseAddress + path
}
