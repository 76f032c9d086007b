package core

import (
	"errors"
	"strings"

	"examhub/dispatch/core/domain/service"
)

// HealthStatusTable is the health state the router consults and exposes.
// *HealthMonitor implements it; tests may substitute their own.
type HealthStatusTable interface {
	HealthReader
	Snapshot() map[string]bool
	SetStatus(name string, healthy bool)
}

// RouterOptions carries the tables an APIRouter is built from.
type RouterOptions struct {
	Registry        *ServiceRegistry
	Health          HealthStatusTable
	Failover        FailoverGraph
	DeprecatedPaths []DeprecatedPath
	// Fallback defaults to DefaultFallbackTable when nil.
	Fallback FallbackTable
	// DefaultService defaults to the first registered service when empty.
	DefaultService string
}

// Resolution is the full decision trail for one logical path.
type Resolution struct {
	RequestedPath  string `json:"requested_path"`
	CanonicalPath  string `json:"canonical_path"`
	Deprecated     bool   `json:"deprecated"`
	MatchedService string `json:"matched_service"`
	Strategy       string `json:"strategy"`
	Pattern        string `json:"pattern,omitempty"`
	TargetService  string `json:"target_service"`
	FailedOver     bool   `json:"failed_over"`
	URL            string `json:"url"`

	Target *service.Descriptor `json:"-"`
}

// APIRouter turns logical API paths into backend URLs:
// rewrite deprecated path, match a service, fail over if unhealthy, build URL.
// Routing is synchronous and safe for concurrent use; the only shared
// mutable state is the health table.
type APIRouter struct {
	registry *ServiceRegistry
	health   HealthStatusTable
	rewriter *PathRewriter
	matcher  *PathMatcher
	resolver *FailoverResolver
}

// NewAPIRouter wires the routing pipeline and validates every table.
func NewAPIRouter(opts RouterOptions) (*APIRouter, error) {
	if opts.Registry == nil {
		return nil, errors.New("router needs a service registry")
	}
	if opts.Health == nil {
		return nil, errors.New("router needs a health status table")
	}

	rewriter, err := NewPathRewriter(opts.DeprecatedPaths)
	if err != nil {
		return nil, err
	}

	fallback := opts.Fallback
	if fallback == nil {
		fallback = DefaultFallbackTable()
	}
	matcher, err := NewPathMatcher(opts.Registry, fallback, opts.DefaultService)
	if err != nil {
		return nil, err
	}

	resolver, err := NewFailoverResolver(opts.Registry, opts.Health, opts.Failover)
	if err != nil {
		return nil, err
	}

	return &APIRouter{
		registry: opts.Registry,
		health:   opts.Health,
		rewriter: rewriter,
		matcher:  matcher,
		resolver: resolver,
	}, nil
}

// Registry returns the service registry the router matches against.
func (r *APIRouter) Registry() *ServiceRegistry {
	return r.registry
}

// Resolve runs the full pipeline for a logical path. A query string on
// the path is carried to the URL but ignored for matching.
func (r *APIRouter) Resolve(logicalPath string) Resolution {
	path, rawQuery, _ := strings.Cut(logicalPath, "?")
	return r.ResolveRequest(path, rawQuery)
}

// ResolveRequest is Resolve for a path and raw query that are already
// split, as on an incoming request. path is kept in its escaped form, so
// an encoded '?' or '/' reaches the backend unchanged.
func (r *APIRouter) ResolveRequest(path, rawQuery string) Resolution {
	requested := path
	if rawQuery != "" {
		requested += "?" + rawQuery
	}

	canonical := r.rewriter.Rewrite(path)
	match := r.matcher.Match(canonical)
	target := r.resolver.Resolve(match.Service)

	full := canonical
	if rawQuery != "" {
		full += "?" + rawQuery
	}

	return Resolution{
		RequestedPath:  requested,
		CanonicalPath:  canonical,
		Deprecated:     canonical != path,
		MatchedService: match.Service.Name,
		Strategy:       match.Strategy,
		Pattern:        match.Pattern,
		TargetService:  target.Name,
		FailedOver:     target != match.Service,
		URL:            BuildURL(target, full, nil),
		Target:         target,
	}
}

// BuildAPIURL returns the backend URL for a literal logical path.
func (r *APIRouter) BuildAPIURL(logicalPath string) string {
	return r.Resolve(logicalPath).URL
}

// BuildAPIURLWithQuery returns the backend URL for path with query appended.
func (r *APIRouter) BuildAPIURLWithQuery(logicalPath string, query map[string]any) string {
	return appendQuery(r.BuildAPIURL(logicalPath), query)
}

// BuildAPIURLWithParams substitutes the '{name}' tokens of template and
// routes the resulting path. It fails with *MissingPathParameterError when
// any token has no value.
func (r *APIRouter) BuildAPIURLWithParams(template string, pathParams, query map[string]any) (string, error) {
	path, err := SubstitutePathParams(template, pathParams)
	if err != nil {
		return "", err
	}
	return r.BuildAPIURLWithQuery(path, query), nil
}

// ServicesStatus returns name -> healthy for every registered service.
func (r *APIRouter) ServicesStatus() map[string]bool {
	return r.health.Snapshot()
}

// ServiceStatuses returns detailed status when the health table is a
// *HealthMonitor, or nil otherwise.
func (r *APIRouter) ServiceStatuses() map[string]HealthStatus {
	if m, ok := r.health.(*HealthMonitor); ok {
		return m.Statuses()
	}
	return nil
}

// SetServiceStatus overrides a service's health. Test hook only.
func (r *APIRouter) SetServiceStatus(name string, healthy bool) {
	r.health.SetStatus(name, healthy)
}
