package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"examhub/dispatch/core"
	"examhub/dispatch/core/domain/service"
)

// ServiceConfig is one service entry of the routing table.
type ServiceConfig struct {
	Name            string   `yaml:"name"`
	BaseAddress     string   `yaml:"base_address"`
	Description     string   `yaml:"description"`
	HealthCheckPath string   `yaml:"health_check_path"`
	PathPatterns    []string `yaml:"path_patterns"`
}

// RoutingConfig is the routing table: services in registration order,
// failover chains and the ordered deprecated-path list.
type RoutingConfig struct {
	DefaultService  string                `yaml:"default_service"`
	Services        []ServiceConfig       `yaml:"services"`
	Failover        core.FailoverGraph    `yaml:"failover"`
	DeprecatedPaths []core.DeprecatedPath `yaml:"deprecated_paths"`
}

// LoadRouting reads the routing table from path, or returns the built-in
// table when path is empty. Base addresses are then overridden from
// DISPATCH_SERVICE_<NAME>_URL.
func LoadRouting(path string) (*RoutingConfig, error) {
	var rc *RoutingConfig
	if path == "" {
		rc = DefaultRoutingConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read routes file: %w", err)
		}
		rc, err = ParseRouting(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse routes file %s: %w", path, err)
		}
	}

	rc.ApplyEnvOverrides()
	return rc, nil
}

// ParseRouting decodes a YAML routing table. Unknown fields are rejected.
func ParseRouting(data []byte) (*RoutingConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rc RoutingConfig
	if err := dec.Decode(&rc); err != nil {
		return nil, err
	}
	if len(rc.Services) == 0 {
		return nil, errors.New("routing table defines no services")
	}
	return &rc, nil
}

// ServiceURLEnvKey returns the variable that overrides a service's base address.
func ServiceURLEnvKey(name string) string {
	return "DISPATCH_SERVICE_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_URL"
}

// ApplyEnvOverrides replaces base addresses set through the environment.
func (rc *RoutingConfig) ApplyEnvOverrides() {
	for i := range rc.Services {
		key := ServiceURLEnvKey(rc.Services[i].Name)
		if value := os.Getenv(key); value != "" {
			log.Printf("Using %s for %s", value, rc.Services[i].Name)
			rc.Services[i].BaseAddress = value
		}
	}
}

// Descriptors converts the service entries in order.
func (rc *RoutingConfig) Descriptors() []*service.Descriptor {
	out := make([]*service.Descriptor, 0, len(rc.Services))
	for _, s := range rc.Services {
		d := service.NewDescriptor(s.Name, s.BaseAddress, s.PathPatterns, s.HealthCheckPath)
		d.Description = s.Description
		out = append(out, d)
	}
	return out
}

// DefaultRoutingConfig returns the built-in exam-platform routing table
// pointing at local ports.
func DefaultRoutingConfig() *RoutingConfig {
	return &RoutingConfig{
		DefaultService: core.ServiceExamManagement,
		Services: []ServiceConfig{
			{
				Name:            core.ServiceAuth,
				BaseAddress:     "http://localhost:8081",
				Description:     "Login, logout and token refresh",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/auth/login",
					"/api/auth/logout",
					"/api/auth/refresh",
					"/api/auth/*",
				},
			},
			{
				Name:            core.ServiceUserManagement,
				BaseAddress:     "http://localhost:8082",
				Description:     "Accounts, profiles, passwords and avatars",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/admin/users",
					"/api/admin/users/{userId}",
					"/api/admin/users/*",
					"/api/users/{userId}",
					"/api/users/{userId}/profile",
					"/api/student/profile",
					"/api/coach/profile",
					"/api/grader/profile",
					"/api/student/password",
					"/api/coach/password",
					"/api/grader/password",
					"/api/admin/password",
					core.AvatarUploadPath,
				},
			},
			{
				Name:            core.ServiceExamManagement,
				BaseAddress:     "http://localhost:8083",
				Description:     "Exam authoring, publishing and assignment",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/admin/exams",
					"/api/admin/exams/{examId}",
					"/api/admin/exams/{examId}/publish",
					"/api/admin/exams/*",
					"/api/coach/exams",
					"/api/coach/exams/*",
					"/api/student/exams",
					"/api/student/exams/{examId}",
					"/api/users/{userId}/exams/{examId}",
					"/api/exams/*",
				},
			},
			{
				Name:            core.ServiceSubmission,
				BaseAddress:     "http://localhost:8084",
				Description:     "Answer submission and drafts",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/student/exams/{examId}/submit",
					"/api/student/submissions",
					"/api/student/submissions/*",
					"/api/submissions/*",
				},
			},
			{
				Name:            core.ServiceGrading,
				BaseAddress:     "http://localhost:8085",
				Description:     "Grading tasks and reviews",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/grader/tasks",
					"/api/grader/tasks/{taskId}",
					"/api/grader/*",
					"/api/admin/grading/*",
				},
			},
			{
				Name:            core.ServiceScoreStatistics,
				BaseAddress:     "http://localhost:8086",
				Description:     "Scores, statistics and rankings",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/student/scores",
					"/api/coach/statistics",
					"/api/scores/*",
					"/api/admin/statistics/*",
					"/api/rankings/*",
				},
			},
			{
				Name:            core.ServiceRegionManagement,
				BaseAddress:     "http://localhost:8087",
				Description:     "Regions and exam sites",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/regions",
					"/api/admin/regions",
					"/api/admin/regions/*",
				},
			},
			{
				Name:            core.ServiceFileStorage,
				BaseAddress:     "http://localhost:8088",
				Description:     "Uploads and downloads",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/upload/*",
					"/api/files/*",
				},
			},
			{
				Name:            core.ServiceSystemConfig,
				BaseAddress:     "http://localhost:8089",
				Description:     "Platform settings",
				HealthCheckPath: "/health",
				PathPatterns: []string{
					"/api/admin/config",
					"/api/admin/config/*",
					"/api/admin/settings/*",
				},
			},
		},
		Failover: core.FailoverGraph{
			core.ServiceGrading:         {core.ServiceScoreStatistics},
			core.ServiceScoreStatistics: {core.ServiceGrading},
			core.ServiceSubmission:      {core.ServiceExamManagement},
		},
		DeprecatedPaths: []core.DeprecatedPath{
			{From: "/api/student/profile/change-password", To: "/api/student/password"},
			{From: "/api/coach/profile/change-password", To: "/api/coach/password"},
			{From: "/api/grader/profile/change-password", To: "/api/grader/password"},
			{From: "/api/admin/profile/change-password", To: "/api/admin/password"},
			{From: "/api/exam/*", To: "/api/exams/*"},
			{From: "/api/student/exam/*/answers", To: "/api/student/exams/*/submit"},
		},
	}
}
