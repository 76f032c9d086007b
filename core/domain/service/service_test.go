package service

import (
	"testing"
)

func TestNewDescriptor(t *testing.T) {
	patterns := []string{"/api/grader/*", "/api/grader/tasks"}
	d := NewDescriptor("grading-service", "http://localhost:8085/", patterns, "/health")

	if d.Name != "grading-service" {
		t.Errorf("Expected name 'grading-service', got %s", d.Name)
	}
	if d.BaseAddress != "http://localhost:8085" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", d.BaseAddress)
	}
	if len(d.PathPatterns) != 2 {
		t.Fatalf("Expected 2 patterns, got %d", len(d.PathPatterns))
	}

	// Mutating the caller's slice must not leak into the descriptor
	patterns[0] = "/changed"
	if d.PathPatterns[0] != "/api/grader/*" {
		t.Errorf("Expected patterns to be copied, got %s", d.PathPatterns[0])
	}
}

func TestDescriptor_HealthCheckURL(t *testing.T) {
	d := NewDescriptor("auth-service", "http://auth:8081", nil, "/health")
	expected := "http://auth:8081/health"

	if d.HealthCheckURL() != expected {
		t.Errorf("Expected health check URL %s, got %s", expected, d.HealthCheckURL())
	}
}

func TestDescriptor_HealthCheckURL_MissingSlash(t *testing.T) {
	d := NewDescriptor("auth-service", "http://auth:8081", nil, "health")
	expected := "http://auth:8081/health"

	if d.HealthCheckURL() != expected {
		t.Errorf("Expected health check URL %s, got %s", expected, d.HealthCheckURL())
	}
}

func TestDescriptor_NoHealthCheck(t *testing.T) {
	d := NewDescriptor("file-storage-service", "http://files:8088", nil, "")

	if d.HasHealthCheck() {
		t.Error("Expected no health check")
	}
	if d.HealthCheckURL() != "" {
		t.Errorf("Expected empty health check URL, got %s", d.HealthCheckURL())
	}
}

func TestDescriptor_URLFor(t *testing.T) {
	d := NewDescriptor("exam-management-service", "http://exams:8083", nil, "")

	tests := []struct {
		path     string
		expected string
	}{
		{"/api/admin/exams", "http://exams:8083/api/admin/exams"},
		{"api/admin/exams", "http://exams:8083/api/admin/exams"},
		{"", "http://exams:8083"},
	}

	for _, tt := range tests {
		if got := d.URLFor(tt.path); got != tt.expected {
			t.Errorf("URLFor(%q): expected %s, got %s", tt.path, tt.expected, got)
		}
	}
}
