package core

import (
	"strings"
	"testing"

	"examhub/dispatch/core/domain/service"
)

func TestServiceRegistry_Lookup(t *testing.T) {
	reg, err := NewServiceRegistry([]*service.Descriptor{
		service.NewDescriptor("auth-service", "http://auth:8081", []string{"/api/auth/*"}, "/health"),
		service.NewDescriptor("grading-service", "http://grading:8085", []string{"/api/grader/*"}, ""),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	svc, ok := reg.Lookup("grading-service")
	if !ok {
		t.Fatal("Expected grading-service to be found")
	}
	if svc.BaseAddress != "http://grading:8085" {
		t.Errorf("Expected base address http://grading:8085, got %s", svc.BaseAddress)
	}

	if _, ok := reg.Lookup("missing-service"); ok {
		t.Error("Expected missing-service not to be found")
	}
}

func TestServiceRegistry_AllPreservesOrder(t *testing.T) {
	names := []string{"zeta", "alpha", "mid"}
	descs := make([]*service.Descriptor, 0, len(names))
	for _, n := range names {
		descs = append(descs, service.NewDescriptor(n, "http://"+n, nil, ""))
	}

	reg, err := NewServiceRegistry(descs)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	all := reg.All()
	if len(all) != len(names) {
		t.Fatalf("Expected %d services, got %d", len(names), len(all))
	}
	for i, svc := range all {
		if svc.Name != names[i] {
			t.Errorf("Position %d: expected %s, got %s", i, names[i], svc.Name)
		}
	}
	if reg.Len() != 3 {
		t.Errorf("Expected Len 3, got %d", reg.Len())
	}
}

func TestServiceRegistry_DuplicateName(t *testing.T) {
	_, err := NewServiceRegistry([]*service.Descriptor{
		service.NewDescriptor("auth-service", "http://a", nil, ""),
		service.NewDescriptor("auth-service", "http://b", nil, ""),
	})
	if err == nil {
		t.Fatal("Expected error for duplicate service name")
	}
	if !strings.Contains(err.Error(), "auth-service") {
		t.Errorf("Expected error to name the service, got %v", err)
	}
}

func TestServiceRegistry_InvalidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		desc *service.Descriptor
	}{
		{"nil", nil},
		{"empty name", service.NewDescriptor("", "http://a", nil, "")},
		{"empty base", service.NewDescriptor("svc", "", nil, "")},
		{"bad pattern", service.NewDescriptor("svc", "http://a", []string{"/api/{broken"}, "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewServiceRegistry([]*service.Descriptor{tt.desc}); err == nil {
				t.Error("Expected construction error")
			}
		})
	}
}
