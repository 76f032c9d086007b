package core

import (
	"testing"

	"examhub/dispatch/core/domain/service"
)

// testDescriptors returns a small exam-platform table used across tests.
func testDescriptors() []*service.Descriptor {
	return []*service.Descriptor{
		service.NewDescriptor(ServiceAuth, "http://auth:8081", []string{
			"/api/auth/login",
			"/api/auth/*",
		}, "/health"),
		service.NewDescriptor(ServiceUserManagement, "http://users:8082", []string{
			"/api/admin/users",
			"/api/admin/users/{userId}",
			"/api/users/{userId}/profile",
			"/api/coach/password",
			"/api/student/",
			AvatarUploadPath,
		}, "/health"),
		service.NewDescriptor(ServiceExamManagement, "http://exams:8083", []string{
			"/api/admin/exams",
			"/api/admin/exams/{examId}/publish",
			"/api/student/exams",
			"/api/users/{userId}/exams/{examId}",
		}, "/health"),
		service.NewDescriptor(ServiceGrading, "http://grading:8085", []string{
			"/api/grader/*",
		}, "/health"),
		service.NewDescriptor(ServiceScoreStatistics, "http://scores:8086", []string{
			"/api/scores/*",
		}, "/health"),
		service.NewDescriptor(ServiceFileStorage, "http://files:8088", []string{
			"/api/upload/*",
		}, ""),
	}
}

func newTestRegistry(t *testing.T) *ServiceRegistry {
	t.Helper()
	reg, err := NewServiceRegistry(testDescriptors())
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	return reg
}

// staticHealth is a HealthReader backed by a plain map; missing names are healthy.
type staticHealth map[string]bool

func (h staticHealth) IsHealthy(name string) bool {
	healthy, ok := h[name]
	return !ok || healthy
}
