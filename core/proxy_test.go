package core

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"examhub/dispatch/core/domain/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestProxyService_Forward(t *testing.T) {
	var got *http.Request
	var body string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("X-Backend", "exams")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"42"}`))
	}))
	defer backend.Close()

	prx := NewProxyService(0, StaticTokenProvider("svc-token"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/admin/exams?draft=true", strings.NewReader(`{"title":"Final"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("Connection", "keep-alive")

	requestID, err := prx.Forward(c, backend.URL+"/api/admin/exams?draft=true")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if w.Body.String() != `{"id":"42"}` {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
	if w.Header().Get("X-Backend") != "exams" {
		t.Error("Expected backend response headers to be copied")
	}
	if w.Header().Get(RequestIDHeader) != requestID || requestID == "" {
		t.Errorf("Expected request ID %q echoed, got %q", requestID, w.Header().Get(RequestIDHeader))
	}

	if got.Method != "POST" || got.URL.Path != "/api/admin/exams" || got.URL.RawQuery != "draft=true" {
		t.Errorf("Unexpected backend request %s %s", got.Method, got.URL.String())
	}
	if body != `{"title":"Final"}` {
		t.Errorf("Expected body forwarded, got %s", body)
	}
	if got.Header.Get("Authorization") != "Bearer svc-token" {
		t.Errorf("Expected service token, got %q", got.Header.Get("Authorization"))
	}
	if got.Header.Get("Content-Type") != "application/json" {
		t.Error("Expected Content-Type forwarded")
	}
	if got.Header.Get(RequestIDHeader) != requestID {
		t.Error("Expected backend to receive the request ID")
	}
}

func TestProxyService_KeepsIncomingRequestID(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("Expected no Authorization header, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	prx := NewProxyService(0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/scores/1", nil)
	c.Request.Header.Set(RequestIDHeader, "req-1")
	c.Request.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

	requestID, err := prx.Forward(c, backend.URL+"/api/scores/1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if requestID != "req-1" {
		t.Errorf("Expected incoming request ID kept, got %s", requestID)
	}
}

func TestProxyService_BackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := backend.URL
	backend.Close()

	prx := NewProxyService(0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/scores/1", nil)

	_, err := prx.Forward(c, addr+"/api/scores/1")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}
}

func TestRoutingService_RouteRequest(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	reg, err := NewServiceRegistry([]*service.Descriptor{
		service.NewDescriptor(ServiceUserManagement, backend.URL, []string{"/api/coach/password"}, ""),
	})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	rtr, err := NewAPIRouter(RouterOptions{
		Registry:        reg,
		Health:          NewHealthMonitor(reg, 0, 0, nil),
		DeprecatedPaths: testDeprecatedPaths(),
	})
	if err != nil {
		t.Fatalf("Failed to build router: %v", err)
	}

	routing := NewRoutingService(rtr, NewProxyService(0, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("PUT", "/api/coach/profile/change-password?notify=1", nil)

	res, err := routing.RouteRequest(c, "/api/coach/profile/change-password")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !res.Deprecated || res.TargetService != ServiceUserManagement {
		t.Errorf("Unexpected resolution %+v", res)
	}
	if gotPath != "/api/coach/password" || gotQuery != "notify=1" {
		t.Errorf("Expected /api/coach/password?notify=1, got %s?%s", gotPath, gotQuery)
	}
}
