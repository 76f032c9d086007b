package core

import (
	"net/http/httptest"
	"testing"
)

func TestHeaderTokenProvider(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"bearer", "Bearer abc123", "abc123", true},
		{"lowercase scheme", "bearer abc123", "abc123", true},
		{"missing", "", "", false},
		{"basic auth", "Basic dXNlcjpwYXNz", "", false},
		{"empty token", "Bearer   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, ok := HeaderTokenProvider{}.Token(req)
			if token != tt.token || ok != tt.ok {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.token, tt.ok, token, ok)
			}
		})
	}
}

func TestNewTokenProvider(t *testing.T) {
	anonymous := httptest.NewRequest("GET", "/api/scores/1", nil)
	withUser := httptest.NewRequest("GET", "/api/scores/1", nil)
	withUser.Header.Set("Authorization", "Bearer user-token")

	plain := NewTokenProvider("")
	if _, ok := plain.Token(anonymous); ok {
		t.Error("Expected no token without header or service token")
	}

	chained := NewTokenProvider("svc-token")
	if token, ok := chained.Token(withUser); !ok || token != "user-token" {
		t.Errorf("Expected caller token to win, got %q", token)
	}
	if token, ok := chained.Token(anonymous); !ok || token != "svc-token" {
		t.Errorf("Expected service token fallback, got %q", token)
	}
}
