package core

import (
	"net/http"
	"strings"
)

// TokenProvider supplies the bearer token attached to proxied requests.
// The bool result is false when no token is available.
type TokenProvider interface {
	Token(r *http.Request) (string, bool)
}

// HeaderTokenProvider passes through the caller's own bearer token.
type HeaderTokenProvider struct{}

// Token extracts the token from an "Authorization: Bearer <token>" header.
func (HeaderTokenProvider) Token(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// StaticTokenProvider always returns the configured service token.
type StaticTokenProvider string

func (p StaticTokenProvider) Token(*http.Request) (string, bool) {
	return string(p), p != ""
}

// TokenChain asks each provider in turn and returns the first token found.
type TokenChain []TokenProvider

func (c TokenChain) Token(r *http.Request) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if token, ok := p.Token(r); ok {
			return token, true
		}
	}
	return "", false
}

// NewTokenProvider prefers the caller's token and falls back to the
// service token when one is configured.
func NewTokenProvider(serviceToken string) TokenProvider {
	if serviceToken == "" {
		return HeaderTokenProvider{}
	}
	return TokenChain{HeaderTokenProvider{}, StaticTokenProvider(serviceToken)}
}
