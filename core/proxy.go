package core

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultProxyTimeout bounds a single forwarded request.
const DefaultProxyTimeout = 30 * time.Second

// RequestIDHeader correlates a gateway request with its backend call.
const RequestIDHeader = "X-Request-ID"

// ErrBackendUnavailable is returned when the backend could not be reached.
var ErrBackendUnavailable = errors.New("backend request failed")

var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// ProxyService forwards a gateway request to the URL the router resolved.
// Method, headers, body and query are preserved; the bearer token comes
// from the token provider. Failed requests are not retried.
type ProxyService struct {
	client *http.Client
	tokens TokenProvider
}

// NewProxyService creates a proxy whose client does not follow redirects.
// A non-positive timeout selects DefaultProxyTimeout.
func NewProxyService(timeout time.Duration, tokens TokenProvider) *ProxyService {
	if timeout <= 0 {
		timeout = DefaultProxyTimeout
	}
	if tokens == nil {
		tokens = HeaderTokenProvider{}
	}
	return &ProxyService{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		tokens: tokens,
	}
}

// Forward sends the request held by c to targetURL and streams the
// response back. It returns the request ID used for the backend call.
func (p *ProxyService) Forward(c *gin.Context, targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("invalid target URL %s: %w", targetURL, err)
	}

	proxyReq, err := p.createProxyRequest(c.Request, parsed)
	if err != nil {
		return "", fmt.Errorf("failed to create proxy request: %w", err)
	}
	requestID := proxyReq.Header.Get(RequestIDHeader)

	log.Printf("Forwarding %s request %s to %s", proxyReq.Method, requestID, parsed.String())

	if err := p.doRequest(c, proxyReq); err != nil {
		return requestID, err
	}
	return requestID, nil
}

func (p *ProxyService) createProxyRequest(original *http.Request, target *url.URL) (*http.Request, error) {
	proxyReq, err := http.NewRequestWithContext(original.Context(), original.Method, target.String(), original.Body)
	if err != nil {
		return nil, err
	}
	proxyReq.ContentLength = original.ContentLength

	for key, values := range original.Header {
		if isHopByHopHeader(key) {
			continue
		}
		for _, value := range values {
			proxyReq.Header.Add(key, value)
		}
	}

	proxyReq.Header.Del("Authorization")
	if token, ok := p.tokens.Token(original); ok {
		proxyReq.Header.Set("Authorization", "Bearer "+token)
	}

	if proxyReq.Header.Get(RequestIDHeader) == "" {
		proxyReq.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if original.RemoteAddr != "" {
		proxyReq.Header.Set("X-Forwarded-For", original.RemoteAddr)
	}
	proto := "http"
	if original.TLS != nil {
		proto = "https"
	}
	proxyReq.Header.Set("X-Forwarded-Proto", proto)
	if original.Host != "" {
		proxyReq.Header.Set("X-Forwarded-Host", original.Host)
	}

	return proxyReq, nil
}

func (p *ProxyService) doRequest(c *gin.Context, proxyReq *http.Request) error {
	resp, err := p.client.Do(proxyReq)
	if err != nil {
		log.Printf("Warning: backend request to %s failed: %v", proxyReq.URL.Host, err)
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if isHopByHopHeader(key) {
			continue
		}
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Header(RequestIDHeader, proxyReq.Header.Get(RequestIDHeader))
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// Status is already written; nothing left to report to the client.
		log.Printf("Warning: failed to copy response body: %v", err)
	}
	return nil
}

func isHopByHopHeader(header string) bool {
	return hopByHopHeaders[strings.ToLower(header)]
}
