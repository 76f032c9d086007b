// Package middleware provides Gin middleware shared by the dispatch routes.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"examhub/dispatch/core"
)

// RequestIDKey is the Gin context key holding the request ID.
const RequestIDKey = "request_id"

// RequestID makes sure every request carries an X-Request-ID. An incoming
// ID is kept; otherwise a new UUID is assigned. The ID is written to the
// request headers so the proxy forwards it, and echoed on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(core.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(core.RequestIDHeader, id)
		}

		c.Set(RequestIDKey, id)
		c.Header(core.RequestIDHeader, id)
		c.Next()
	}
}
