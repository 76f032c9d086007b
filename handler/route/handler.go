package route

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"examhub/dispatch/core"
)

// Handler serves the gateway endpoint and the resolve API.
type Handler struct {
	router         *core.APIRouter
	routingService *core.RoutingService
}

// NewHandler creates a new routing handler
func NewHandler(rtr *core.APIRouter, routingService *core.RoutingService) *Handler {
	return &Handler{
		router:         rtr,
		routingService: routingService,
	}
}

// RegisterRoutes registers the resolve API:
//   - GET  /resolve?path=  - decision trail for a logical path
//   - POST /resolve        - build a URL from a template and parameters
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/resolve", h.handleResolve)
	router.POST("/resolve", h.handleBuild)
}

// RegisterGateway proxies every request under /api to the backend the
// router picks for it.
func (h *Handler) RegisterGateway(router gin.IRouter) {
	router.Any("/api/*path", h.handleGateway)
}

// BuildRequest is the payload of POST /resolve.
type BuildRequest struct {
	Template   string         `json:"template" binding:"required"`
	PathParams map[string]any `json:"path_params"`
	Query      map[string]any `json:"query"`
}

// handleGateway forwards the request on its escaped path, so %3F and %2F
// are not decoded before routing.
// Example: /api/admin/exams/5/publish -> http://exams:8083/api/admin/exams/5/publish
func (h *Handler) handleGateway(c *gin.Context) {
	logicalPath := c.Request.URL.EscapedPath()

	res, err := h.routingService.RouteRequest(c, logicalPath)
	if err == nil {
		return
	}

	log.Printf("Warning: gateway request %s failed: %v", logicalPath, err)
	if c.Writer.Written() {
		return
	}

	status := http.StatusInternalServerError
	if errors.Is(err, core.ErrBackendUnavailable) {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"error":   "service unavailable",
		"service": res.TargetService,
		"message": err.Error(),
	})
}

// handleResolve returns the full resolution for ?path=.
func (h *Handler) handleResolve(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
		return
	}

	c.JSON(http.StatusOK, h.router.Resolve(path))
}

// handleBuild substitutes path parameters and returns the backend URL.
func (h *Handler) handleBuild(c *gin.Context) {
	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	url, err := h.router.BuildAPIURLWithParams(req.Template, req.PathParams, req.Query)
	if err != nil {
		var missingErr *core.MissingPathParameterError
		if errors.As(err, &missingErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "missing path parameters",
				"missing": missingErr.Missing,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
