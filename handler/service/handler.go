// Package service provides HTTP handlers for service diagnostics: the
// registry, current health and probe history.
package service

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"examhub/dispatch/core"
	"examhub/dispatch/core/domain/healthlog"
	"examhub/dispatch/core/domain/service"
)

// HealthLogReader is the read side of the probe history.
type HealthLogReader interface {
	GetByService(serviceName string, limit int) ([]healthlog.Entry, error)
}

// Handler exposes the router's services and their health.
type Handler struct {
	router        *core.APIRouter
	healthLogRepo HealthLogReader
}

// NewHandler creates a new service handler. healthLogRepo may be nil, in
// which case health-logs answers 503.
func NewHandler(rtr *core.APIRouter, healthLogRepo HealthLogReader) *Handler {
	return &Handler{
		router:        rtr,
		healthLogRepo: healthLogRepo,
	}
}

// RegisterRoutes registers all service routes with the given router.
// Routes:
//   - GET /services                   - Registered services with health
//   - GET /services/status            - Service name -> healthy
//   - GET /services/:name/health-logs - Probe history
//   - PUT /services/:name/status      - Override health (test hooks only)
func RegisterRoutes(router gin.IRouter, rtr *core.APIRouter, healthLogRepo HealthLogReader, enableTestHooks bool) {
	handler := NewHandler(rtr, healthLogRepo)

	services := router.Group("/services")
	{
		services.GET("", handler.handleListServices)
		services.GET("/status", handler.handleServicesStatus)
		services.GET("/:name/health-logs", handler.handleGetHealthLogs)
		if enableTestHooks {
			services.PUT("/:name/status", handler.handleSetStatus)
		}
	}
}

// ServiceView is a registered service together with its current health.
type ServiceView struct {
	*service.Descriptor
	Health core.HealthStatus `json:"health"`
}

// SetStatusRequest is the payload of the health override hook.
type SetStatusRequest struct {
	Healthy *bool `json:"healthy" binding:"required"`
}

// handleListServices returns all registered services in registration order.
func (h *Handler) handleListServices(c *gin.Context) {
	statuses := h.router.ServiceStatuses()
	healthy := h.router.ServicesStatus()

	all := h.router.Registry().All()
	views := make([]ServiceView, 0, len(all))
	for _, d := range all {
		st, ok := statuses[d.Name]
		if !ok {
			st = core.HealthStatus{Healthy: healthy[d.Name]}
		}
		views = append(views, ServiceView{Descriptor: d, Health: st})
	}

	c.JSON(http.StatusOK, gin.H{
		"services": views,
		"count":    len(views),
	})
}

// handleServicesStatus returns the name -> healthy map.
func (h *Handler) handleServicesStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.ServicesStatus())
}

// handleGetHealthLogs retrieves probe history for a specific service.
func (h *Handler) handleGetHealthLogs(c *gin.Context) {
	name := c.Param("name")

	if _, ok := h.router.Registry().Lookup(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	if h.healthLogRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "probe history is disabled"})
		return
	}

	// Get limit from query parameter, default to 50
	limit := 50
	if limitParam := c.Query("limit"); limitParam != "" {
		if parsedLimit, err := strconv.Atoi(limitParam); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	logs, err := h.healthLogRepo.GetByService(name, limit)
	if err != nil {
		log.Printf("Failed to read health logs for %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve health logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service": name,
		"logs":    logs,
		"count":   len(logs),
	})
}

// handleSetStatus overrides a service's health until the next probe.
func (h *Handler) handleSetStatus(c *gin.Context) {
	name := c.Param("name")

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if _, ok := h.router.Registry().Lookup(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}

	h.router.SetServiceStatus(name, *req.Healthy)
	log.Printf("Health of %s set to %v by test hook", name, *req.Healthy)

	c.JSON(http.StatusOK, gin.H{"service": name, "healthy": *req.Healthy})
}
