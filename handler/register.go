package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"examhub/dispatch/core"
	"examhub/dispatch/handler/middleware"
	"examhub/dispatch/handler/route"
	"examhub/dispatch/handler/service"
)

// Options carries what the HTTP surface needs from main.
type Options struct {
	Router          *core.APIRouter
	Proxy           *core.ProxyService
	HealthLogs      service.HealthLogReader
	EnableTestHooks bool
	// ExposeMetrics mounts the Prometheus handler at /dispatch/metrics.
	ExposeMetrics bool
}

// RegisterRoutes sets up the management API under /dispatch and the
// gateway under /api.
func RegisterRoutes(engine *gin.Engine, opts Options) {
	engine.Use(middleware.RequestID())

	routingService := core.NewRoutingService(opts.Router, opts.Proxy)
	routeHandler := route.NewHandler(opts.Router, routingService)

	dispatch := engine.Group("/dispatch")
	{
		dispatch.GET("/health", handleHealth)
		if opts.ExposeMetrics {
			dispatch.GET("/metrics", gin.WrapH(promhttp.Handler()))
		}

		service.RegisterRoutes(dispatch, opts.Router, opts.HealthLogs, opts.EnableTestHooks)
		routeHandler.RegisterRoutes(dispatch)
	}

	routeHandler.RegisterGateway(engine)
}

// handleHealth handles health check requests.
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "dispatch",
		"timestamp": time.Now().UTC(),
	})
}
