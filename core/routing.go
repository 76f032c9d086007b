package core

import (
	"log"

	"github.com/gin-gonic/gin"
)

// RoutingService resolves gateway requests through the APIRouter and hands
// them to the proxy. Each request is resolved on its own, so a health
// change takes effect on the next request.
type RoutingService struct {
	router *APIRouter
	proxy  *ProxyService
}

// NewRoutingService creates a routing service with the given router and proxy.
func NewRoutingService(rtr *APIRouter, prx *ProxyService) *RoutingService {
	return &RoutingService{
		router: rtr,
		proxy:  prx,
	}
}

// RouteRequest forwards the request held by c. logicalPath must be the
// escaped request path; the raw query is passed alongside it.
func (s *RoutingService) RouteRequest(c *gin.Context, logicalPath string) (Resolution, error) {
	res := s.router.ResolveRequest(logicalPath, c.Request.URL.RawQuery)
	if res.FailedOver {
		log.Printf("Routing %s to %s instead of %s", res.CanonicalPath, res.TargetService, res.MatchedService)
	}

	_, err := s.proxy.Forward(c, res.URL)
	return res, err
}
