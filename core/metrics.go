package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Route decision strategies, also used as metric label values.
const (
	StrategyPattern   = "pattern"
	StrategyHeuristic = "heuristic"
	StrategyDefault   = "default"
)

// Prometheus metrics
var (
	MetricRouteDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_route_decisions_total",
			Help: "Routing decisions by selected service and match strategy",
		},
		[]string{"service", "strategy"},
	)
	MetricFailovers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_failovers_total",
			Help: "Failover resolutions for unhealthy services by outcome",
		},
		[]string{"service", "outcome"},
	)
	MetricHealthProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_health_probes_total",
			Help: "Health probes by service and result",
		},
		[]string{"service", "result"},
	)
	MetricServiceHealthy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_service_healthy",
			Help: "1 if the service passed its last health probe, 0 otherwise",
		},
		[]string{"service"},
	)
)

// InitMetrics registers Prometheus metrics with the default registerer.
// Call it once from main; tests use the collectors unregistered.
func InitMetrics() {
	prometheus.MustRegister(MetricRouteDecisions)
	prometheus.MustRegister(MetricFailovers)
	prometheus.MustRegister(MetricHealthProbes)
	prometheus.MustRegister(MetricServiceHealthy)
}
