package core

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteDecisionsAndFailovers(t *testing.T) {
	r, _ := newTestRouter(t, FailoverGraph{ServiceGrading: {ServiceScoreStatistics}})

	decisions := MetricRouteDecisions.WithLabelValues(ServiceGrading, StrategyPattern)
	rerouted := MetricFailovers.WithLabelValues(ServiceGrading, FailoverRerouted)
	beforeDecisions := testutil.ToFloat64(decisions)
	beforeRerouted := testutil.ToFloat64(rerouted)

	r.BuildAPIURL("/api/grader/tasks")
	r.SetServiceStatus(ServiceGrading, false)
	r.BuildAPIURL("/api/grader/tasks")

	if got := testutil.ToFloat64(decisions) - beforeDecisions; got != 2 {
		t.Errorf("Expected 2 pattern decisions, got %v", got)
	}
	if got := testutil.ToFloat64(rerouted) - beforeRerouted; got != 1 {
		t.Errorf("Expected 1 reroute, got %v", got)
	}
}

func TestMetrics_HeuristicAndDefault(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	heuristic := MetricRouteDecisions.WithLabelValues(ServiceScoreStatistics, StrategyHeuristic)
	fallback := MetricRouteDecisions.WithLabelValues(ServiceExamManagement, StrategyDefault)
	beforeHeuristic := testutil.ToFloat64(heuristic)
	beforeDefault := testutil.ToFloat64(fallback)

	r.BuildAPIURL("/api/coach/statistics/overview")
	r.BuildAPIURL("/health/ping")

	if got := testutil.ToFloat64(heuristic) - beforeHeuristic; got != 1 {
		t.Errorf("Expected 1 heuristic decision, got %v", got)
	}
	if got := testutil.ToFloat64(fallback) - beforeDefault; got != 1 {
		t.Errorf("Expected 1 default decision, got %v", got)
	}
}
