package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_recommendations_total",
			Help: "Recommendation requests by result source",
		},
		[]string{"source"},
	)

	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_provider_requests_total",
			Help: "Text-generation provider requests by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compliance_provider_request_duration_seconds",
			Help:    "Text-generation provider request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_analyses_total",
			Help: "Analyses run by kind and result source",
		},
		[]string{"kind", "source"},
	)

	actionExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_action_executions_total",
			Help: "Action executions by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	actionExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compliance_action_execution_duration_ms",
			Help:    "Action execution duration in milliseconds",
			Buckets: []float64{1, 5, 25, 100, 250, 500, 1000, 5000, 30000},
		},
		[]string{"type"},
	)

	batchExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_batch_executions_total",
			Help: "Batch executions by execution mode",
		},
		[]string{"mode"},
	)

	batchJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_batch_jobs_total",
			Help: "Queued batch jobs handled by the worker, by outcome",
		},
		[]string{"outcome"},
	)
)

// IncRecommendations counts a recommendation response served from source (ai, fallback, cache).
func IncRecommendations(source string) {
	recommendationsTotal.WithLabelValues(source).Inc()
}

// ObserveProviderRequest records one provider call.
func ObserveProviderRequest(provider, status string, elapsed time.Duration) {
	providerRequestsTotal.WithLabelValues(provider, status).Inc()
	providerRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// IncAnalysis counts an analysis result by kind and source.
func IncAnalysis(kind, source string) {
	analysesTotal.WithLabelValues(kind, source).Inc()
}

// ObserveActionExecution records one action execution.
func ObserveActionExecution(actionType string, success bool, elapsedMs int64) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	actionExecutionsTotal.WithLabelValues(actionType, outcome).Inc()
	actionExecutionDuration.WithLabelValues(actionType).Observe(float64(elapsedMs))
}

// IncBatchExecution counts a batch run.
func IncBatchExecution(mode string) {
	batchExecutionsTotal.WithLabelValues(mode).Inc()
}

// IncBatchJob counts a worker batch job outcome (received, completed, failed, dropped).
func IncBatchJob(outcome string) {
	batchJobsTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
