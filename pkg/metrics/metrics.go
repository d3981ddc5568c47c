// Package metrics exposes Prometheus collectors for the API and the
// analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policywatch_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "policywatch_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// AnalysesTotal counts finished analysis runs by type and outcome.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policywatch_analyses_total",
		Help: "Completed and failed analysis runs",
	}, []string{"type", "status"})

	// AnalysisDuration observes wall-clock time of an analysis run.
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "policywatch_analysis_duration_seconds",
		Help:    "Analysis run duration",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"type"})

	// ChunksAnalyzed counts document chunks sent to the model.
	ChunksAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policywatch_chunks_analyzed_total",
		Help: "Document chunks analyzed",
	})

	// TokensUsed counts model tokens by direction (input/output).
	TokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policywatch_llm_tokens_total",
		Help: "LLM tokens consumed",
	}, []string{"direction"})

	// CostUSD accumulates estimated model spend.
	CostUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policywatch_llm_cost_usd_total",
		Help: "Estimated LLM spend in USD",
	})

	// JSONRepairsTotal counts model responses that needed truncation repair.
	JSONRepairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policywatch_json_repairs_total",
		Help: "Model responses recovered by JSON repair",
	})

	// VersionsCreated counts new versions admitted by change detection.
	VersionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policywatch_versions_created_total",
		Help: "Document versions created",
	})
)
