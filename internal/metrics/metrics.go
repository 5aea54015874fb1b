// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the recommendation server and the offline builder.
// This package provides instrumentation for:
// - API endpoint latency and throughput
// - Recommendation requests per variant
// - Artifact fetching, caching and warmup
// - Offline pipeline stages
// - Circuit breaker state

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}, // in-memory lookups are fast
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"operation", "variant", "result"}, // result: "ok", "not_found", "invalid", "not_ready", "error"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of recommendation computations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation"},
	)

	RecommendResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_results",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"operation"},
	)

	QueryCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_query_cache_requests_total",
			Help: "Free-text query embedding cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Artifact Metrics
	ArtifactFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_fetches_total",
			Help: "Total number of remote artifact resolutions",
		},
		[]string{"result"}, // "cache_hit", "downloaded", "not_found", "rejected", "error"
	)

	ArtifactFetchBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_fetch_bytes_total",
			Help: "Total bytes downloaded from the remote artifact store",
		},
	)

	ArtifactFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artifact_fetch_duration_seconds",
			Help:    "Duration of remote artifact downloads in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}, // artifacts can be hundreds of MB
		},
	)

	ArtifactLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artifact_load_duration_seconds",
			Help:    "Duration of decoding a single artifact in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"kind"},
	)

	ArtifactWarmupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artifact_warmup_duration_seconds",
			Help:    "Duration of a full artifact warmup in seconds",
			Buckets: []float64{0.1, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"medium"},
	)

	ArtifactWarmups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_warmups_total",
			Help: "Total number of artifact warmups",
		},
		[]string{"medium", "result"}, // result: "success", "failure"
	)

	ArtifactsReady = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "artifacts_ready",
			Help: "Whether the artifacts of a medium are loaded (0=no, 1=yes)",
		},
		[]string{"medium"},
	)

	// Offline Pipeline Metrics
	GraphBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_build_duration_seconds",
			Help:    "Duration of neighbor graph construction in seconds",
			Buckets: []float64{0.1, 1, 10, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"kind"}, // "content", "item_cf"
	)

	BuildStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "build_stage_duration_seconds",
			Help:    "Duration of offline build stages in seconds",
			Buckets: []float64{0.1, 1, 10, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"stage"},
	)

	DatasetRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_rows_loaded_total",
			Help: "Total number of dataset rows loaded",
		},
		[]string{"medium", "table"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// Outcome labels used by RecordRecommendation.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultNotReady = "not_ready"
	ResultError    = "error"
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the outcome of one recommendation call.
// Results are only observed for successful calls.
func RecordRecommendation(operation, variant, result string, count int, duration time.Duration) {
	RecommendRequests.WithLabelValues(operation, variant, result).Inc()
	RecommendDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if result == ResultOK {
		RecommendResults.WithLabelValues(operation).Observe(float64(count))
	}
}

// RecordBuildStage records the duration of an offline pipeline stage.
func RecordBuildStage(stage string, duration time.Duration) {
	BuildStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordDatasetRows counts rows read from a dataset table.
func RecordDatasetRows(medium, table string, rows int) {
	DatasetRowsLoaded.WithLabelValues(medium, table).Add(float64(rows))
}

// Classify maps an error to a RecordRecommendation result label. The
// sentinels are passed in so this package stays free of domain imports.
func Classify(err, notFound, invalid, notReady error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, notFound):
		return ResultNotFound
	case errors.Is(err, invalid):
		return ResultInvalid
	case errors.Is(err, notReady):
		return ResultNotReady
	default:
		return ResultError
	}
}
