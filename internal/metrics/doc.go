// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto when the
package is imported, so both the server and the offline builder can record
metrics without setup.

# Metrics Endpoint

The server exposes metrics at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Requests in flight (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Recommendation Metrics:
  - recommend_requests_total: Requests by outcome (counter)
    Labels: operation, variant, result
  - recommend_duration_seconds: Engine time per request (histogram)
    Labels: operation
  - recommend_results: Items returned per request (histogram)
    Labels: operation
  - recommend_query_cache_requests_total: Free-text embedding cache (counter)
    Labels: result (hit, miss)

Artifact Metrics:
  - artifact_fetches_total: Remote resolutions (counter)
    Labels: result (cache_hit, downloaded, not_found, rejected, error)
  - artifact_fetch_bytes_total: Downloaded bytes (counter)
  - artifact_fetch_duration_seconds: Download latency (histogram)
  - artifact_load_duration_seconds: Decode time (histogram)
    Labels: kind
  - artifact_warmup_duration_seconds: Full warmup time (histogram)
    Labels: medium
  - artifact_warmups_total: Warmups by outcome (counter)
    Labels: medium, result
  - artifacts_ready: 1 once a medium is loaded (gauge)
    Labels: medium

Offline Pipeline Metrics:
  - graph_build_duration_seconds: Neighbor graph construction (histogram)
    Labels: kind (content, item_cf)
  - build_stage_duration_seconds: Pipeline stages (histogram)
    Labels: stage
  - dataset_rows_loaded_total: Rows read from the dataset (counter)
    Labels: medium, table

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests by result (counter)
    Labels: name, result
  - circuit_breaker_consecutive_failures: Current failure streak (gauge)
  - circuit_breaker_state_transitions_total: Transitions (counter)
    Labels: name, from_state, to_state

# Usage Example

	metrics.RecordAPIRequest("GET", "/api/v1/recommend/content", "200", 3*time.Millisecond)

	start := time.Now()
	res, err := engine.SimilarByTitle(ctx, v, title, 10)
	metrics.RecordRecommendation("content", v.String(),
	    metrics.Classify(err, recommend.ErrNotFound, recommend.ErrValidation, recommend.ErrNotReady),
	    len(res.Recommendations), time.Since(start))

Example PromQL queries:

	# p95 recommendation latency per operation
	histogram_quantile(0.95, sum by (le, operation) (rate(recommend_duration_seconds_bucket[5m])))

	# Query cache hit rate
	sum(rate(recommend_query_cache_requests_total{result="hit"}[5m]))
	  / sum(rate(recommend_query_cache_requests_total[5m]))

# Cardinality Management

Endpoint labels use chi route patterns, never raw paths, and variant labels
are bounded by the configured media and methods. Titles and user ids are
never used as labels.

# Thread Safety

All recording functions are safe for concurrent use. The Prometheus client
library handles synchronization internally.
*/
package metrics
