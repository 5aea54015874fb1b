// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package middleware provides the HTTP middleware shared by the API router.

Key Components:

  - RequestID: accepts or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge per route
  - PerformanceMonitor: sliding window of request latencies with percentiles
    and slow request logging

Metrics and the performance monitor label requests by the chi route pattern
(for example /api/v1/{medium}/recommend/content) when one is available, so
titles and user ids in paths never become label values.

Usage:

	perf := middleware.NewPerformanceMonitor(1000, logger)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(perf.Middleware)
*/
package middleware
