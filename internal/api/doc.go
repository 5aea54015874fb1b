// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package api exposes the recommendation engine over HTTP.

The adapter is thin: it parses the variant and parameters of a request,
calls one engine operation with a per-request timeout and writes the result
in the models.APIResponse envelope.

Routes:

	GET  /api/v1/health                                      Warmup state per variant
	GET  /api/v1/health/live                                 Liveness probe
	GET  /api/v1/health/ready                                503 until every variant is registered
	GET  /api/v1/variants                                    Configured and registered variants
	GET  /api/v1/stats/endpoints                             Latency percentiles per route
	GET  /api/v1/{medium}/recommend/content                  ?title=&method=&top_n=
	GET  /api/v1/{medium}/recommend/content-description      ?description=&method=&top_n=
	GET  /api/v1/{medium}/recommend/item-cf                  ?title=&method=&top_n=
	POST /api/v1/{medium}/recommend/user-cf                  {"ratings": [...], "top_n", "k_similar_users", "method"}
	GET  /api/v1/{medium}/recommend/users/{userID}           ?method=&top_n=&k_similar_users=
	POST /api/v1/{medium}/recommend/hybrid                   {"title", "ratings", "alpha", "beta", ...}
	GET  /metrics                                            Prometheus exposition

Variant selection: {medium} is movies or books, method defaults to the first
configured method. A variant that is configured but still warming up answers
503; a variant that is not configured answers 404.

Error mapping:

	recommend.ErrValidation  400 VALIDATION_ERROR
	recommend.ErrNotFound    404 NOT_FOUND
	recommend.ErrNotReady    503 NOT_READY
	deadline exceeded        504 TIMEOUT
	anything else            500 INTERNAL_ERROR

Middleware stack (outermost first): request id, real IP, panic recovery,
security headers, CORS, Prometheus metrics, performance monitor, gzip
compression, then per-group rate limits.
*/
package api
