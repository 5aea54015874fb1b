// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package middleware

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSlowThreshold is the latency above which a request is logged.
const DefaultSlowThreshold = time.Second

// RequestSample is one observed request.
type RequestSample struct {
	Route      string        `json:"route"`
	Method     string        `json:"method"`
	Duration   time.Duration `json:"duration"`
	StatusCode int           `json:"status_code"`
	Timestamp  time.Time     `json:"timestamp"`
}

// EndpointStats contains aggregated statistics for one route.
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int64   `json:"request_count"`
	ErrorCount   int64   `json:"error_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        float64 `json:"p50_ms"`
	P95MS        float64 `json:"p95_ms"`
	P99MS        float64 `json:"p99_ms"`
	MaxMS        float64 `json:"max_ms"`
}

// PerformanceMonitor keeps the most recent request samples in a ring
// buffer and logs requests slower than its threshold.
type PerformanceMonitor struct {
	mu      sync.RWMutex
	samples []RequestSample
	next    int
	full    bool

	slowThreshold time.Duration
	logger        zerolog.Logger
}

// NewPerformanceMonitor creates a monitor holding up to capacity samples.
func NewPerformanceMonitor(capacity int, logger zerolog.Logger) *PerformanceMonitor {
	if capacity < 1 {
		capacity = 1
	}
	return &PerformanceMonitor{
		samples:       make([]RequestSample, capacity),
		slowThreshold: DefaultSlowThreshold,
		logger:        logger.With().Str("component", "performance").Logger(),
	}
}

// SetSlowThreshold changes the slow request threshold. Zero disables slow
// request logging.
func (pm *PerformanceMonitor) SetSlowThreshold(d time.Duration) {
	pm.mu.Lock()
	pm.slowThreshold = d
	pm.mu.Unlock()
}

// Record adds a sample, overwriting the oldest once the buffer is full.
func (pm *PerformanceMonitor) Record(s RequestSample) {
	pm.mu.Lock()
	pm.samples[pm.next] = s
	pm.next = (pm.next + 1) % len(pm.samples)
	if pm.next == 0 {
		pm.full = true
	}
	threshold := pm.slowThreshold
	pm.mu.Unlock()

	if threshold > 0 && s.Duration > threshold {
		pm.logger.Warn().
			Str("method", s.Method).
			Str("route", s.Route).
			Dur("duration", s.Duration).
			Dur("threshold", threshold).
			Msg("Slow request detected")
	}
}

// window returns the buffered samples, oldest first. Callers hold mu.
func (pm *PerformanceMonitor) window() []RequestSample {
	if !pm.full {
		return slices.Clone(pm.samples[:pm.next])
	}
	out := make([]RequestSample, 0, len(pm.samples))
	out = append(out, pm.samples[pm.next:]...)
	return append(out, pm.samples[:pm.next]...)
}

// Recent returns up to n of the most recent samples, newest last.
func (pm *PerformanceMonitor) Recent(n int) []RequestSample {
	pm.mu.RLock()
	all := pm.window()
	pm.mu.RUnlock()

	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

// Stats aggregates the buffered samples per method and route, busiest
// endpoint first.
func (pm *PerformanceMonitor) Stats() []EndpointStats {
	pm.mu.RLock()
	all := pm.window()
	pm.mu.RUnlock()

	type bucket struct {
		durations []time.Duration
		errors    int64
	}
	buckets := make(map[string]*bucket)
	for _, s := range all {
		key := s.Method + " " + s.Route
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.durations = append(b.durations, s.Duration)
		if s.StatusCode >= http.StatusInternalServerError {
			b.errors++
		}
	}

	stats := make([]EndpointStats, 0, len(buckets))
	for endpoint, b := range buckets {
		slices.Sort(b.durations)
		var sum time.Duration
		for _, d := range b.durations {
			sum += d
		}
		stats = append(stats, EndpointStats{
			Endpoint:     endpoint,
			RequestCount: int64(len(b.durations)),
			ErrorCount:   b.errors,
			AvgMS:        millis(sum) / float64(len(b.durations)),
			P50MS:        millis(percentile(b.durations, 0.50)),
			P95MS:        millis(percentile(b.durations, 0.95)),
			P99MS:        millis(percentile(b.durations, 0.99)),
			MaxMS:        millis(b.durations[len(b.durations)-1]),
		})
	}

	slices.SortFunc(stats, func(a, b EndpointStats) int {
		if a.RequestCount != b.RequestCount {
			if a.RequestCount > b.RequestCount {
				return -1
			}
			return 1
		}
		if a.Endpoint < b.Endpoint {
			return -1
		}
		if a.Endpoint > b.Endpoint {
			return 1
		}
		return 0
	})
	return stats
}

// Middleware records one sample per request.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		pm.Record(RequestSample{
			Route:      RoutePattern(r),
			Method:     r.Method,
			Duration:   time.Since(start),
			StatusCode: wrapper.statusCode,
			Timestamp:  start,
		})
	})
}

// percentile picks the nearest-rank value from sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
