// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/models"
	"github.com/tomtom215/mediarec/internal/recommend"
)

// Health status values.
const (
	healthReady    = "ready"
	healthWarming  = "warming"
	healthDegraded = "degraded"
)

// variantStatuses reports every configured variant in configuration order.
func (h *Handler) variantStatuses() ([]models.VariantStatus, bool) {
	registered := h.engine.Variants()
	all := true
	out := make([]models.VariantStatus, 0, len(h.variants))
	for _, v := range h.variants {
		st := models.VariantStatus{
			Medium: string(v.Medium),
			Method: string(v.Method),
			Ready:  slices.Contains(registered, v),
		}
		if w, ok := h.warmups[v.Medium]; ok && w != nil {
			st.Attempts = w.Attempts()
			st.Error = w.LastError()
		}
		all = all && st.Ready
		out = append(out, st)
	}
	return out, all
}

// Health handles GET /api/v1/health
//
// Status is "ready" when every configured variant is registered, "warming"
// while none failed yet, and "degraded" once a warmup attempt failed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	statuses, ready := h.variantStatuses()

	status := healthReady
	if !ready {
		status = healthWarming
		for _, st := range statuses {
			if !st.Ready && st.Error != "" {
				status = healthDegraded
				break
			}
		}
	}

	uptime := time.Since(h.startTime).Seconds()
	metrics.AppUptime.Set(uptime)

	respondSuccess(w, r, models.HealthStatus{
		Status:    status,
		Version:   h.version,
		Uptime:    uptime,
		Ready:     ready,
		Variants:  statuses,
		Timestamp: time.Now().UTC(),
	}, 0)
}

// HealthLive handles GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}, 0)
}

// HealthReady handles GET /api/v1/health/ready, answering 503 until every
// configured variant is registered.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	statuses, ready := h.variantStatuses()
	if !ready {
		respondErrorDetails(w, r, http.StatusServiceUnavailable, ErrCodeNotReady,
			"Recommendation models are still warming up",
			map[string]interface{}{"variants": statuses}, nil)
		return
	}
	respondSuccess(w, r, map[string]interface{}{"ready": true}, 0)
}

// variantsPayload is the data of GET /api/v1/variants.
type variantsPayload struct {
	Configured    []recommend.Variant `json:"configured"`
	Registered    []recommend.Variant `json:"registered"`
	DefaultMethod recommend.Method    `json:"default_method"`
	Defaults      *recommend.Config   `json:"defaults"`
}

// Variants handles GET /api/v1/variants
func (h *Handler) Variants(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, variantsPayload{
		Configured:    h.variants,
		Registered:    h.engine.Variants(),
		DefaultMethod: h.defaultMethod,
		Defaults:      h.engine.Config(),
	}, 0)
}

// EndpointStats handles GET /api/v1/stats/endpoints
func (h *Handler) EndpointStats(w http.ResponseWriter, r *http.Request) {
	if h.perf == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Performance monitoring is disabled", nil)
		return
	}
	respondSuccess(w, r, h.perf.Stats(), 0)
}
