// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package models

import "time"

// HealthStatus is the payload of /api/v1/health.
type HealthStatus struct {
	Status    string          `json:"status"` // "ready", "warming" or "degraded"
	Version   string          `json:"version,omitempty"`
	Uptime    float64         `json:"uptime_seconds"`
	Ready     bool            `json:"ready"`
	Variants  []VariantStatus `json:"variants"`
	Timestamp time.Time       `json:"timestamp"`
}

// VariantStatus reports whether one configured variant is being served.
type VariantStatus struct {
	Medium   string `json:"medium"`
	Method   string `json:"method"`
	Ready    bool   `json:"ready"`
	Attempts int    `json:"warmup_attempts,omitempty"`
	Error    string `json:"last_error,omitempty"`
}
