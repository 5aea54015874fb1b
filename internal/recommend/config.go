// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package recommend

import (
	"fmt"
	"time"
)

// Config contains the serving parameters of the recommendation engine.
type Config struct {
	// Alpha is the default hybrid weight of content similarity.
	// Default: 0.5
	Alpha float64 `json:"alpha"`

	// Beta is the default hybrid weight of item-item collaborative filtering.
	// The user-CF weight is 1 - Alpha - Beta.
	// Default: 0.3
	Beta float64 `json:"beta"`

	// DefaultTopN is used when a request does not specify a result count.
	// Default: 10
	DefaultTopN int `json:"default_top_n"`

	// MaxTopN caps the result count of a single request.
	// Default: 100
	MaxTopN int `json:"max_top_n"`

	// KSimilarUsers is the default neighborhood size for user-CF.
	// Default: 50
	KSimilarUsers int `json:"k_similar_users"`

	// TextCacheSize is the number of encoded free-text queries kept per variant.
	// Default: 1024
	TextCacheSize int `json:"text_cache_size"`

	// TextCacheTTL bounds how long an encoded query stays cached.
	// Default: 30m
	TextCacheTTL time.Duration `json:"text_cache_ttl"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		Alpha:         0.5,
		Beta:          0.3,
		DefaultTopN:   10,
		MaxTopN:       100,
		KSimilarUsers: 50,
		TextCacheSize: 1024,
		TextCacheTTL:  30 * time.Minute,
	}
}

// Gamma returns the user-CF weight implied by Alpha and Beta.
func (c *Config) Gamma() float64 {
	return 1 - c.Alpha - c.Beta
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := ValidateWeights(c.Alpha, c.Beta); err != nil {
		return err
	}
	if c.DefaultTopN < 1 {
		return fmt.Errorf("default_top_n must be positive, got %d", c.DefaultTopN)
	}
	if c.MaxTopN < c.DefaultTopN {
		return fmt.Errorf("max_top_n must be at least default_top_n (%d), got %d", c.DefaultTopN, c.MaxTopN)
	}
	if c.KSimilarUsers < 1 {
		return fmt.Errorf("k_similar_users must be positive, got %d", c.KSimilarUsers)
	}
	if c.TextCacheSize < 0 {
		return fmt.Errorf("text_cache_size must be non-negative, got %d", c.TextCacheSize)
	}
	return nil
}

// ValidateWeights enforces 0 <= alpha, 0 <= beta and alpha + beta <= 1.
// The hybrid model itself trusts its weights, so every caller that accepts
// weights from outside goes through here.
func ValidateWeights(alpha, beta float64) error {
	if alpha < 0 || alpha > 1 {
		return Invalidf("alpha must be in [0, 1], got %g", alpha)
	}
	if beta < 0 || beta > 1 {
		return Invalidf("beta must be in [0, 1], got %g", beta)
	}
	// Small tolerance so 0.7 + 0.3 is accepted.
	if alpha+beta > 1+1e-9 {
		return Invalidf("alpha + beta must be <= 1, got %g", alpha+beta)
	}
	return nil
}
