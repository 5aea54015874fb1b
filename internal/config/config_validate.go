// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/mediarec/internal/logging"
	"github.com/tomtom215/mediarec/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateFields,
		c.validateLogging,
		c.validateArtifacts,
		c.validateEncoder,
		c.validateRecommend,
		c.validateSecurity,
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// validateFields applies the validate struct tags.
func (c *Config) validateFields() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
// Production mode is determined by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateArtifacts validates the artifact sources
func (c *Config) validateArtifacts() error {
	if c.Artifacts.RemoteURL == "" {
		return nil
	}
	if err := validateStoreURL(c.Artifacts.RemoteURL, "ARTIFACTS_REMOTE_URL"); err != nil {
		return fmt.Errorf("ARTIFACTS_REMOTE_URL is invalid: %w", err)
	}
	if c.Artifacts.CacheDir == "" {
		return fmt.Errorf("ARTIFACTS_CACHE_DIR is required when ARTIFACTS_REMOTE_URL is set")
	}
	return nil
}

// validateEncoder validates the remote encoder (only if configured)
func (c *Config) validateEncoder() error {
	if c.Encoder.URL == "" {
		if c.Encoder.APIKey != "" {
			return fmt.Errorf("ENCODER_API_KEY is set but ENCODER_URL is empty")
		}
		return nil
	}
	if err := validateHTTPURL(c.Encoder.URL, "ENCODER_URL"); err != nil {
		return fmt.Errorf("ENCODER_URL is invalid: %w", err)
	}
	if c.Encoder.APIKey != "" && containsPlaceholder(c.Encoder.APIKey) {
		return fmt.Errorf("ENCODER_API_KEY contains a placeholder value - set the real key")
	}
	return nil
}

// validateRecommend validates the engine defaults. The engine repeats these
// checks, but failing at load time names the environment variables.
func (c *Config) validateRecommend() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("RECOMMEND settings are invalid: %w", err)
	}
	if len(c.Variants()) == 0 {
		return fmt.Errorf("RECOMMEND_MEDIA and RECOMMEND_METHODS select no variants")
	}
	return nil
}

// validateSecurity validates CORS and rate limiting
func (c *Config) validateSecurity() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			if c.IsProduction() {
				return fmt.Errorf("CORS_ORIGINS must not contain * when ENVIRONMENT=production")
			}
			continue
		}
		if err := validateHTTPURL(origin, "CORS_ORIGINS"); err != nil {
			return fmt.Errorf("CORS_ORIGINS entry %q is invalid: %w", origin, err)
		}
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_API_KEY",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
