// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package config

import (
	"time"

	"github.com/tomtom215/mediarec/internal/recommend/artifacts"
	"github.com/tomtom215/mediarec/internal/recommend"
)

// Config holds all server configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Configuration Categories:
//
//  1. Serving:
//     - Server: HTTP listener and timeouts
//     - Recommend: Served variants and engine defaults
//     - Encoder: Remote sentence encoder for sbert text queries
//
//  2. Artifacts:
//     - Artifacts: Local directory, remote store, cache and fetch limits
//
//  3. API & Security:
//     - Security: CORS and rate limiting
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
//  5. Offline:
//     - Build: Defaults for the artifact builder
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Encoder   EncoderConfig   `koanf:"encoder"`
	Recommend RecommendConfig `koanf:"recommend"`
	Security  SecurityConfig  `koanf:"security"`
	Build     BuildConfig     `koanf:"build"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"gte=1,lte=65535"`

	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"gt=0"`

	// RequestTimeout bounds a single recommendation request.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`

	// ShutdownTimeout bounds graceful shutdown of the listener.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// Environment is "development" or "production". Production refuses a
	// wildcard CORS origin.
	Environment string `koanf:"environment" validate:"oneof=development dev production prod"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// ArtifactsConfig holds where artifacts come from and how they are fetched.
type ArtifactsConfig struct {
	// Dir is the local artifact root with one subdirectory per medium.
	Dir string `koanf:"dir" validate:"required"`

	// RemoteURL is the base URL of the remote artifact store. Empty means
	// local artifacts only.
	RemoteURL string `koanf:"remote_url"`

	// CacheDir holds downloaded blobs and their badger index.
	CacheDir string `koanf:"cache_dir"`

	FetchTimeout  time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	RatePerSecond float64       `koanf:"rate_per_second" validate:"gt=0"`
	Burst         int           `koanf:"burst" validate:"gte=1"`

	BreakerMinRequests  uint32        `koanf:"breaker_min_requests" validate:"gte=1"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" validate:"gt=0"`

	// WarmupTimeout bounds one warmup attempt of one medium.
	WarmupTimeout time.Duration `koanf:"warmup_timeout" validate:"gt=0"`
}

// EncoderConfig configures the remote sentence encoder used to embed free
// text for sbert variants. Model and dimension come from the encoder
// artifact.
type EncoderConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// RecommendConfig holds the served variants and engine defaults.
type RecommendConfig struct {
	Media   []string `koanf:"media" validate:"required,min=1,dive,medium"`
	Methods []string `koanf:"methods" validate:"required,min=1,dive,method"`

	Alpha         float64       `koanf:"alpha" validate:"gte=0,lte=1"`
	Beta          float64       `koanf:"beta" validate:"gte=0,lte=1"`
	DefaultTopN   int           `koanf:"default_top_n" validate:"gte=1"`
	MaxTopN       int           `koanf:"max_top_n" validate:"gte=1"`
	KSimilarUsers int           `koanf:"k_similar_users" validate:"gte=1"`
	TextCacheSize int           `koanf:"text_cache_size" validate:"gte=0"`
	TextCacheTTL  time.Duration `koanf:"text_cache_ttl"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// BuildConfig holds defaults for the offline builder. Command-line flags
// override them.
type BuildConfig struct {
	DataDir         string `koanf:"data_dir"`
	K               int    `koanf:"k" validate:"gte=1"`
	BatchSize       int    `koanf:"batch_size" validate:"gte=1"`
	Workers         int    `koanf:"workers" validate:"gte=0"`
	TFIDFComponents int    `koanf:"tfidf_components" validate:"gte=1"`
	TFIDFFeatures   int    `koanf:"tfidf_features" validate:"gte=1"`
	EncodeBatch     int    `koanf:"encode_batch" validate:"gte=1"`

	// SBERTModel is the model name sent to ENCODER_URL when embedding the
	// catalog for the sbert method.
	SBERTModel string `koanf:"sbert_model"`

	// UniqueTitles fails the build when two items share a normalized
	// title instead of resolving lookups to the first.
	UniqueTitles bool `koanf:"unique_titles"`
}

// EngineConfig converts the recommend section to the engine configuration.
func (c *Config) EngineConfig() *recommend.Config {
	return &recommend.Config{
		Alpha:         c.Recommend.Alpha,
		Beta:          c.Recommend.Beta,
		DefaultTopN:   c.Recommend.DefaultTopN,
		MaxTopN:       c.Recommend.MaxTopN,
		KSimilarUsers: c.Recommend.KSimilarUsers,
		TextCacheSize: c.Recommend.TextCacheSize,
		TextCacheTTL:  c.Recommend.TextCacheTTL,
	}
}

// Variants returns every (medium, method) pair to serve. Validate has
// already rejected unknown names.
func (c *Config) Variants() []recommend.Variant {
	out := make([]recommend.Variant, 0, len(c.Recommend.Media)*len(c.Recommend.Methods))
	for _, m := range c.Media() {
		for _, s := range c.Recommend.Methods {
			method, err := recommend.ParseMethod(s)
			if err != nil {
				continue
			}
			out = append(out, recommend.Variant{Medium: m, Method: method})
		}
	}
	return out
}

// Media returns the configured media.
func (c *Config) Media() []recommend.Medium {
	out := make([]recommend.Medium, 0, len(c.Recommend.Media))
	for _, s := range c.Recommend.Media {
		if m, err := recommend.ParseMedium(s); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// RemoteConfig returns the remote resolver settings, or nil when no remote
// store is configured.
func (c *Config) RemoteConfig() *artifacts.RemoteConfig {
	if c.Artifacts.RemoteURL == "" {
		return nil
	}
	return &artifacts.RemoteConfig{
		BaseURL:             c.Artifacts.RemoteURL,
		Timeout:             c.Artifacts.FetchTimeout,
		RatePerSecond:       c.Artifacts.RatePerSecond,
		Burst:               c.Artifacts.Burst,
		BreakerMinRequests:  c.Artifacts.BreakerMinRequests,
		BreakerFailureRatio: c.Artifacts.BreakerFailureRatio,
		BreakerTimeout:      c.Artifacts.BreakerTimeout,
	}
}
