// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mediarec/config.yaml",
	"/etc/mediarec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Artifacts: ArtifactsConfig{
			Dir:                 "/data/artifacts",
			RemoteURL:           "", // Local artifacts only
			CacheDir:            "/data/cache",
			FetchTimeout:        5 * time.Minute,
			RatePerSecond:       2,
			Burst:               4,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerTimeout:      2 * time.Minute,
			WarmupTimeout:       10 * time.Minute,
		},
		Encoder: EncoderConfig{
			URL:     "", // sbert text queries report not ready without it
			APIKey:  "",
			Timeout: 10 * time.Second,
		},
		Recommend: RecommendConfig{
			Media:         []string{"movies", "books"},
			Methods:       []string{"tfidf", "sbert"},
			Alpha:         0.5,
			Beta:          0.3,
			DefaultTopN:   10,
			MaxTopN:       100,
			KSimilarUsers: 50,
			TextCacheSize: 1024,
			TextCacheTTL:  30 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Build: BuildConfig{
			DataDir:         "data",
			K:               100,
			BatchSize:       256,
			Workers:         0, // 0 = use runtime.NumCPU()
			TFIDFComponents: 384,
			TFIDFFeatures:   50000,
			EncodeBatch:     64,
			SBERTModel:      "all-MiniLM-L6-v2",
			UniqueTitles:    false,
		},
	}
}

// Defaults returns the built-in configuration. The builder uses it as the
// base for its flags.
func Defaults() *Config {
	return defaultConfig()
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// ARTIFACTS_DIR -> artifacts.dir
	// RECOMMEND_ALPHA -> recommend.alpha
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFilePath returns the config file LoadWithKoanf would read, or ""
// when there is none.
func ConfigFilePath() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"recommend.media",
	"recommend.methods",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server mappings
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"request_timeout":       "server.request_timeout",
	"shutdown_timeout":      "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Artifact mappings
	"artifacts_dir":                   "artifacts.dir",
	"artifacts_remote_url":            "artifacts.remote_url",
	"artifacts_cache_dir":             "artifacts.cache_dir",
	"artifacts_fetch_timeout":         "artifacts.fetch_timeout",
	"artifacts_rate_per_second":       "artifacts.rate_per_second",
	"artifacts_burst":                 "artifacts.burst",
	"artifacts_breaker_min_requests":  "artifacts.breaker_min_requests",
	"artifacts_breaker_failure_ratio": "artifacts.breaker_failure_ratio",
	"artifacts_breaker_timeout":       "artifacts.breaker_timeout",
	"warmup_timeout":                  "artifacts.warmup_timeout",

	// Encoder mappings
	"encoder_url":     "encoder.url",
	"encoder_api_key": "encoder.api_key",
	"encoder_timeout": "encoder.timeout",

	// Recommendation mappings
	"recommend_media":           "recommend.media",
	"recommend_methods":         "recommend.methods",
	"recommend_alpha":           "recommend.alpha",
	"recommend_beta":            "recommend.beta",
	"recommend_default_top_n":   "recommend.default_top_n",
	"recommend_max_top_n":       "recommend.max_top_n",
	"recommend_k_similar_users": "recommend.k_similar_users",
	"recommend_text_cache_size": "recommend.text_cache_size",
	"recommend_text_cache_ttl":  "recommend.text_cache_ttl",

	// Security mappings
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Builder mappings
	"build_data_dir":         "build.data_dir",
	"build_k":                "build.k",
	"build_batch_size":       "build.batch_size",
	"build_workers":          "build.workers",
	"build_tfidf_components": "build.tfidf_components",
	"build_tfidf_features":   "build.tfidf_features",
	"build_encode_batch":     "build.encode_batch",
	"build_sbert_model":      "build.sbert_model",
	"build_unique_titles":    "build.unique_titles",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - ARTIFACTS_REMOTE_URL -> artifacts.remote_url
//   - RECOMMEND_MEDIA -> recommend.media
//   - DISABLE_RATE_LIMIT -> security.rate_limit_disabled
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables never
	// reach the config.
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller is responsible for synchronizing access to anything the callback
// replaces.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
