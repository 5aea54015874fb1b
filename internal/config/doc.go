// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package config provides centralized configuration management for Mediarec.

Configuration is layered with Koanf v2. Built-in defaults load first, then
an optional YAML file, then environment variables. Later layers win.

# Configuration File

The file is taken from CONFIG_PATH when that file exists, otherwise from the
first of config.yaml, config.yml, /etc/mediarec/config.yaml and
/etc/mediarec/config.yml that exists. Keys follow the koanf struct tags:

	server:
	  port: 8000
	artifacts:
	  dir: /data/artifacts
	  remote_url: https://blobs.example.com/mediarec
	recommend:
	  media: [movies, books]
	  methods: [tfidf, sbert]
	  alpha: 0.5
	  beta: 0.3

# Environment Variables

Only mapped variables are read; anything else in the environment is ignored.

Server:
  - HTTP_HOST, HTTP_PORT: Listener (default: 0.0.0.0:8000)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
  - REQUEST_TIMEOUT: Per-request budget (default: 20s)
  - SHUTDOWN_TIMEOUT: Graceful shutdown budget (default: 15s)
  - ENVIRONMENT: development or production (default: development)

Artifacts:
  - ARTIFACTS_DIR: Local artifact root (default: /data/artifacts)
  - ARTIFACTS_REMOTE_URL: Remote blob store base URL (default: none)
  - ARTIFACTS_CACHE_DIR: Blob cache for remote downloads (default: /data/cache)
  - ARTIFACTS_FETCH_TIMEOUT, ARTIFACTS_RATE_PER_SECOND, ARTIFACTS_BURST
  - ARTIFACTS_BREAKER_MIN_REQUESTS, ARTIFACTS_BREAKER_FAILURE_RATIO, ARTIFACTS_BREAKER_TIMEOUT
  - WARMUP_TIMEOUT: Budget for one warmup attempt (default: 10m)

Encoder:
  - ENCODER_URL: OpenAI-compatible embeddings endpoint for sbert text queries
  - ENCODER_API_KEY: Bearer token for the endpoint
  - ENCODER_TIMEOUT: Per-call timeout (default: 10s)

Recommendation:
  - RECOMMEND_MEDIA: Comma-separated media (default: movies,books)
  - RECOMMEND_METHODS: Comma-separated methods (default: tfidf,sbert)
  - RECOMMEND_ALPHA, RECOMMEND_BETA: Hybrid weights (default: 0.5, 0.3)
  - RECOMMEND_DEFAULT_TOP_N, RECOMMEND_MAX_TOP_N (default: 10, 100)
  - RECOMMEND_K_SIMILAR_USERS (default: 50)
  - RECOMMEND_TEXT_CACHE_SIZE, RECOMMEND_TEXT_CACHE_TTL (default: 1024, 30m)

Security:
  - CORS_ORIGINS: Comma-separated origins (default: *; refused in production)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW (default: 100 per 1m)
  - DISABLE_RATE_LIMIT (default: false)

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: Include caller location (default: false)

Builder:
  - BUILD_DATA_DIR, BUILD_K, BUILD_BATCH_SIZE, BUILD_WORKERS
  - BUILD_TFIDF_COMPONENTS, BUILD_TFIDF_FEATURES, BUILD_ENCODE_BATCH
  - BUILD_SBERT_MODEL: Model name for catalog embeddings (default: all-MiniLM-L6-v2)
  - BUILD_UNIQUE_TITLES

# Validation

LoadWithKoanf validates the merged configuration before returning it. Field
constraints come from validate struct tags checked by the validation
package; cross-field rules (weights summing to at most one, remote store
needing a cache directory, no wildcard CORS in production) are checked by
Validate. Field errors unwrap to recommend.ErrValidation.

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
	engine := recommend.NewEngine(cfg.EngineConfig(), logger)
	for _, v := range cfg.Variants() {
	    // build and register sources for v
	}
*/
package config
