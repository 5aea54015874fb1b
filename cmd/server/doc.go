// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package main is the entry point of the mediarec recommendation server.
//
// The server loads the artifacts written by mediarec-build for every
// configured medium, assembles the models of every configured method and
// serves content-based, collaborative and hybrid recommendations over a
// JSON HTTP API.
//
// # Startup
//
//  1. Configuration: defaults, config.yaml and environment (Koanf v2)
//  2. Logging: zerolog, with a slog bridge for the supervisor
//  3. Engine: an empty registry of variants
//  4. Artifacts: one store per medium, resolving blobs locally first and
//     then from the remote artifact store when one is configured
//  5. Warmup: one supervised service per medium that loads its artifacts
//     and registers its variants with the engine
//  6. HTTP server: the chi router, supervised next to the warmup services
//
// The HTTP server starts before warmup completes. Requests for a variant
// whose medium is still warming up get 503 and /api/v1/health/ready stays
// 503 until every configured variant is registered.
//
// # Configuration
//
// Sources, highest priority first:
//   - Environment variables (HTTP_PORT, ARTIFACTS_DIR, RECOMMEND_MEDIA, ...)
//   - Config file (config.yaml, or the path in CONFIG_PATH)
//   - Built-in defaults
//
// Changes to logging.level in the config file are applied without restart.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// in-flight requests within server.shutdown_timeout and warmups in progress
// are abandoned.
//
// # Example Usage
//
//	export ARTIFACTS_DIR=/data/artifacts
//	export RECOMMEND_MEDIA=movies,books
//	export RECOMMEND_METHODS=tfidf
//	./mediarec
//
// With sbert variants and a remote artifact store:
//
//	export RECOMMEND_METHODS=tfidf,sbert
//	export ENCODER_URL=http://encoder:8000
//	export ARTIFACTS_REMOTE_URL=https://artifacts.example.com/mediarec
//	export ARTIFACTS_CACHE_DIR=/var/cache/mediarec
//	./mediarec
package main
