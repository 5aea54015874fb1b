// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package logging provides centralized zerolog-based structured logging for Mediarec.
//
// Both binaries, the recommendation server and the offline artifact builder,
// log through one global zerolog logger configured at startup. Packages that
// are reusable outside the binaries (the recommend tree) take an injected
// zerolog.Logger instead, and the binaries derive those from here with
// WithComponent.
//
// # Overview
//
// The package provides:
//   - JSON output for production and console output for terminals
//   - Request ID propagation through context.Context
//   - An slog.Handler backed by zerolog for Suture v4 (sutureslog)
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("addr", addr).Msg("Server listening")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Title not found")
//
//	engineLogger := logging.WithComponent("recommend")
//	engine, err := recommend.NewEngine(cfg, engineLogger)
//
// # Configuration
//
// The server reads logging settings from the logging section of its config
// file (LOG_LEVEL, LOG_FORMAT and LOG_CALLER in the environment). The
// builder overrides them with --log-level and --log-format and logs to
// stderr.
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Never log user ratings or free-text queries at info level; they are user
// data. Log counts and variants instead.
package logging
