// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package services provides suture.Service wrappers for server components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve pattern and implements fmt.Stringer for the supervisor event log.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server, converting ListenAndServe to Serve
  - Graceful Shutdown with a configurable timeout on cancellation

Artifact Warmup (WarmupService):
  - Loads one medium's artifacts with a per-attempt timeout
  - Registers the medium's variants with the engine once loaded
  - Returns failures to the supervisor, which retries with backoff
  - Idles after success so the supervisor does not restart it
*/
package services
