// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package supervisor provides process supervision for the server using suture v4.

# Overview

Services are organized into two layers:

	RootSupervisor ("mediarec")
	├── ArtifactsSupervisor ("artifacts-layer")
	│   ├── WarmupService (movies)
	│   └── WarmupService (books)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A warmup service that fails (remote store down, checksum mismatch) is
restarted with suture's backoff. The HTTP server starts immediately and
answers 503 for variants that are not registered yet.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
	    FailureBackoff:  15 * time.Second,
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddArtifactService(services.NewWarmupService(store, register, cfg.Artifacts.WarmupTimeout, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))

	errCh := tree.ServeBackground(ctx)

# Logging

Supervisor events (service start, failure, backoff) are logged through the
sutureslog event hook, which writes to the slog logger passed in. In the
server that logger is bridged to zerolog.
*/
package supervisor
