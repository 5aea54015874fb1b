// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Command mediarec-build builds recommendation artifacts offline.
package main

import "github.com/tomtom215/mediarec/internal/cli"

func main() {
	cli.Execute()
}
