// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package recommend

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every recommendation package. Errors returned by
// the core wrap exactly one of these so callers can branch with errors.Is.
var (
	// ErrNotFound reports an unknown title, index, user or artifact.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports caller input that cannot be served: empty or
	// unresolvable ratings, non-positive K, malformed shapes.
	ErrValidation = errors.New("validation failed")

	// ErrNotReady reports access to artifacts before warmup completed.
	ErrNotReady = errors.New("not ready")
)

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Invalidf returns an error wrapping ErrValidation.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// NotReadyf returns an error wrapping ErrNotReady.
func NotReadyf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotReady)
}

// IsCallerError reports whether err is a NotFound or Validation error, the
// two kinds that are surfaced to callers verbatim.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation)
}
