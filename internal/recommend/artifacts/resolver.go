// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/storage"
)

// Resolver maps a manifest entry to a readable local file.
type Resolver interface {
	Resolve(ctx context.Context, e Entry) (string, error)
}

// LocalResolver finds artifacts below a root directory.
type LocalResolver struct {
	Root string
}

// Resolve returns the file for e, or NotFound when it does not exist.
func (r LocalResolver) Resolve(ctx context.Context, e Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := storage.Join(r.Root, e.Path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", recommend.NotFoundf("artifact %s at %s", e.Name, p)
		}
		return "", fmt.Errorf("stat artifact %s: %w", e.Name, err)
	}
	if info.IsDir() {
		return "", recommend.Invalidf("artifact %s at %s is a directory", e.Name, p)
	}
	return p, nil
}

// Chain tries resolvers in order. A NotFound from one resolver falls through
// to the next; any other error stops the chain.
type Chain []Resolver

// Resolve returns the first path found.
func (c Chain) Resolve(ctx context.Context, e Entry) (string, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		p, err := r.Resolve(ctx, e)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, recommend.ErrNotFound) {
			return "", err
		}
	}
	return "", recommend.NotFoundf("artifact %s (%s) is neither local nor remote", e.Name, e.Path)
}
