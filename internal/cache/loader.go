// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// LoadFunc computes the value of a key missing from the cache.
type LoadFunc[V any] func(ctx context.Context, key string) (V, error)

// Loader fills an LRU on misses. Concurrent misses of the same key share
// one load; failed loads are not cached.
//
// The shared load runs under the context of the caller that started it, so
// a caller whose context is canceled may fail the others waiting on it.
type Loader[V any] struct {
	lru   *LRU[V]
	load  LoadFunc[V]
	group singleflight.Group
}

// NewLoader wraps lru with load.
func NewLoader[V any](lru *LRU[V], load LoadFunc[V]) *Loader[V] {
	return &Loader[V]{lru: lru, load: load}
}

// Get returns the value of key, loading it on a miss. hit reports whether
// the value was already cached.
func (l *Loader[V]) Get(ctx context.Context, key string) (v V, hit bool, err error) {
	if v, ok := l.lru.Get(key); ok {
		return v, true, nil
	}
	res, err, _ := l.group.Do(key, func() (interface{}, error) {
		v, err := l.load(ctx, key)
		if err != nil {
			return nil, err
		}
		l.lru.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

// Len returns the number of cached values.
func (l *Loader[V]) Len() int {
	return l.lru.Len()
}
