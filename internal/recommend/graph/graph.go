// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package graph holds per-item neighbor lists and the offline builders that
// produce them from interaction or embedding matrices.
package graph

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/recommend"
)

// Graph maps an internal item index to its nearest other items, best first.
// Entries are sorted by score descending with ties by ascending index, hold
// at most K neighbors and never contain the item itself. A nil entry means
// the item has no neighbors.
type Graph [][]recommend.ScoreEntry

// Len returns the number of items covered by the graph.
func (g Graph) Len() int { return len(g) }

// Neighbors returns the entry of an item. Indices outside the graph are
// NotFound.
func (g Graph) Neighbors(index int) ([]recommend.ScoreEntry, error) {
	if index < 0 || index >= len(g) {
		return nil, recommend.NotFoundf("no neighbor entry for index %d", index)
	}
	return g[index], nil
}

// K returns the longest entry length.
func (g Graph) K() int {
	k := 0
	for _, e := range g {
		k = max(k, len(e))
	}
	return k
}

// Validate checks the structural invariants, typically after decoding.
func (g Graph) Validate() error {
	for i, entry := range g {
		for j, e := range entry {
			switch {
			case e.Index == i:
				return recommend.Invalidf("graph entry %d contains itself", i)
			case e.Index < 0 || e.Index >= len(g):
				return recommend.Invalidf("graph entry %d references index %d outside [0, %d)", i, e.Index, len(g))
			case j > 0 && recommend.CompareScores(entry[j-1], e) > 0:
				return recommend.Invalidf("graph entry %d is not sorted at position %d", i, j)
			}
		}
	}
	return nil
}

// clampK enforces 1 <= k <= n-1, warning when k is lowered.
func clampK(k, n int, logger zerolog.Logger, what string) (int, error) {
	if k <= 0 {
		return 0, recommend.Invalidf("k must be positive, got %d", k)
	}
	if k > n-1 {
		logger.Warn().
			Str("graph", what).
			Int("requested_k", k).
			Int("clamped_k", n-1).
			Msg("k exceeds number of items minus one, clamping")
		return n - 1, nil
	}
	return k, nil
}

func workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}
