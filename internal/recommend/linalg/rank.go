// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package linalg

import (
	"container/heap"
	"math"

	"github.com/tomtom215/mediarec/internal/recommend"
)

// TopN returns the n best scores in ranking order: score descending, index
// ascending. Entries that are -Inf or NaN are never returned, which is how
// callers mask items.
func TopN(scores []float64, n int) []recommend.ScoreEntry {
	if n <= 0 {
		return nil
	}
	h := make(worstFirst, 0, min(n, len(scores))+1)
	for i, s := range scores {
		push(&h, recommend.ScoreEntry{Index: i, Score: s}, n)
	}
	return drain(h)
}

// TopNSparse is TopN over a sparse score map.
func TopNSparse(scores map[int]float64, n int) []recommend.ScoreEntry {
	if n <= 0 {
		return nil
	}
	h := make(worstFirst, 0, min(n, len(scores))+1)
	for i, s := range scores {
		push(&h, recommend.ScoreEntry{Index: i, Score: s}, n)
	}
	return drain(h)
}

func push(h *worstFirst, e recommend.ScoreEntry, n int) {
	if math.IsNaN(e.Score) || math.IsInf(e.Score, -1) {
		return
	}
	if h.Len() < n {
		heap.Push(h, e)
		return
	}
	// Replace the current worst only when e ranks strictly better.
	if recommend.CompareScores(e, (*h)[0]) < 0 {
		(*h)[0] = e
		heap.Fix(h, 0)
	}
}

func drain(h worstFirst) []recommend.ScoreEntry {
	out := make([]recommend.ScoreEntry, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(recommend.ScoreEntry)
	}
	return out
}

// worstFirst is a heap whose root is the lowest-ranked entry.
type worstFirst []recommend.ScoreEntry

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return recommend.CompareScores(h[i], h[j]) > 0 }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x any) { *h = append(*h, x.(recommend.ScoreEntry)) }

func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
