// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package models implements the recommendation strategies over warmed-up
// artifacts: content similarity, item-item and user-user collaborative
// filtering, and their weighted hybrid.
//
// Every model is immutable after construction and safe for concurrent use.
package models

import (
	"slices"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/graph"
)

// prefix returns the first topN neighbors of index, copied so callers may
// keep the slice.
func prefix(g graph.Graph, index, topN int) ([]recommend.ScoreEntry, error) {
	if topN <= 0 {
		return nil, recommend.Invalidf("top_n must be positive, got %d", topN)
	}
	entry, err := g.Neighbors(index)
	if err != nil {
		return nil, err
	}
	n := min(topN, len(entry))
	return slices.Clone(entry[:n]), nil
}

// ItemCF serves precomputed item-item collaborative neighbors.
type ItemCF struct {
	graph graph.Graph
}

var _ recommend.NeighborRecommender = (*ItemCF)(nil)

// NewItemCF wraps an interaction-based neighbor graph.
func NewItemCF(g graph.Graph) (*ItemCF, error) {
	if g.Len() == 0 {
		return nil, recommend.Invalidf("item-CF graph is empty")
	}
	return &ItemCF{graph: g}, nil
}

// Recommend returns up to topN items most often co-rated with index, best
// first.
func (m *ItemCF) Recommend(index, topN int) ([]recommend.ScoreEntry, error) {
	return prefix(m.graph, index, topN)
}
