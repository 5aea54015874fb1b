// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package models

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/mediarec/internal/cache"
	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
	"github.com/tomtom215/mediarec/internal/recommend/graph"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// ContentOptions configures the query cache of a Content model.
type ContentOptions struct {
	// CacheSize bounds the number of memoized query vectors.
	// Default: 1024
	CacheSize int

	// CacheTTL is how long a memoized query vector is kept.
	// Default: 30m
	CacheTTL time.Duration
}

// Content recommends by content similarity: precomputed neighbors for
// catalog items, a scan of the item embeddings for free text.
type Content struct {
	graph   graph.Graph
	emb     *linalg.Dense
	enc     encoder.Encoder
	queries *cache.Loader[[]float32]
}

var _ recommend.ContentRecommender = (*Content)(nil)

// NewContent checks that the graph, embeddings and encoder describe the same
// items and space.
func NewContent(g graph.Graph, emb *linalg.Dense, enc encoder.Encoder, opts ContentOptions) (*Content, error) {
	if emb == nil || enc == nil {
		return nil, recommend.Invalidf("content model needs embeddings and an encoder")
	}
	if g.Len() != emb.Rows {
		return nil, recommend.Invalidf("content graph has %d items, embeddings have %d", g.Len(), emb.Rows)
	}
	if enc.Dim() != emb.Cols {
		return nil, recommend.Invalidf("encoder dimension %d does not match embedding dimension %d", enc.Dim(), emb.Cols)
	}
	return &Content{
		graph:   g,
		emb:     emb,
		enc:     enc,
		queries: cache.NewLoader(cache.NewLRU[[]float32](opts.CacheSize, opts.CacheTTL), enc.Encode),
	}, nil
}

// Recommend returns up to topN content neighbors of index, best first.
func (m *Content) Recommend(index, topN int) ([]recommend.ScoreEntry, error) {
	return prefix(m.graph, index, topN)
}

// RecommendFromText encodes text and returns the topN items whose
// embeddings have the highest dot product with it.
func (m *Content) RecommendFromText(ctx context.Context, text string, topN int) ([]recommend.ScoreEntry, error) {
	if topN <= 0 {
		return nil, recommend.Invalidf("top_n must be positive, got %d", topN)
	}
	key := strings.Join(strings.Fields(text), " ")
	if key == "" {
		return nil, recommend.Invalidf("text is empty")
	}

	q, hit, err := m.queries.Get(ctx, key)
	if hit {
		metrics.QueryCacheRequests.WithLabelValues("hit").Inc()
	} else {
		metrics.QueryCacheRequests.WithLabelValues("miss").Inc()
	}
	if err != nil {
		return nil, err
	}

	scores, err := m.emb.MulVec(q)
	if err != nil {
		return nil, err
	}
	return linalg.TopN(scores, topN), nil
}
