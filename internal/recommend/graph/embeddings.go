// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package graph

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
	"github.com/tomtom215/mediarec/internal/recommend/vectorindex"
)

// EmbeddingOptions configures BuildFromEmbeddings.
type EmbeddingOptions struct {
	// Workers is the number of concurrent query workers.
	// Default: GOMAXPROCS
	Workers int

	// Logger receives clamping warnings. The zero value discards.
	Logger zerolog.Logger

	// Progress, when set, is called after each finished chunk of rows.
	Progress func(items int)
}

const embeddingChunk = 512

// BuildFromEmbeddings builds a content neighbor graph. The rows are copied
// and unit-normalized, indexed by inner product, and every row is queried
// for k+1 neighbors with the self match dropped. The normalized index is
// returned alongside so it can be persisted.
func BuildFromEmbeddings(ctx context.Context, emb *linalg.Dense, k int, opts EmbeddingOptions) (Graph, *vectorindex.Flat, error) {
	if emb == nil {
		return nil, nil, recommend.Invalidf("embedding matrix is required")
	}
	if err := emb.Validate(); err != nil {
		return nil, nil, err
	}
	n := emb.Rows
	if n < 2 {
		return nil, nil, recommend.Invalidf("content graph needs at least 2 items, got %d", n)
	}
	if emb.Cols == 0 {
		return nil, nil, recommend.Invalidf("embeddings have zero dimensions")
	}
	k, err := clampK(k, n, opts.Logger, "content")
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	normalized := emb.Clone()
	normalized.NormalizeRows()
	index, err := vectorindex.NewFlat(normalized, vectorindex.MetricInnerProduct)
	if err != nil {
		return nil, nil, err
	}

	out := make(Graph, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(opts.Workers))

	for lo := 0; lo < n; lo += embeddingChunk {
		lo, hi := lo, min(lo+embeddingChunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				hits, err := index.Search(normalized.Row(i), k+1)
				if err != nil {
					return err
				}
				out[i] = dropSelf(i, hits, k)
			}
			if opts.Progress != nil {
				opts.Progress(hi - lo)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	metrics.GraphBuildDuration.WithLabelValues("content").Observe(time.Since(start).Seconds())
	opts.Logger.Info().
		Int("items", n).
		Int("k", k).
		Dur("duration", time.Since(start)).
		Msg("built content graph")
	return out, index, nil
}

// dropSelf removes item i from its own hits. When ties push i out of the
// result, the lowest-ranked extra hit is dropped instead.
func dropSelf(i int, hits []vectorindex.Hit, k int) []recommend.ScoreEntry {
	out := make([]recommend.ScoreEntry, 0, k)
	for _, h := range hits {
		if h.Index == i {
			continue
		}
		out = append(out, recommend.ScoreEntry{Index: h.Index, Score: h.Score})
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}
