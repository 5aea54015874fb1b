// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package graph

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// ItemCFOptions configures BuildItemCF.
type ItemCFOptions struct {
	// K is the number of neighbors kept per item.
	K int

	// BatchSize is the number of item columns scored per batch. It bounds
	// peak memory to one scratch row per worker plus BatchSize result lists.
	// Default: 1000
	BatchSize int

	// Workers is the number of batches processed concurrently.
	// Default: GOMAXPROCS
	Workers int

	// Logger receives clamping warnings and progress. The zero value discards.
	Logger zerolog.Logger

	// Progress, when set, is called after each finished batch with the
	// number of items it covered.
	Progress func(items int)
}

// BuildItemCF computes, for every item, its K most cosine-similar items over
// the columns of a users x items interaction matrix.
func BuildItemCF(ctx context.Context, interactions *linalg.CSR, opts ItemCFOptions) (Graph, error) {
	if interactions == nil {
		return nil, recommend.Invalidf("interaction matrix is required")
	}
	if err := interactions.Validate(); err != nil {
		return nil, err
	}
	n := interactions.Cols
	if n < 2 {
		return nil, recommend.Invalidf("item-CF graph needs at least 2 items, got %d", n)
	}
	k, err := clampK(opts.K, n, opts.Logger, "item_cf")
	if err != nil {
		return nil, err
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = 1000
	}

	start := time.Now()
	byItem := interactions.Transpose()
	norms := byItem.RowNorms()

	out := make(Graph, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(opts.Workers))

	for lo := 0; lo < n; lo += batch {
		lo, hi := lo, min(lo+batch, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scratch := make([]float64, n)
			for i := lo; i < hi; i++ {
				out[i] = itemNeighbors(i, k, interactions, byItem, norms, scratch)
			}
			if opts.Progress != nil {
				opts.Progress(hi - lo)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.GraphBuildDuration.WithLabelValues("item_cf").Observe(time.Since(start).Seconds())
	opts.Logger.Info().
		Int("items", n).
		Int("k", k).
		Dur("duration", time.Since(start)).
		Msg("built item-CF graph")
	return out, nil
}

// itemNeighbors scores item i against every item through the users who
// rated it, then keeps the top k excluding i. scratch is reset on return.
func itemNeighbors(i, k int, byUser, byItem *linalg.CSR, norms, scratch []float64) []recommend.ScoreEntry {
	users, ratings := byItem.Row(i)
	for u, rui := range ratings {
		items, vals := byUser.Row(users[u])
		for j, ruj := range vals {
			scratch[items[j]] += float64(rui) * float64(ruj)
		}
	}

	for j := range scratch {
		if norms[i] == 0 || norms[j] == 0 {
			scratch[j] = 0
			continue
		}
		scratch[j] /= norms[i] * norms[j]
	}
	scratch[i] = math.Inf(-1)

	top := linalg.TopN(scratch, k)
	clear(scratch)
	return top
}
