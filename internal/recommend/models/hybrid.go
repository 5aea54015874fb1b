// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package models

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// Hybrid blends content, item-CF and user-CF scores with weights alpha,
// beta and gamma = 1 - alpha - beta.
//
// The sources are not on a common scale: content and item-CF scores are
// cosine similarities in [-1, 1], while user-CF scores are similarity
// weighted sums of ratings and routinely exceed 1. The blend is applied to
// the raw scores, so gamma weighs more than its nominal share whenever user
// scores are large. Callers tune the weights with that in mind.
type Hybrid struct {
	content recommend.NeighborRecommender
	itemCF  recommend.NeighborRecommender
	userCF  recommend.UserRecommender

	alpha, beta, gamma float64
	logger             zerolog.Logger
}

var _ recommend.HybridRecommender = (*Hybrid)(nil)

// NewHybrid combines three models. The weights are expected to satisfy
// recommend.ValidateWeights; the engine checks them before calling.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHybrid(content, itemCF recommend.NeighborRecommender, userCF recommend.UserRecommender, alpha, beta float64, logger zerolog.Logger) *Hybrid {
	return &Hybrid{
		content: content,
		itemCF:  itemCF,
		userCF:  userCF,
		alpha:   alpha,
		beta:    beta,
		gamma:   1 - alpha - beta,
		logger:  logger,
	}
}

// Weights returns alpha, beta and gamma.
func (h *Hybrid) Weights() (alpha, beta, gamma float64) {
	return h.alpha, h.beta, h.gamma
}

// Recommend fetches up to topN candidates from each source, combines their
// weighted scores (a source that did not return an item contributes 0) and
// returns the topN best. A source that fails with NotFound or a validation
// error contributes nothing; any other error fails the request. Without
// ratings the user-CF source is skipped.
func (h *Hybrid) Recommend(ctx context.Context, index int, ratings map[int]float64, kSimilarUsers, topN int) ([]recommend.ScoreEntry, error) {
	if topN <= 0 {
		return nil, recommend.Invalidf("top_n must be positive, got %d", topN)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	combined := make(map[int]float64)
	blend := func(source string, weight float64, entries []recommend.ScoreEntry, err error) error {
		if err != nil {
			if errors.Is(err, recommend.ErrNotFound) || errors.Is(err, recommend.ErrValidation) {
				h.logger.Debug().Err(err).Str("source", source).Int("index", index).Msg("hybrid source contributed nothing")
				return nil
			}
			return err
		}
		for _, e := range entries {
			combined[e.Index] += weight * e.Score
		}
		return nil
	}

	content, err := h.content.Recommend(index, topN)
	if err = blend("content", h.alpha, content, err); err != nil {
		return nil, err
	}
	itemCF, err := h.itemCF.Recommend(index, topN)
	if err = blend("item_cf", h.beta, itemCF, err); err != nil {
		return nil, err
	}
	if len(ratings) > 0 {
		userCF, err := h.userCF.RecommendFromRatings(ratings, topN, kSimilarUsers)
		if err = blend("user_cf", h.gamma, userCF, err); err != nil {
			return nil, err
		}
	}

	return linalg.TopNSparse(combined, topN), nil
}
