// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package models

import (
	"math"
	"slices"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
	"github.com/tomtom215/mediarec/internal/recommend/vectorindex"
)

// UserCF recommends the items rated by users whose embeddings are closest
// to a query user, weighting each neighbor's ratings by its similarity.
type UserCF struct {
	users        vectorindex.Index
	interactions *linalg.CSR
	itemEmb      *linalg.Dense
	userEmb      *linalg.Dense
}

var _ recommend.UserRecommender = (*UserCF)(nil)

// NewUserCF checks that the user index, the users x items interaction
// matrix and both embedding matrices agree on shape.
func NewUserCF(users vectorindex.Index, interactions *linalg.CSR, itemEmb, userEmb *linalg.Dense) (*UserCF, error) {
	switch {
	case users == nil || interactions == nil || itemEmb == nil || userEmb == nil:
		return nil, recommend.Invalidf("user-CF model needs a user index, interactions and embeddings")
	case interactions.Cols != itemEmb.Rows:
		return nil, recommend.Invalidf("interactions have %d items, item embeddings have %d", interactions.Cols, itemEmb.Rows)
	case interactions.Rows != userEmb.Rows:
		return nil, recommend.Invalidf("interactions have %d users, user embeddings have %d", interactions.Rows, userEmb.Rows)
	case users.Len() != userEmb.Rows:
		return nil, recommend.Invalidf("user index has %d vectors, user embeddings have %d", users.Len(), userEmb.Rows)
	case itemEmb.Cols != userEmb.Cols || users.Dim() != userEmb.Cols:
		return nil, recommend.Invalidf("embedding dimensions differ: items %d, users %d, index %d", itemEmb.Cols, userEmb.Cols, users.Dim())
	}
	return &UserCF{users: users, interactions: interactions, itemEmb: itemEmb, userEmb: userEmb}, nil
}

// RecommendExisting recommends for a user row of the interaction matrix,
// excluding the items that user already rated.
func (m *UserCF) RecommendExisting(userIndex, topN, kSimilarUsers int) ([]recommend.ScoreEntry, error) {
	if err := checkCounts(topN, kSimilarUsers); err != nil {
		return nil, err
	}
	if userIndex < 0 || userIndex >= m.userEmb.Rows {
		return nil, recommend.NotFoundf("user index %d", userIndex)
	}
	q := slices.Clone(m.userEmb.Row(userIndex))
	linalg.Normalize(q)
	rated, _ := m.interactions.Row(userIndex)
	return m.aggregate(q, rated, topN, kSimilarUsers)
}

// RecommendFromRatings recommends for a user described only by ratings
// (item index to rating). The rated items are never returned.
func (m *UserCF) RecommendFromRatings(ratings map[int]float64, topN, kSimilarUsers int) ([]recommend.ScoreEntry, error) {
	if err := checkCounts(topN, kSimilarUsers); err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, recommend.Invalidf("no ratings given")
	}

	rated := make([]int, 0, len(ratings))
	for idx := range ratings {
		if idx < 0 || idx >= m.itemEmb.Rows {
			return nil, recommend.Invalidf("rated item index %d outside [0, %d)", idx, m.itemEmb.Rows)
		}
		rated = append(rated, idx)
	}
	slices.Sort(rated)

	q := make([]float32, m.itemEmb.Cols)
	for _, idx := range rated {
		linalg.AddScaled(q, ratings[idx], m.itemEmb.Row(idx))
	}
	linalg.Normalize(q)
	return m.aggregate(q, rated, topN, kSimilarUsers)
}

// aggregate sums the rating rows of the nearest users, weighted by their
// similarity to q. Neighbors with non-positive similarity are ignored and
// masked items score -Inf so they can never be returned.
func (m *UserCF) aggregate(q []float32, masked []int, topN, kSimilarUsers int) ([]recommend.ScoreEntry, error) {
	hits, err := m.users.Search(q, kSimilarUsers)
	if err != nil {
		return nil, err
	}

	scores := make(map[int]float64)
	for _, h := range hits {
		if h.Score <= 0 {
			continue
		}
		cols, vals := m.interactions.Row(h.Index)
		for k, c := range cols {
			scores[c] += h.Score * float64(vals[k])
		}
	}
	if len(scores) == 0 {
		return []recommend.ScoreEntry{}, nil
	}

	for _, idx := range masked {
		if _, ok := scores[idx]; ok {
			scores[idx] = math.Inf(-1)
		}
	}
	return linalg.TopNSparse(scores, topN), nil
}

func checkCounts(topN, kSimilarUsers int) error {
	if topN <= 0 {
		return recommend.Invalidf("top_n must be positive, got %d", topN)
	}
	if kSimilarUsers <= 0 {
		return recommend.Invalidf("k_similar_users must be positive, got %d", kSimilarUsers)
	}
	return nil
}
