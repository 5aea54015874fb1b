// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package recommend

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on the model packages. They import
// it for the shared types, and the engine reaches them through the small
// interfaces below.

// ItemCatalog translates between titles and internal indices.
type ItemCatalog interface {
	Len() int
	ToIndex(title string) (int, error)
	ToTitle(index int) (string, error)
	ItemID(index int) (int64, error)
}

// UserDirectory maps external user ids to rows of the interaction matrix.
type UserDirectory interface {
	IndexOf(id int64) (int, error)
}

// NeighborRecommender serves precomputed neighbors of a catalog item.
type NeighborRecommender interface {
	Recommend(index, topN int) ([]ScoreEntry, error)
}

// ContentRecommender serves content neighbors for items and free text.
type ContentRecommender interface {
	NeighborRecommender
	RecommendFromText(ctx context.Context, text string, topN int) ([]ScoreEntry, error)
}

// UserRecommender serves items liked by similar users.
type UserRecommender interface {
	RecommendExisting(userIndex, topN, kSimilarUsers int) ([]ScoreEntry, error)
	RecommendFromRatings(ratings map[int]float64, topN, kSimilarUsers int) ([]ScoreEntry, error)
}

// HybridRecommender blends the three sources for one item and a rating list.
type HybridRecommender interface {
	Recommend(ctx context.Context, index int, ratings map[int]float64, kSimilarUsers, topN int) ([]ScoreEntry, error)
}

// HybridFactory returns a hybrid recommender with the given weights. Weights
// are validated by the engine before the factory is called.
type HybridFactory func(alpha, beta float64) HybridRecommender

// Sources are the warmed-up models of one variant.
type Sources struct {
	Items   ItemCatalog
	Users   UserDirectory
	Content ContentRecommender
	ItemCF  NeighborRecommender
	UserCF  UserRecommender
	Hybrid  HybridFactory
}

func (s *Sources) validate() error {
	switch {
	case s.Items == nil:
		return fmt.Errorf("sources: item catalog is required")
	case s.Users == nil:
		return fmt.Errorf("sources: user directory is required")
	case s.Content == nil:
		return fmt.Errorf("sources: content model is required")
	case s.ItemCF == nil:
		return fmt.Errorf("sources: item-CF model is required")
	case s.UserCF == nil:
		return fmt.Errorf("sources: user-CF model is required")
	case s.Hybrid == nil:
		return fmt.Errorf("sources: hybrid factory is required")
	}
	return nil
}

// Engine resolves titles and ratings and dispatches to the models of a
// variant. Variants are registered once after warmup; afterwards every
// request path is read-only and lock-free.
type Engine struct {
	config *Config
	logger zerolog.Logger

	// variants is replaced wholesale on Register and never mutated in place.
	variants atomic.Pointer[map[Variant]*Sources]
	regMu    sync.Mutex
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	empty := map[Variant]*Sources{}
	e.variants.Store(&empty)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Register makes a variant servable.
func (e *Engine) Register(v Variant, src Sources) error {
	if err := src.validate(); err != nil {
		return fmt.Errorf("register %s: %w", v, err)
	}

	e.regMu.Lock()
	defer e.regMu.Unlock()

	current := *e.variants.Load()
	next := make(map[Variant]*Sources, len(current)+1)
	for k, s := range current {
		next[k] = s
	}
	next[v] = &src
	e.variants.Store(&next)

	e.logger.Info().
		Str("variant", v.String()).
		Int("items", src.Items.Len()).
		Msg("registered variant")
	return nil
}

// Ready reports whether at least one variant is servable.
func (e *Engine) Ready() bool {
	return len(*e.variants.Load()) > 0
}

// Variants returns the registered variants in a stable order.
func (e *Engine) Variants() []Variant {
	m := *e.variants.Load()
	out := make([]Variant, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b Variant) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

func (e *Engine) sources(v Variant) (*Sources, error) {
	m := *e.variants.Load()
	if len(m) == 0 {
		return nil, NotReadyf("no variant registered")
	}
	src, ok := m[v]
	if !ok {
		return nil, NotFoundf("variant %s is not served", v)
	}
	return src, nil
}

// topN applies the default for zero and caps at MaxTopN.
func (e *Engine) topN(n int) (int, error) {
	switch {
	case n < 0:
		return 0, Invalidf("top_n must be positive, got %d", n)
	case n == 0:
		return e.config.DefaultTopN, nil
	case n > e.config.MaxTopN:
		return e.config.MaxTopN, nil
	}
	return n, nil
}

func (e *Engine) kUsers(k int) (int, error) {
	switch {
	case k < 0:
		return 0, Invalidf("k_similar_users must be positive, got %d", k)
	case k == 0:
		return e.config.KSimilarUsers, nil
	}
	return k, nil
}

// SimilarByTitle returns content neighbors of a titled item.
func (e *Engine) SimilarByTitle(ctx context.Context, v Variant, title string, topN int) (*Result, error) {
	src, n, err := e.prepare(ctx, v, topN)
	if err != nil {
		return nil, err
	}
	idx, err := src.Items.ToIndex(title)
	if err != nil {
		return nil, err
	}
	entries, err := src.Content.Recommend(idx, n)
	if err != nil {
		return nil, err
	}
	return e.titled(v, src, entries), nil
}

// SimilarByDescription returns catalog items closest to free text.
func (e *Engine) SimilarByDescription(ctx context.Context, v Variant, text string, topN int) (*Result, error) {
	src, n, err := e.prepare(ctx, v, topN)
	if err != nil {
		return nil, err
	}
	entries, err := src.Content.RecommendFromText(ctx, text, n)
	if err != nil {
		return nil, err
	}
	return e.titled(v, src, entries), nil
}

// ItemCFByTitle returns co-rating neighbors of a titled item.
func (e *Engine) ItemCFByTitle(ctx context.Context, v Variant, title string, topN int) (*Result, error) {
	src, n, err := e.prepare(ctx, v, topN)
	if err != nil {
		return nil, err
	}
	idx, err := src.Items.ToIndex(title)
	if err != nil {
		return nil, err
	}
	entries, err := src.ItemCF.Recommend(idx, n)
	if err != nil {
		return nil, err
	}
	return e.titled(v, src, entries), nil
}

// ForRatings recommends for a cold-start user described by titled ratings.
// Ratings whose titles do not resolve are skipped; when none resolve the
// request fails with a validation error.
func (e *Engine) ForRatings(ctx context.Context, v Variant, ratings []Rating, topN, kSimilarUsers int) (*Result, error) {
	src, n, err := e.prepare(ctx, v, topN)
	if err != nil {
		return nil, err
	}
	k, err := e.kUsers(kSimilarUsers)
	if err != nil {
		return nil, err
	}

	indexed, skipped := resolveRatings(src.Items, ratings)
	if len(indexed) == 0 {
		return nil, Invalidf("no valid user ratings after normalization")
	}

	entries, err := src.UserCF.RecommendFromRatings(indexed, n, k)
	if err != nil {
		return nil, err
	}
	res := e.titled(v, src, entries)
	res.Skipped = append(skipped, res.Skipped...)
	return res, nil
}

// ForUser recommends for a user present in the interaction matrix.
func (e *Engine) ForUser(ctx context.Context, v Variant, userID int64, topN, kSimilarUsers int) (*Result, error) {
	src, n, err := e.prepare(ctx, v, topN)
	if err != nil {
		return nil, err
	}
	k, err := e.kUsers(kSimilarUsers)
	if err != nil {
		return nil, err
	}
	row, err := src.Users.IndexOf(userID)
	if err != nil {
		return nil, err
	}
	entries, err := src.UserCF.RecommendExisting(row, n, k)
	if err != nil {
		return nil, err
	}
	return e.titled(v, src, entries), nil
}

// HybridRequest parameterizes a hybrid recommendation. Nil weights fall back
// to the configured defaults.
type HybridRequest struct {
	Title         string
	Ratings       []Rating
	TopN          int
	KSimilarUsers int
	Alpha         *float64
	Beta          *float64
}

// Hybrid blends content, item-CF and user-CF scores for a titled item and a
// rating list. Ratings are optional; when some are supplied and none
// resolve, the request fails with a validation error.
func (e *Engine) Hybrid(ctx context.Context, v Variant, req HybridRequest) (*Result, error) {
	src, n, err := e.prepare(ctx, v, req.TopN)
	if err != nil {
		return nil, err
	}
	k, err := e.kUsers(req.KSimilarUsers)
	if err != nil {
		return nil, err
	}

	alpha, beta := e.config.Alpha, e.config.Beta
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	if req.Beta != nil {
		beta = *req.Beta
	}
	if err := ValidateWeights(alpha, beta); err != nil {
		return nil, err
	}

	idx, err := src.Items.ToIndex(req.Title)
	if err != nil {
		return nil, err
	}

	indexed, skipped := resolveRatings(src.Items, req.Ratings)
	if len(req.Ratings) > 0 && len(indexed) == 0 {
		return nil, Invalidf("no valid user ratings after normalization")
	}

	entries, err := src.Hybrid(alpha, beta).Recommend(ctx, idx, indexed, k, n)
	if err != nil {
		return nil, err
	}
	res := e.titled(v, src, entries)
	res.Skipped = append(skipped, res.Skipped...)
	return res, nil
}

func (e *Engine) prepare(ctx context.Context, v Variant, topN int) (*Sources, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	src, err := e.sources(v)
	if err != nil {
		return nil, 0, err
	}
	n, err := e.topN(topN)
	if err != nil {
		return nil, 0, err
	}
	return src, n, nil
}

// resolveRatings maps titled ratings to indices. A later rating for the same
// item replaces an earlier one.
func resolveRatings(items ItemCatalog, ratings []Rating) (map[int]float64, []Skip) {
	resolved := make([]Resolved[indexedRating], 0, len(ratings))
	for _, r := range ratings {
		if r.Value < 0 || r.Value > 5 {
			resolved = append(resolved, Skipped[indexedRating](r.Title, fmt.Sprintf("rating %g outside [0, 5]", r.Value)))
			continue
		}
		idx, err := items.ToIndex(r.Title)
		if err != nil {
			resolved = append(resolved, Skipped[indexedRating](r.Title, "unknown title"))
			continue
		}
		resolved = append(resolved, Found(r.Title, indexedRating{index: idx, value: r.Value}))
	}

	found, skipped := Partition(resolved)
	out := make(map[int]float64, len(found))
	for _, r := range found {
		out[r.index] = r.value
	}
	return out, skipped
}

type indexedRating struct {
	index int
	value float64
}

// titled attaches item ids and titles to ranked entries. Entries whose index
// cannot be titled are reported as skipped instead of failing the request.
func (e *Engine) titled(v Variant, src *Sources, entries []ScoreEntry) *Result {
	resolved := make([]Resolved[Recommendation], 0, len(entries))
	for _, se := range entries {
		key := fmt.Sprintf("#%d", se.Index)
		title, err := src.Items.ToTitle(se.Index)
		if err != nil {
			resolved = append(resolved, Skipped[Recommendation](key, err.Error()))
			continue
		}
		id, err := src.Items.ItemID(se.Index)
		if err != nil {
			resolved = append(resolved, Skipped[Recommendation](key, err.Error()))
			continue
		}
		resolved = append(resolved, Found(key, Recommendation{
			Index:  se.Index,
			ItemID: id,
			Title:  title,
			Score:  se.Score,
		}))
	}

	recs, skipped := Partition(resolved)
	if len(skipped) > 0 {
		e.logger.Warn().
			Str("variant", v.String()).
			Int("skipped", len(skipped)).
			Msg("dropped results without a title")
	}
	return &Result{Variant: v, Recommendations: recs, Skipped: skipped}
}
