// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package models

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/artifacts"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Content ContentOptions
	Logger  zerolog.Logger
}

// Build assembles the models of one method from a warmed-up store.
//
//nolint:gocritic // opts passed by value is acceptable for a one-time setup call
func Build(store *artifacts.Store, method recommend.Method, opts BuildOptions) (*recommend.Sources, error) {
	items, err := store.ItemIndex(artifacts.NameItemIndex)
	if err != nil {
		return nil, err
	}
	users, err := store.ItemIndex(artifacts.NameUserIndex)
	if err != nil {
		return nil, err
	}
	interactions, err := store.CSR(artifacts.NameInteractions)
	if err != nil {
		return nil, err
	}
	cfGraph, err := store.Graph(artifacts.NameItemCFGraph)
	if err != nil {
		return nil, err
	}
	itemEmb, err := store.Dense(artifacts.NameItemEmbeddings(method))
	if err != nil {
		return nil, err
	}
	userEmb, err := store.Dense(artifacts.NameUserEmbeddings(method))
	if err != nil {
		return nil, err
	}
	userVectors, err := store.VectorIndex(artifacts.NameUserVectors(method))
	if err != nil {
		return nil, err
	}
	contentGraph, err := store.Graph(artifacts.NameContentGraph(method))
	if err != nil {
		return nil, err
	}
	enc, err := store.Encoder(artifacts.NameEncoder(method))
	if err != nil {
		return nil, err
	}

	if items.Len() != interactions.Cols {
		return nil, recommend.Invalidf("item index has %d items, interactions have %d", items.Len(), interactions.Cols)
	}
	if users.Len() != interactions.Rows {
		return nil, recommend.Invalidf("user index has %d users, interactions have %d", users.Len(), interactions.Rows)
	}
	if cfGraph.Len() != items.Len() {
		return nil, recommend.Invalidf("item-CF graph has %d items, item index has %d", cfGraph.Len(), items.Len())
	}

	content, err := NewContent(contentGraph, itemEmb, enc, opts.Content)
	if err != nil {
		return nil, fmt.Errorf("content model: %w", err)
	}
	itemCF, err := NewItemCF(cfGraph)
	if err != nil {
		return nil, fmt.Errorf("item-CF model: %w", err)
	}
	userCF, err := NewUserCF(userVectors, interactions, itemEmb, userEmb)
	if err != nil {
		return nil, fmt.Errorf("user-CF model: %w", err)
	}

	logger := opts.Logger.With().
		Str("component", "hybrid").
		Str("variant", recommend.Variant{Medium: store.Medium(), Method: method}.String()).
		Logger()

	return &recommend.Sources{
		Items:   items,
		Users:   users,
		Content: content,
		ItemCF:  itemCF,
		UserCF:  userCF,
		Hybrid: func(alpha, beta float64) recommend.HybridRecommender {
			return NewHybrid(content, itemCF, userCF, alpha, beta, logger)
		},
	}, nil
}
