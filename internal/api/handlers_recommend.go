// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/validation"
)

// Operation names used as metric labels.
const (
	opContent     = "content"
	opDescription = "content_description"
	opItemCF      = "item_cf"
	opUserCF      = "user_cf"
	opUser        = "user"
	opHybrid      = "hybrid"
)

// parseTitleRequest reads and validates title, method and top_n.
func parseTitleRequest(r *http.Request) (TitleRequest, error) {
	topN, err := queryInt(r, "top_n")
	if err != nil {
		return TitleRequest{}, err
	}
	req := TitleRequest{
		Title:  strings.TrimSpace(r.URL.Query().Get("title")),
		Method: r.URL.Query().Get("method"),
		TopN:   topN,
	}
	return req, validation.ValidateStruct(&req)
}

// ContentByTitle handles GET /api/v1/{medium}/recommend/content
func (h *Handler) ContentByTitle(w http.ResponseWriter, r *http.Request) {
	req, err := parseTitleRequest(r)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	v, err := h.variant(r, req.Method)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.operation(w, r, opContent, v, func(ctx context.Context) (*recommend.Result, error) {
		return h.engine.SimilarByTitle(ctx, v, req.Title, req.TopN)
	})
}

// ContentByDescription handles GET /api/v1/{medium}/recommend/content-description
func (h *Handler) ContentByDescription(w http.ResponseWriter, r *http.Request) {
	topN, err := queryInt(r, "top_n")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	req := DescriptionRequest{
		Description: strings.TrimSpace(r.URL.Query().Get("description")),
		Method:      r.URL.Query().Get("method"),
		TopN:        topN,
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondEngineError(w, r, err)
		return
	}
	v, err := h.variant(r, req.Method)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.operation(w, r, opDescription, v, func(ctx context.Context) (*recommend.Result, error) {
		return h.engine.SimilarByDescription(ctx, v, req.Description, req.TopN)
	})
}

// ItemCF handles GET /api/v1/{medium}/recommend/item-cf
//
// The item-CF graph is shared by all methods of a medium; method only picks
// which registered variant serves it.
func (h *Handler) ItemCF(w http.ResponseWriter, r *http.Request) {
	req, err := parseTitleRequest(r)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	v, err := h.variant(r, req.Method)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.operation(w, r, opItemCF, v, func(ctx context.Context) (*recommend.Result, error) {
		return h.engine.ItemCFByTitle(ctx, v, req.Title, req.TopN)
	})
}

// UserCF handles POST /api/v1/{medium}/recommend/user-cf
func (h *Handler) UserCF(w http.ResponseWriter, r *http.Request) {
	var req UserCFRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondEngineError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondEngineError(w, r, err)
		return
	}
	v, err := h.variant(r, req.Method)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.operation(w, r, opUserCF, v, func(ctx context.Context) (*recommend.Result, error) {
		return h.engine.ForRatings(ctx, v, req.Ratings, req.TopN, req.KSimilarUsers)
	})
}

// ForUser handles GET /api/v1/{medium}/recommend/users/{userID}
func (h *Handler) ForUser(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		respondEngineError(w, r, recommend.Invalidf("user id must be an integer, got %q", rawID))
		return
	}
	topN, err := queryInt(r, "top_n")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	k, err := queryInt(r, "k_similar_users")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	req := UserRequest{
		UserID:        userID,
		Method:        r.URL.Query().Get("method"),
		TopN:          topN,
		KSimilarUsers: k,
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondEngineError(w, r, err)
		return
	}
	v, err := h.variant(r, req.Method)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.operation(w, r, opUser, v, func(ctx context.Context) (*recommend.Result, error) {
		return h.engine.ForUser(ctx, v, req.UserID, req.TopN, req.KSimilarUsers)
	})
}

// Hybrid handles POST /api/v1/{medium}/recommend/hybrid
func (h *Handler) Hybrid(w http.ResponseWriter, r *http.Request) {
	var req HybridRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		respondEngineError(w, r, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.ValidateStruct(&req); err != nil {
		respondEngineError(w, r, err)
		return
	}
	v, err := h.variant(r, req.Method)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.operation(w, r, opHybrid, v, func(ctx context.Context) (*recommend.Result, error) {
		return h.engine.Hybrid(ctx, v, recommend.HybridRequest{
			Title:         req.Title,
			Ratings:       req.Ratings,
			TopN:          req.TopN,
			KSimilarUsers: req.KSimilarUsers,
			Alpha:         req.Alpha,
			Beta:          req.Beta,
		})
	})
}
