// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package api

import "github.com/tomtom215/mediarec/internal/recommend"

// Request structs carry go-playground/validator tags and are checked with
// validation.ValidateStruct before the engine is called. Field names in
// validation errors are the json names below.

// TitleRequest is the query of the content and item-CF routes.
type TitleRequest struct {
	Title  string `json:"title" validate:"required,max=2000"`
	Method string `json:"method" validate:"omitempty,method"`
	TopN   int    `json:"top_n" validate:"gte=0"`
}

// DescriptionRequest is the query of the content-description route.
type DescriptionRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
	Method      string `json:"method" validate:"omitempty,method"`
	TopN        int    `json:"top_n" validate:"gte=0"`
}

// UserCFRequest is the body of POST user-cf.
type UserCFRequest struct {
	Ratings       []recommend.Rating `json:"ratings" validate:"required,min=1,max=1000,dive"`
	Method        string             `json:"method" validate:"omitempty,method"`
	TopN          int                `json:"top_n" validate:"gte=0"`
	KSimilarUsers int                `json:"k_similar_users" validate:"gte=0"`
}

// UserRequest is the query of the existing-user route.
type UserRequest struct {
	UserID        int64  `json:"user_id" validate:"gte=0"`
	Method        string `json:"method" validate:"omitempty,method"`
	TopN          int    `json:"top_n" validate:"gte=0"`
	KSimilarUsers int    `json:"k_similar_users" validate:"gte=0"`
}

// HybridRequestBody is the body of POST hybrid. Omitted weights use the
// configured defaults; alpha + beta must not exceed 1.
type HybridRequestBody struct {
	Title         string             `json:"title" validate:"required,max=2000"`
	Ratings       []recommend.Rating `json:"ratings" validate:"omitempty,max=1000,dive"`
	Method        string             `json:"method" validate:"omitempty,method"`
	TopN          int                `json:"top_n" validate:"gte=0"`
	KSimilarUsers int                `json:"k_similar_users" validate:"gte=0"`
	Alpha         *float64           `json:"alpha" validate:"omitempty,gte=0,lte=1"`
	Beta          *float64           `json:"beta" validate:"omitempty,gte=0,lte=1"`
}
