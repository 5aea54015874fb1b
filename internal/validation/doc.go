// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Two custom tags are registered:
//
//   - medium: a served medium name (movies, books)
//   - method: an embedding method name (tfidf, sbert)
//
// Field names in messages are taken from json tags so they match request
// bodies. Every error returned by ValidateStruct and ValidateVar satisfies
// errors.Is(err, recommend.ErrValidation), which the API maps to 400.
//
// Example usage:
//
//	type hybridRequest struct {
//	    Title   string             `json:"title" validate:"required"`
//	    Ratings []recommend.Rating `json:"ratings" validate:"omitempty,max=500,dive"`
//	    TopN    int                `json:"top_n" validate:"gte=0,lte=100"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    respondError(w, err)
//	    return
//	}
package validation
