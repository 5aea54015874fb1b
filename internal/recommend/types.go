// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package recommend

import (
	"cmp"
	"slices"
	"strings"
)

// ScoreEntry is the unit every model returns: an internal item index and its
// score. Score semantics depend on the producer. Content and item-CF graphs
// carry cosine similarity, user-CF carries an aggregated weighted rating.
type ScoreEntry struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// CompareScores orders entries by score descending, then index ascending.
// It is the single ranking order used across the engine.
func CompareScores(a, b ScoreEntry) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.Index, b.Index)
}

// SortScores sorts entries in ranking order.
func SortScores(entries []ScoreEntry) {
	slices.SortFunc(entries, CompareScores)
}

// Medium identifies a catalog.
type Medium string

const (
	MediumMovies Medium = "movies"
	MediumBooks  Medium = "books"
)

// ParseMedium validates a medium name.
func ParseMedium(s string) (Medium, error) {
	switch m := Medium(strings.ToLower(strings.TrimSpace(s))); m {
	case MediumMovies, MediumBooks:
		return m, nil
	default:
		return "", Invalidf("unknown medium %q", s)
	}
}

// Method identifies the text embedding technique behind content similarity
// and user embeddings.
type Method string

const (
	// MethodTFIDF uses a TF-IDF vectorizer followed by a learned projection.
	MethodTFIDF Method = "tfidf"
	// MethodSBERT uses sentence embeddings served by an external encoder.
	MethodSBERT Method = "sbert"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodTFIDF, MethodSBERT:
		return m, nil
	default:
		return "", Invalidf("unknown method %q", s)
	}
}

// Variant selects one set of served models.
type Variant struct {
	Medium Medium `json:"medium"`
	Method Method `json:"method"`
}

func (v Variant) String() string {
	return string(v.Medium) + "/" + string(v.Method)
}

// Rating is a caller-supplied rating keyed by title.
type Rating struct {
	Title string  `json:"title" validate:"required"`
	Value float64 `json:"value" validate:"gte=0,lte=5"`
}

// Resolved is the outcome of resolving one input: either a value was found
// or the input was skipped with a reason. It lets callers distinguish partial
// success from full failure.
type Resolved[T any] struct {
	Input  string
	Value  T
	Reason string
	found  bool
}

// Found records a successful resolution.
func Found[T any](input string, v T) Resolved[T] {
	return Resolved[T]{Input: input, Value: v, found: true}
}

// Skipped records an input that could not be resolved.
func Skipped[T any](input, reason string) Resolved[T] {
	return Resolved[T]{Input: input, Reason: reason}
}

// OK reports whether the input was resolved.
func (r Resolved[T]) OK() bool { return r.found }

// Skip describes an input that was dropped.
type Skip struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// Partition splits resolutions into found values and skips, preserving order.
func Partition[T any](rs []Resolved[T]) ([]T, []Skip) {
	found := make([]T, 0, len(rs))
	var skipped []Skip
	for _, r := range rs {
		if r.found {
			found = append(found, r.Value)
			continue
		}
		skipped = append(skipped, Skip{Input: r.Input, Reason: r.Reason})
	}
	return found, skipped
}

// Recommendation is a ranked item with its display fields.
type Recommendation struct {
	Index  int     `json:"index"`
	ItemID int64   `json:"item_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// Result is what the engine returns for every service operation.
type Result struct {
	Variant         Variant          `json:"variant"`
	Recommendations []Recommendation `json:"recommendations"`

	// Skipped lists inputs (ratings) and results (untitled indices) that were
	// dropped rather than failing the whole request.
	Skipped []Skip `json:"skipped,omitempty"`
}
