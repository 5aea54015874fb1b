// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package vectorindex answers nearest-neighbor queries over a set of dense
// vectors.
package vectorindex

import (
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// Metric selects how vectors are compared.
type Metric string

const (
	// MetricInnerProduct scores by dot product. With unit vectors this is
	// cosine similarity.
	MetricInnerProduct Metric = "inner_product"

	// MetricL2 scores by negated squared Euclidean distance, so larger is
	// still closer.
	MetricL2 Metric = "l2"
)

// Hit is one search result. Higher scores are closer under every metric.
type Hit struct {
	Index int
	Score float64
}

// Index returns the k stored vectors nearest to a query.
type Index interface {
	Search(query []float32, k int) ([]Hit, error)
	Len() int
	Dim() int
}

// Flat is an exact, brute-force index.
type Flat struct {
	metric  Metric
	vectors *linalg.Dense
}

var _ Index = (*Flat)(nil)

// NewFlat indexes the rows of vectors. The matrix is retained, not copied.
func NewFlat(vectors *linalg.Dense, metric Metric) (*Flat, error) {
	if vectors == nil {
		return nil, recommend.Invalidf("vector index needs vectors")
	}
	if err := vectors.Validate(); err != nil {
		return nil, err
	}
	switch metric {
	case MetricInnerProduct, MetricL2:
	default:
		return nil, recommend.Invalidf("unknown metric %q", metric)
	}
	return &Flat{metric: metric, vectors: vectors}, nil
}

// Search returns up to k hits, best first, ties by ascending index. k larger
// than the index size returns every vector.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, recommend.Invalidf("k must be positive, got %d", k)
	}
	if len(query) != f.vectors.Cols {
		return nil, recommend.Invalidf("query has dimension %d, index has %d", len(query), f.vectors.Cols)
	}

	scores := make([]float64, f.vectors.Rows)
	for i := range scores {
		row := f.vectors.Row(i)
		if f.metric == MetricL2 {
			scores[i] = -linalg.SquaredDistance(row, query)
		} else {
			scores[i] = linalg.Dot(row, query)
		}
	}

	top := linalg.TopN(scores, k)
	hits := make([]Hit, len(top))
	for i, e := range top {
		hits[i] = Hit{Index: e.Index, Score: e.Score}
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return f.vectors.Rows }

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.vectors.Cols }

// Metric returns the comparison metric.
func (f *Flat) Metric() Metric { return f.metric }

// FlatSnapshot is the serialized form of a Flat index.
type FlatSnapshot struct {
	Metric  Metric
	Vectors linalg.Dense
}

// Snapshot returns the serializable state. The vectors are shared.
func (f *Flat) Snapshot() FlatSnapshot {
	return FlatSnapshot{Metric: f.metric, Vectors: *f.vectors}
}

// FromSnapshot rebuilds a Flat index.
func FromSnapshot(s FlatSnapshot) (*Flat, error) {
	v := s.Vectors
	return NewFlat(&v, s.Metric)
}
