// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package encoder

import (
	"cmp"
	"context"
	"math"
	"math/rand"
	"slices"
	"strings"
	"unicode"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// TFIDFState is everything needed to reproduce the TF-IDF encoder: the
// vocabulary, the idf weights and the vocabulary x dim projection.
type TFIDFState struct {
	Vocabulary map[string]int
	IDF        []float32
	Projection linalg.Dense
}

// TFIDF encodes text as an L2-normalized tf-idf vector projected onto a
// learned low-rank basis, normalized again.
type TFIDF struct {
	vocab map[string]int
	idf   []float32
	proj  *linalg.Dense
}

var _ Encoder = (*TFIDF)(nil)

// NewTFIDF validates a state and returns its encoder.
func NewTFIDF(s TFIDFState) (*TFIDF, error) {
	if len(s.Vocabulary) != len(s.IDF) {
		return nil, recommend.Invalidf("tfidf vocabulary has %d terms, idf has %d", len(s.Vocabulary), len(s.IDF))
	}
	if s.Projection.Rows != len(s.IDF) {
		return nil, recommend.Invalidf("tfidf projection has %d rows, want %d", s.Projection.Rows, len(s.IDF))
	}
	if err := s.Projection.Validate(); err != nil {
		return nil, err
	}
	for term, i := range s.Vocabulary {
		if i < 0 || i >= len(s.IDF) {
			return nil, recommend.Invalidf("tfidf term %q has index %d", term, i)
		}
	}
	proj := s.Projection
	return &TFIDF{vocab: s.Vocabulary, idf: s.IDF, proj: &proj}, nil
}

// Encode returns the unit vector of text. Text without any known term is a
// validation error.
func (e *TFIDF) Encode(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, recommend.Invalidf("text is empty")
	}
	terms, weights := e.vectorize(Tokenize(text))
	if len(terms) == 0 {
		return nil, recommend.Invalidf("text has no known terms")
	}
	out := make([]float32, e.proj.Cols)
	for i, t := range terms {
		linalg.AddScaled(out, weights[i], e.proj.Row(t))
	}
	if linalg.Normalize(out) == 0 {
		return nil, recommend.Invalidf("text projects to the zero vector")
	}
	return out, nil
}

// Dim returns the projected dimension.
func (e *TFIDF) Dim() int { return e.proj.Cols }

// State returns the serializable state.
func (e *TFIDF) State() TFIDFState {
	return TFIDFState{Vocabulary: e.vocab, IDF: e.idf, Projection: *e.proj}
}

// vectorize returns the sparse, L2-normalized tf-idf vector of tokens with
// term indices ascending.
func (e *TFIDF) vectorize(tokens []string) ([]int, []float64) {
	counts := make(map[int]float64)
	for _, tok := range tokens {
		if i, ok := e.vocab[tok]; ok {
			counts[i]++
		}
	}
	terms := make([]int, 0, len(counts))
	for i := range counts {
		terms = append(terms, i)
	}
	slices.Sort(terms)

	weights := make([]float64, len(terms))
	var norm float64
	for k, i := range terms {
		w := counts[i] * float64(e.idf[i])
		weights[k] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range weights {
			weights[k] /= norm
		}
	}
	return terms, weights
}

// Tokenize lower-cases text and splits it into runs of letters and digits,
// keeping tokens of at least two characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// TFIDFOptions configures FitTFIDF.
type TFIDFOptions struct {
	// MaxFeatures keeps the most frequent terms across the corpus.
	// Default: 50000
	MaxFeatures int

	// Components is the projected dimension.
	// Default: 200
	Components int

	// Iterations is the number of subspace iterations.
	// Default: 7
	Iterations int

	// Seed makes the projection deterministic.
	// Default: 42
	Seed int64
}

func (o *TFIDFOptions) defaults() {
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = 50000
	}
	if o.Components <= 0 {
		o.Components = 200
	}
	if o.Iterations <= 0 {
		o.Iterations = 7
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
}

// FitTFIDF learns a vocabulary, idf weights and a projection from docs and
// returns the encoder together with the unit-normalized document
// embeddings, one row per doc.
//
// The projection spans the top right singular subspace of the tf-idf
// matrix, found by subspace iteration. Any orthonormal basis of that
// subspace yields the same inner products, which is all similarity search
// needs.
func FitTFIDF(ctx context.Context, docs []string, opts TFIDFOptions) (*TFIDF, *linalg.Dense, error) {
	opts.defaults()
	if len(docs) == 0 {
		return nil, nil, recommend.Invalidf("tfidf needs at least one document")
	}

	tokenized := make([][]string, len(docs))
	freq := make(map[string]int)
	df := make(map[string]int)
	for i, d := range docs {
		tokenized[i] = Tokenize(d)
		seen := make(map[string]struct{}, len(tokenized[i]))
		for _, t := range tokenized[i] {
			freq[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}
	if len(freq) == 0 {
		return nil, nil, recommend.Invalidf("tfidf corpus has no terms")
	}

	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	slices.SortFunc(terms, func(a, b string) int {
		if c := cmp.Compare(freq[b], freq[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(terms) > opts.MaxFeatures {
		terms = terms[:opts.MaxFeatures]
	}
	slices.Sort(terms)

	n := float64(len(docs))
	vocab := make(map[string]int, len(terms))
	idf := make([]float32, len(terms))
	for i, t := range terms {
		vocab[t] = i
		idf[i] = float32(math.Log((1+n)/(1+float64(df[t]))) + 1)
	}

	enc := &TFIDF{vocab: vocab, idf: idf}

	var ts []linalg.Triplet
	for i, toks := range tokenized {
		idx, w := enc.vectorize(toks)
		for k, j := range idx {
			ts = append(ts, linalg.Triplet{Row: i, Col: j, Value: float32(w[k])})
		}
	}
	x, err := linalg.FromTriplets(len(docs), len(terms), ts)
	if err != nil {
		return nil, nil, err
	}

	dim := min(opts.Components, len(terms), len(docs))
	proj, err := subspace(ctx, x, dim, opts.Iterations, opts.Seed)
	if err != nil {
		return nil, nil, err
	}
	enc.proj = proj

	emb, err := linalg.NewDense(len(docs), dim, nil)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < x.Rows; i++ {
		cols, vals := x.Row(i)
		row := emb.Row(i)
		for k, c := range cols {
			linalg.AddScaled(row, float64(vals[k]), proj.Row(c))
		}
	}
	emb.NormalizeRows()
	return enc, emb, nil
}

// subspace returns an orthonormal vocab x dim basis of the dominant right
// singular subspace of x.
func subspace(ctx context.Context, x *linalg.CSR, dim, iterations int, seed int64) (*linalg.Dense, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic projection, not security sensitive
	v := make([]float64, x.Cols*dim)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	orthonormalize(v, x.Cols, dim)

	xv := make([]float64, x.Rows*dim)
	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// xv = X V
		clear(xv)
		for i := 0; i < x.Rows; i++ {
			cols, vals := x.Row(i)
			out := xv[i*dim : (i+1)*dim]
			for k, c := range cols {
				axpy(out, float64(vals[k]), v[c*dim:(c+1)*dim])
			}
		}
		// V = X^T (X V)
		clear(v)
		for i := 0; i < x.Rows; i++ {
			cols, vals := x.Row(i)
			in := xv[i*dim : (i+1)*dim]
			for k, c := range cols {
				axpy(v[c*dim:(c+1)*dim], float64(vals[k]), in)
			}
		}
		orthonormalize(v, x.Cols, dim)
	}

	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return linalg.NewDense(x.Cols, dim, out)
}

// orthonormalize applies modified Gram-Schmidt to the columns of a row-major
// rows x cols matrix. Columns that collapse numerically are zeroed.
func orthonormalize(m []float64, rows, cols int) {
	for j := 0; j < cols; j++ {
		for p := 0; p < j; p++ {
			var d float64
			for i := 0; i < rows; i++ {
				d += m[i*cols+j] * m[i*cols+p]
			}
			for i := 0; i < rows; i++ {
				m[i*cols+j] -= d * m[i*cols+p]
			}
		}
		var norm float64
		for i := 0; i < rows; i++ {
			norm += m[i*cols+j] * m[i*cols+j]
		}
		norm = math.Sqrt(norm)
		for i := 0; i < rows; i++ {
			if norm < 1e-10 {
				m[i*cols+j] = 0
			} else {
				m[i*cols+j] /= norm
			}
		}
	}
}

func axpy(dst []float64, a float64, x []float64) {
	for i := range dst {
		dst[i] += a * x[i]
	}
}
