// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package linalg provides the small amount of linear algebra the engine
// needs: row-major float32 matrices, compressed sparse rows, and top-N
// selection in the engine's ranking order.
package linalg

import (
	"math"

	"github.com/tomtom215/mediarec/internal/recommend"
)

// Dense is a row-major float32 matrix.
type Dense struct {
	Rows int
	Cols int
	Data []float32
}

// NewDense wraps data as a rows x cols matrix. A nil data allocates zeros.
func NewDense(rows, cols int, data []float32) (*Dense, error) {
	if rows < 0 || cols < 0 {
		return nil, recommend.Invalidf("dense shape %dx%d", rows, cols)
	}
	if data == nil {
		data = make([]float32, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, recommend.Invalidf("dense data has %d values, want %dx%d", len(data), rows, cols)
	}
	return &Dense{Rows: rows, Cols: cols, Data: data}, nil
}

// FromRows builds a matrix from equal-length rows.
func FromRows(rows [][]float32) (*Dense, error) {
	if len(rows) == 0 {
		return &Dense{}, nil
	}
	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, recommend.Invalidf("row %d has %d columns, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Dense{Rows: len(rows), Cols: cols, Data: data}, nil
}

// Validate checks that the data length matches the shape.
func (d *Dense) Validate() error {
	if d.Rows < 0 || d.Cols < 0 || len(d.Data) != d.Rows*d.Cols {
		return recommend.Invalidf("dense matrix %dx%d holds %d values", d.Rows, d.Cols, len(d.Data))
	}
	return nil
}

// Row returns row i as a slice aliasing the matrix.
func (d *Dense) Row(i int) []float32 {
	return d.Data[i*d.Cols : (i+1)*d.Cols]
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	return &Dense{Rows: d.Rows, Cols: d.Cols, Data: append([]float32(nil), d.Data...)}
}

// NormalizeRows scales every row to unit L2 norm in place. Zero rows stay zero.
func (d *Dense) NormalizeRows() {
	for i := 0; i < d.Rows; i++ {
		Normalize(d.Row(i))
	}
}

// MulVec returns the dot product of every row with v.
func (d *Dense) MulVec(v []float32) ([]float64, error) {
	if len(v) != d.Cols {
		return nil, recommend.Invalidf("vector has dimension %d, matrix has %d columns", len(v), d.Cols)
	}
	out := make([]float64, d.Rows)
	for i := range out {
		out[i] = Dot(d.Row(i), v)
	}
	return out, nil
}

// Dot returns the inner product of two equal-length vectors, accumulated in
// float64.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// Normalize scales v to unit L2 norm in place and returns its original norm.
// A zero vector is left unchanged.
func Normalize(v []float32) float64 {
	n := Norm(v)
	if n == 0 {
		return 0
	}
	inv := 1 / n
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return n
}

// AddScaled performs dst += alpha * src.
func AddScaled(dst []float32, alpha float64, src []float32) {
	for i := range dst {
		dst[i] += float32(alpha * float64(src[i]))
	}
}

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}
