// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package linalg

import (
	"cmp"
	"slices"

	"github.com/tomtom215/mediarec/internal/recommend"
)

// CSR is a compressed sparse row matrix. Row i occupies
// Indices[IndPtr[i]:IndPtr[i+1]] with matching Data, columns ascending.
type CSR struct {
	Rows    int
	Cols    int
	IndPtr  []int
	Indices []int
	Data    []float32
}

// Triplet is one (row, col, value) entry.
type Triplet struct {
	Row   int
	Col   int
	Value float32
}

// FromTriplets builds a CSR matrix. Duplicate coordinates are summed and
// entries that end up zero are dropped.
func FromTriplets(rows, cols int, ts []Triplet) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, recommend.Invalidf("sparse shape %dx%d", rows, cols)
	}
	for _, t := range ts {
		if t.Row < 0 || t.Row >= rows || t.Col < 0 || t.Col >= cols {
			return nil, recommend.Invalidf("entry (%d, %d) outside %dx%d", t.Row, t.Col, rows, cols)
		}
	}

	sorted := slices.Clone(ts)
	slices.SortStableFunc(sorted, func(a, b Triplet) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Col, b.Col)
	})

	m := &CSR{
		Rows:    rows,
		Cols:    cols,
		IndPtr:  make([]int, rows+1),
		Indices: make([]int, 0, len(sorted)),
		Data:    make([]float32, 0, len(sorted)),
	}

	flush := func(row, col int, v float32) {
		if v == 0 {
			return
		}
		m.Indices = append(m.Indices, col)
		m.Data = append(m.Data, v)
		m.IndPtr[row+1]++
	}

	for i := 0; i < len(sorted); {
		r, c, v := sorted[i].Row, sorted[i].Col, sorted[i].Value
		j := i + 1
		for ; j < len(sorted) && sorted[j].Row == r && sorted[j].Col == c; j++ {
			v += sorted[j].Value
		}
		flush(r, c, v)
		i = j
	}

	for i := 0; i < rows; i++ {
		m.IndPtr[i+1] += m.IndPtr[i]
	}
	return m, nil
}

// FromDenseRows builds a CSR matrix from dense rows, keeping non-zeros.
func FromDenseRows(rows [][]float32) (*CSR, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	var ts []Triplet
	for i, r := range rows {
		if len(r) != cols {
			return nil, recommend.Invalidf("row %d has %d columns, want %d", i, len(r), cols)
		}
		for j, v := range r {
			if v != 0 {
				ts = append(ts, Triplet{Row: i, Col: j, Value: v})
			}
		}
	}
	return FromTriplets(len(rows), cols, ts)
}

// Validate checks structural consistency, typically after decoding.
func (m *CSR) Validate() error {
	if m.Rows < 0 || m.Cols < 0 || len(m.IndPtr) != m.Rows+1 {
		return recommend.Invalidf("sparse matrix %dx%d has %d row pointers", m.Rows, m.Cols, len(m.IndPtr))
	}
	if len(m.Indices) != len(m.Data) || m.IndPtr[0] != 0 || m.IndPtr[m.Rows] != len(m.Data) {
		return recommend.Invalidf("sparse matrix arrays disagree: %d indices, %d values", len(m.Indices), len(m.Data))
	}
	for i := 0; i < m.Rows; i++ {
		lo, hi := m.IndPtr[i], m.IndPtr[i+1]
		if lo > hi {
			return recommend.Invalidf("sparse row %d has negative length", i)
		}
		for k := lo; k < hi; k++ {
			c := m.Indices[k]
			if c < 0 || c >= m.Cols || (k > lo && c <= m.Indices[k-1]) {
				return recommend.Invalidf("sparse row %d has invalid column %d", i, c)
			}
		}
	}
	return nil
}

// Row returns the column indices and values of row i, aliasing the matrix.
func (m *CSR) Row(i int) ([]int, []float32) {
	lo, hi := m.IndPtr[i], m.IndPtr[i+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.Data) }

// Transpose returns the Cols x Rows transpose.
func (m *CSR) Transpose() *CSR {
	t := &CSR{
		Rows:    m.Cols,
		Cols:    m.Rows,
		IndPtr:  make([]int, m.Cols+1),
		Indices: make([]int, len(m.Indices)),
		Data:    make([]float32, len(m.Data)),
	}
	for _, c := range m.Indices {
		t.IndPtr[c+1]++
	}
	for i := 0; i < m.Cols; i++ {
		t.IndPtr[i+1] += t.IndPtr[i]
	}

	next := slices.Clone(t.IndPtr[:m.Cols])
	for r := 0; r < m.Rows; r++ {
		cols, vals := m.Row(r)
		for k, c := range cols {
			pos := next[c]
			t.Indices[pos] = r
			t.Data[pos] = vals[k]
			next[c]++
		}
	}
	return t
}

// RowNorms returns the L2 norm of every row.
func (m *CSR) RowNorms() []float64 {
	out := make([]float64, m.Rows)
	for i := range out {
		_, vals := m.Row(i)
		out[i] = Norm(vals)
	}
	return out
}
