// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package artifacts

import (
	"strings"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
	"github.com/tomtom215/mediarec/internal/recommend/graph"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
	"github.com/tomtom215/mediarec/internal/recommend/storage"
	"github.com/tomtom215/mediarec/internal/recommend/vectorindex"
)

// Kind tags a manifest entry with the decoder that materializes it.
type Kind string

const (
	KindIDMap       Kind = "id_map"
	KindDense       Kind = "dense"
	KindSparse      Kind = "sparse"
	KindGraph       Kind = "graph"
	KindVectorIndex Kind = "vector_index"
	KindEncoder     Kind = "encoder"
)

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := decoders[k]; !ok {
		return "", recommend.Invalidf("unknown artifact kind %q", s)
	}
	return k, nil
}

// warmupRank orders kinds during warmup: ID maps, then matrices, then
// graphs, then vector indices, encoders last.
func (k Kind) warmupRank() int {
	switch k {
	case KindIDMap:
		return 0
	case KindDense, KindSparse:
		return 1
	case KindGraph:
		return 2
	case KindVectorIndex:
		return 3
	case KindEncoder:
		return 4
	default:
		return 5
	}
}

// decodeFunc reads the envelope at path into the in-memory object of a kind.
type decodeFunc func(path string, remote encoder.RemoteFactory) (any, *storage.Metadata, error)

var decoders = map[Kind]decodeFunc{
	KindIDMap:       decodeIDMap,
	KindDense:       decodeDense,
	KindSparse:      decodeSparse,
	KindGraph:       decodeGraph,
	KindVectorIndex: decodeVectorIndex,
	KindEncoder:     decodeEncoder,
}

func decodeIDMap(path string, _ encoder.RemoteFactory) (any, *storage.Metadata, error) {
	var snap itemindex.Snapshot
	meta, err := storage.ReadFile(path, &snap)
	if err != nil {
		return nil, nil, err
	}
	idx, err := itemindex.FromSnapshot(snap)
	return idx, meta, err
}

func decodeDense(path string, _ encoder.RemoteFactory) (any, *storage.Metadata, error) {
	var d linalg.Dense
	meta, err := storage.ReadFile(path, &d)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	return &d, meta, nil
}

func decodeSparse(path string, _ encoder.RemoteFactory) (any, *storage.Metadata, error) {
	var m linalg.CSR
	meta, err := storage.ReadFile(path, &m)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	return &m, meta, nil
}

func decodeGraph(path string, _ encoder.RemoteFactory) (any, *storage.Metadata, error) {
	var g graph.Graph
	meta, err := storage.ReadFile(path, &g)
	if err != nil {
		return nil, nil, err
	}
	if meta.Rows != 0 && meta.Rows != len(g) {
		return nil, nil, recommend.Invalidf("graph %s has %d entries, metadata says %d", meta.Name, len(g), meta.Rows)
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	return g, meta, nil
}

func decodeVectorIndex(path string, _ encoder.RemoteFactory) (any, *storage.Metadata, error) {
	var snap vectorindex.FlatSnapshot
	meta, err := storage.ReadFile(path, &snap)
	if err != nil {
		return nil, nil, err
	}
	idx, err := vectorindex.FromSnapshot(snap)
	return idx, meta, err
}

func decodeEncoder(path string, remote encoder.RemoteFactory) (any, *storage.Metadata, error) {
	var st encoder.State
	meta, err := storage.ReadFile(path, &st)
	if err != nil {
		return nil, nil, err
	}
	enc, err := encoder.FromState(st, remote)
	return enc, meta, err
}
