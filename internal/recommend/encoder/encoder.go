// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package encoder turns free text into unit vectors in the same space as the
// item embeddings of a method.
package encoder

import (
	"context"
	"strings"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// Encoder maps text to a unit vector of fixed dimension.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// EncodeFunc is the signature wrapped by Func.
type EncodeFunc func(ctx context.Context, text string) ([]float32, error)

// Func adapts a plain function to Encoder. Its output is checked against
// the declared dimension and unit-normalized.
type Func struct {
	dim int
	fn  EncodeFunc
}

// NewFunc wraps fn as an Encoder of dimension dim.
func NewFunc(dim int, fn EncodeFunc) *Func {
	return &Func{dim: dim, fn: fn}
}

// Encode calls the wrapped function.
func (f *Func) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, recommend.Invalidf("text is empty")
	}
	v, err := f.fn(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) != f.dim {
		return nil, recommend.Invalidf("encoder returned dimension %d, want %d", len(v), f.dim)
	}
	linalg.Normalize(v)
	return v, nil
}

// Dim returns the output dimension.
func (f *Func) Dim() int { return f.dim }

// Kind names how an encoder artifact is materialized.
type Kind string

const (
	// KindTFIDF encoders are fully described by their artifact.
	KindTFIDF Kind = "tfidf"

	// KindRemote encoders run elsewhere; the artifact records the model
	// name and dimension the item embeddings were produced with.
	KindRemote Kind = "remote"
)

// State is the serialized form of an encoder artifact.
type State struct {
	Kind  Kind
	Model string
	Dim   int
	TFIDF *TFIDFState
}

// RemoteFactory builds an encoder for a remote model.
type RemoteFactory func(model string, dim int) (Encoder, error)

// FromState materializes an encoder. Remote states need a factory; without
// one the encoder reports NotReady on every call.
func FromState(s State, remote RemoteFactory) (Encoder, error) {
	switch s.Kind {
	case KindTFIDF:
		if s.TFIDF == nil {
			return nil, recommend.Invalidf("tfidf encoder state is empty")
		}
		return NewTFIDF(*s.TFIDF)
	case KindRemote:
		if s.Dim <= 0 {
			return nil, recommend.Invalidf("remote encoder %q has dimension %d", s.Model, s.Dim)
		}
		if remote == nil {
			return unavailable{model: s.Model, dim: s.Dim}, nil
		}
		return remote(s.Model, s.Dim)
	default:
		return nil, recommend.Invalidf("unknown encoder kind %q", s.Kind)
	}
}

// unavailable stands in for a remote encoder with no endpoint configured.
type unavailable struct {
	model string
	dim   int
}

func (u unavailable) Encode(context.Context, string) ([]float32, error) {
	return nil, recommend.NotReadyf("no endpoint configured for encoder %q", u.model)
}

func (u unavailable) Dim() int { return u.dim }
