// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package artifacts

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
	"github.com/tomtom215/mediarec/internal/recommend/graph"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
	"github.com/tomtom215/mediarec/internal/recommend/storage"
	"github.com/tomtom215/mediarec/internal/recommend/vectorindex"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithRemoteEncoder sets the factory used to materialize remote encoder
// artifacts. Without it those encoders report NotReady.
func WithRemoteEncoder(f encoder.RemoteFactory) Option {
	return func(s *Store) { s.remote = f }
}

// WithWarmupTimeout bounds a shared warmup. Without it a warmup runs until
// it completes or fails.
func WithWarmupTimeout(d time.Duration) Option {
	return func(s *Store) { s.warmupTimeout = d }
}

// loaded is one materialized artifact.
type loaded struct {
	entry  Entry
	object any
	meta   storage.Metadata
}

// Store resolves the artifacts of a manifest and holds them in memory once
// warmed up. Warmup is the only mutation; every getter is lock-free after
// it completes.
type Store struct {
	manifest Manifest
	resolver Resolver
	remote   encoder.RemoteFactory
	logger   zerolog.Logger

	warmupTimeout time.Duration

	resolveMu sync.Mutex
	paths     map[string]string

	group   singleflight.Group
	objects atomic.Pointer[map[string]loaded]
}

// New validates the manifest and returns a cold store.
func New(manifest Manifest, resolver Resolver, opts ...Option) (*Store, error) {
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, recommend.Invalidf("artifact store needs a resolver")
	}
	s := &Store{
		manifest: manifest,
		resolver: resolver,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "artifacts").Str("medium", string(manifest.Medium)).Logger()
	return s, nil
}

// Manifest returns the manifest the store was created with.
func (s *Store) Manifest() Manifest { return s.manifest }

// Medium returns the manifest medium.
func (s *Store) Medium() recommend.Medium { return s.manifest.Medium }

// Resolve maps every manifest entry to a local file. It fails with the
// first entry that cannot be resolved.
func (s *Store) Resolve(ctx context.Context) error {
	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()
	if s.paths != nil {
		return nil
	}

	paths := make(map[string]string, len(s.manifest.Entries))
	for _, e := range s.manifest.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := s.resolver.Resolve(ctx, e)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", e.Name, err)
		}
		paths[e.Name] = p
		s.logger.Debug().Str("artifact", e.Name).Str("path", p).Msg("artifact resolved")
	}
	s.paths = paths
	return nil
}

// Warmup resolves and decodes every artifact. It is idempotent: once it
// has succeeded further calls return nil immediately. Concurrent callers
// share one in-flight warmup; a caller whose context ends stops waiting
// without cancelling the others. A failed warmup may be retried.
//
// The shared warmup keeps the values of the context that started it but
// not its cancellation; it is bounded by WithWarmupTimeout instead.
func (s *Store) Warmup(ctx context.Context) error {
	if s.Ready() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ch := s.group.DoChan("warmup", func() (any, error) {
		if s.Ready() {
			return nil, nil
		}
		shared := context.WithoutCancel(ctx)
		if s.warmupTimeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, s.warmupTimeout)
			defer cancel()
		}
		return nil, s.warmup(shared)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) warmup(ctx context.Context) error {
	medium := string(s.manifest.Medium)
	start := time.Now()
	s.logger.Info().Int("artifacts", len(s.manifest.Entries)).Msg("warming up artifact store")

	err := s.load(ctx)
	metrics.ArtifactWarmupDuration.WithLabelValues(medium).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ArtifactWarmups.WithLabelValues(medium, "failure").Inc()
		s.logger.Error().Err(err).Msg("artifact warmup failed")
		return err
	}

	metrics.ArtifactWarmups.WithLabelValues(medium, "success").Inc()
	metrics.ArtifactsReady.WithLabelValues(medium).Set(1)
	s.logger.Info().Dur("duration", time.Since(start)).Msg("artifact store ready")
	return nil
}

func (s *Store) load(ctx context.Context) error {
	if err := s.Resolve(ctx); err != nil {
		return err
	}

	objects := make(map[string]loaded, len(s.manifest.Entries))
	for _, e := range s.manifest.warmupOrder() {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		obj, meta, err := decoders[e.Kind](s.paths[e.Name], s.remote)
		if err != nil {
			return fmt.Errorf("load %s: %w", e.Name, err)
		}
		metrics.ArtifactLoadDuration.WithLabelValues(string(e.Kind)).Observe(time.Since(start).Seconds())
		objects[e.Name] = loaded{entry: e, object: obj, meta: *meta}

		s.logger.Debug().Str("artifact", e.Name).Str("kind", string(e.Kind)).
			Int64("bytes", meta.SizeBytes).Dur("duration", time.Since(start)).Msg("artifact loaded")
	}

	s.objects.Store(&objects)
	return nil
}

// Ready reports whether warmup has completed.
func (s *Store) Ready() bool {
	return s.objects.Load() != nil
}

func (s *Store) lookup(name string) (loaded, error) {
	objects := s.objects.Load()
	if objects == nil {
		return loaded{}, recommend.NotReadyf("artifact store for %s is not warmed up", s.manifest.Medium)
	}
	l, ok := (*objects)[name]
	if !ok {
		return loaded{}, recommend.NotFoundf("artifact %q is not in the %s manifest", name, s.manifest.Medium)
	}
	return l, nil
}

// Get returns the object for name.
func (s *Store) Get(name string) (any, error) {
	l, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return l.object, nil
}

// Metadata returns the envelope metadata of a loaded artifact.
func (s *Store) Metadata(name string) (storage.Metadata, error) {
	l, err := s.lookup(name)
	if err != nil {
		return storage.Metadata{}, err
	}
	return l.meta, nil
}

func typed[T any](s *Store, name string, want Kind) (T, error) {
	var zero T
	l, err := s.lookup(name)
	if err != nil {
		return zero, err
	}
	if l.entry.Kind != want {
		return zero, recommend.Invalidf("artifact %q is %s, not %s", name, l.entry.Kind, want)
	}
	v, ok := l.object.(T)
	if !ok {
		return zero, recommend.Invalidf("artifact %q holds %T", name, l.object)
	}
	return v, nil
}

// ItemIndex returns an id_map artifact.
func (s *Store) ItemIndex(name string) (*itemindex.Index, error) {
	return typed[*itemindex.Index](s, name, KindIDMap)
}

// Dense returns a dense matrix artifact.
func (s *Store) Dense(name string) (*linalg.Dense, error) {
	return typed[*linalg.Dense](s, name, KindDense)
}

// CSR returns a sparse matrix artifact.
func (s *Store) CSR(name string) (*linalg.CSR, error) {
	return typed[*linalg.CSR](s, name, KindSparse)
}

// Graph returns a neighbor graph artifact.
func (s *Store) Graph(name string) (graph.Graph, error) {
	return typed[graph.Graph](s, name, KindGraph)
}

// VectorIndex returns a vector index artifact.
func (s *Store) VectorIndex(name string) (vectorindex.Index, error) {
	idx, err := typed[*vectorindex.Flat](s, name, KindVectorIndex)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Encoder returns an encoder artifact.
func (s *Store) Encoder(name string) (encoder.Encoder, error) {
	return typed[encoder.Encoder](s, name, KindEncoder)
}
