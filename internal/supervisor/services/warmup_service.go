// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/logging"
	"github.com/tomtom215/mediarec/internal/recommend"
)

// DefaultWarmupTimeout bounds one warmup attempt when none is configured.
const DefaultWarmupTimeout = 10 * time.Minute

// ArtifactWarmer loads the artifacts of one medium into memory.
// Satisfied by *artifacts.Store.
type ArtifactWarmer interface {
	Warmup(ctx context.Context) error
	Medium() recommend.Medium
}

// Registrar assembles the models of a warmed-up medium and registers its
// variants with the engine.
type Registrar func(ctx context.Context) error

// WarmupService loads one medium's artifacts and registers its variants.
//
// A failed attempt returns its error so the supervisor restarts the service
// with backoff. Once the variants are registered the service idles until
// shutdown; later restarts skip straight to idling.
type WarmupService struct {
	store    ArtifactWarmer
	register Registrar
	timeout  time.Duration
	logger   zerolog.Logger
	name     string

	ready    atomic.Bool
	attempts atomic.Int32
	lastErr  atomic.Pointer[string]
}

// NewWarmupService creates the warmup service of store's medium.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWarmupService(store ArtifactWarmer, register Registrar, timeout time.Duration, logger zerolog.Logger) *WarmupService {
	if timeout <= 0 {
		timeout = DefaultWarmupTimeout
	}
	medium := string(store.Medium())
	return &WarmupService{
		store:    store,
		register: register,
		timeout:  timeout,
		logger:   logger.With().Str("service", "warmup").Str("medium", medium).Logger(),
		name:     "warmup-" + medium,
	}
}

// Serve implements suture.Service.
func (s *WarmupService) Serve(ctx context.Context) error {
	if !s.ready.Load() {
		if err := s.warmup(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			msg := err.Error()
			s.lastErr.Store(&msg)
			return err
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

// warmup runs one attempt. Each attempt gets its own correlation id so its
// store and registration logs can be told apart from earlier attempts.
func (s *WarmupService) warmup(ctx context.Context) error {
	attempt := s.attempts.Add(1)
	start := time.Now()
	ctx = logging.ContextWithLogger(logging.ContextWithNewCorrelationID(ctx), s.logger)
	log := logging.Ctx(ctx)
	log.Info().Int32("attempt", attempt).Dur("timeout", s.timeout).Msg("warming up artifacts")

	warmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Warmup(warmCtx); err != nil {
		log.Warn().Err(err).Int32("attempt", attempt).Msg("warmup failed, will retry")
		return fmt.Errorf("warmup %s: %w", s.store.Medium(), err)
	}
	if err := s.register(ctx); err != nil {
		log.Warn().Err(err).Int32("attempt", attempt).Msg("registration failed, will retry")
		return fmt.Errorf("register %s: %w", s.store.Medium(), err)
	}

	s.ready.Store(true)
	s.lastErr.Store(nil)
	log.Info().Dur("duration", time.Since(start)).Msg("variants registered")
	return nil
}

// Ready reports whether the medium's variants are registered.
func (s *WarmupService) Ready() bool {
	return s.ready.Load()
}

// Attempts returns how many warmups have been started.
func (s *WarmupService) Attempts() int {
	return int(s.attempts.Load())
}

// LastError returns the message of the most recent failed attempt, or ""
// once an attempt succeeded.
func (s *WarmupService) LastError() string {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

// String implements fmt.Stringer for suture's event log.
func (s *WarmupService) String() string {
	return s.name
}
