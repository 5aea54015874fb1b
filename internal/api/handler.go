// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/logging"
	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/middleware"
	"github.com/tomtom215/mediarec/internal/recommend"
)

// Recommender is the engine surface the handlers call. Satisfied by
// *recommend.Engine.
type Recommender interface {
	SimilarByTitle(ctx context.Context, v recommend.Variant, title string, topN int) (*recommend.Result, error)
	SimilarByDescription(ctx context.Context, v recommend.Variant, text string, topN int) (*recommend.Result, error)
	ItemCFByTitle(ctx context.Context, v recommend.Variant, title string, topN int) (*recommend.Result, error)
	ForRatings(ctx context.Context, v recommend.Variant, ratings []recommend.Rating, topN, kSimilarUsers int) (*recommend.Result, error)
	ForUser(ctx context.Context, v recommend.Variant, userID int64, topN, kSimilarUsers int) (*recommend.Result, error)
	Hybrid(ctx context.Context, v recommend.Variant, req recommend.HybridRequest) (*recommend.Result, error)
	Variants() []recommend.Variant
	Ready() bool
	Config() *recommend.Config
}

// WarmupState reports the warmup progress of one medium. Satisfied by
// *services.WarmupService.
type WarmupState interface {
	Ready() bool
	Attempts() int
	LastError() string
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	// Variants are the configured variants, in configuration order. The
	// first method listed is the default of requests that name none.
	Variants []recommend.Variant

	// RequestTimeout bounds one engine call.
	RequestTimeout time.Duration

	// Warmups reports per-medium warmup state for /health. Optional.
	Warmups map[recommend.Medium]WarmupState

	// Performance feeds /stats/endpoints. Optional.
	Performance *middleware.PerformanceMonitor

	Version string
	Logger  zerolog.Logger
}

// Handler serves the recommendation and health routes.
type Handler struct {
	engine        Recommender
	variants      []recommend.Variant
	defaultMethod recommend.Method
	timeout       time.Duration
	warmups       map[recommend.Medium]WarmupState
	perf          *middleware.PerformanceMonitor
	version       string
	startTime     time.Time
	logger        zerolog.Logger
}

// NewHandler creates a handler over engine. At least one variant must be
// configured.
func NewHandler(engine Recommender, cfg HandlerConfig) (*Handler, error) {
	if engine == nil {
		return nil, recommend.Invalidf("api: engine is required")
	}
	if len(cfg.Variants) == 0 {
		return nil, recommend.Invalidf("api: at least one variant must be configured")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Handler{
		engine:        engine,
		variants:      slices.Clone(cfg.Variants),
		defaultMethod: cfg.Variants[0].Method,
		timeout:       cfg.RequestTimeout,
		warmups:       cfg.Warmups,
		perf:          cfg.Performance,
		version:       cfg.Version,
		startTime:     time.Now(),
		logger:        cfg.Logger.With().Str("component", "api").Logger(),
	}, nil
}

// variant resolves the {medium} URL parameter and an optional method.
// Unknown media and unconfigured variants are NotFound; configured
// variants that are not registered yet are NotReady.
func (h *Handler) variant(r *http.Request, method string) (recommend.Variant, error) {
	medium, err := recommend.ParseMedium(chi.URLParam(r, "medium"))
	if err != nil {
		return recommend.Variant{}, recommend.NotFoundf("unknown medium %q", chi.URLParam(r, "medium"))
	}

	m := h.defaultMethod
	if strings.TrimSpace(method) != "" {
		if m, err = recommend.ParseMethod(method); err != nil {
			return recommend.Variant{}, err
		}
	}

	v := recommend.Variant{Medium: medium, Method: m}
	if !slices.Contains(h.variants, v) {
		return recommend.Variant{}, recommend.NotFoundf("variant %s is not configured", v)
	}
	if !slices.Contains(h.engine.Variants(), v) {
		return recommend.Variant{}, recommend.NotReadyf("variant %s is still warming up", v)
	}
	return v, nil
}

// operation runs one engine call under the request timeout and records
// its outcome.
func (h *Handler) operation(w http.ResponseWriter, r *http.Request, name string, v recommend.Variant,
	call func(ctx context.Context) (*recommend.Result, error)) {
	r = r.WithContext(logging.ContextWithLogger(
		logging.ContextWithVariant(r.Context(), v.String()), h.logger))
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	res, err := call(ctx)
	elapsed := time.Since(start)

	count := 0
	if res != nil {
		count = len(res.Recommendations)
	}
	metrics.RecordRecommendation(name, v.String(),
		metrics.Classify(err, recommend.ErrNotFound, recommend.ErrValidation, recommend.ErrNotReady),
		count, elapsed)

	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	logging.Ctx(ctx).Debug().
		Str("operation", name).
		Int("results", count).
		Int("skipped", len(res.Skipped)).
		Dur("duration", elapsed).
		Msg("recommendation served")

	respondSuccess(w, r, res, elapsed)
}
