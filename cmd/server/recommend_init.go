// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/api"
	"github.com/tomtom215/mediarec/internal/config"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/artifacts"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
	"github.com/tomtom215/mediarec/internal/recommend/models"
	"github.com/tomtom215/mediarec/internal/supervisor/services"
)

// RecommendComponents holds the engine and the per-medium warmups feeding it.
type RecommendComponents struct {
	Engine  *recommend.Engine
	Warmups map[recommend.Medium]*services.WarmupService

	cache *artifacts.BlobCache
}

// Close releases the blob cache, if one was opened.
func (c *RecommendComponents) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

// WarmupStates adapts the warmups for the API health report.
func (c *RecommendComponents) WarmupStates() map[recommend.Medium]api.WarmupState {
	out := make(map[recommend.Medium]api.WarmupState, len(c.Warmups))
	for m, w := range c.Warmups {
		out[m] = w
	}
	return out
}

// initRecommend creates the engine and one warmup service per configured
// medium. Nothing is loaded yet; the services do that once supervised.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(cfg *config.Config, logger zerolog.Logger) (*RecommendComponents, error) {
	engine, err := recommend.NewEngine(cfg.EngineConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	comps := &RecommendComponents{
		Engine:  engine,
		Warmups: make(map[recommend.Medium]*services.WarmupService),
	}

	resolver, cache, err := buildResolver(cfg)
	if err != nil {
		return nil, err
	}
	comps.cache = cache

	var storeOpts []artifacts.Option
	storeOpts = append(storeOpts,
		artifacts.WithLogger(logger),
		artifacts.WithWarmupTimeout(cfg.Artifacts.WarmupTimeout))
	if cfg.Encoder.URL != "" {
		storeOpts = append(storeOpts, artifacts.WithRemoteEncoder(
			encoder.RemoteFactoryFor(cfg.Encoder.URL, cfg.Encoder.APIKey, cfg.Encoder.Timeout)))
	}

	methods := methodsOf(cfg.Variants())
	buildOpts := models.BuildOptions{
		Content: models.ContentOptions{
			CacheSize: cfg.Recommend.TextCacheSize,
			CacheTTL:  cfg.Recommend.TextCacheTTL,
		},
		Logger: logger,
	}

	for _, medium := range cfg.Media() {
		manifest, err := loadManifest(cfg.Artifacts.Dir, medium, methods, logger)
		if err != nil {
			_ = comps.Close()
			return nil, err
		}
		store, err := artifacts.New(manifest, resolver, storeOpts...)
		if err != nil {
			_ = comps.Close()
			return nil, fmt.Errorf("%s artifact store: %w", medium, err)
		}

		register := registrarFor(engine, store, medium, methods, buildOpts)
		comps.Warmups[medium] = services.NewWarmupService(store, register, cfg.Artifacts.WarmupTimeout, logger)
	}

	logger.Info().
		Strs("media", cfg.Recommend.Media).
		Strs("methods", cfg.Recommend.Methods).
		Str("artifacts_dir", cfg.Artifacts.Dir).
		Bool("remote", cfg.Artifacts.RemoteURL != "").
		Msg("Recommendation engine initialized")

	return comps, nil
}

// buildResolver resolves artifacts below the local root, falling back to
// the remote store when one is configured. The returned cache is nil when
// there is no remote store.
func buildResolver(cfg *config.Config) (artifacts.Resolver, *artifacts.BlobCache, error) {
	local := artifacts.LocalResolver{Root: cfg.Artifacts.Dir}
	remoteCfg := cfg.RemoteConfig()
	if remoteCfg == nil {
		return local, nil, nil
	}

	cache, err := artifacts.OpenBlobCache(cfg.Artifacts.CacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open blob cache: %w", err)
	}
	remote, err := artifacts.NewRemoteResolver(*remoteCfg, cache)
	if err != nil {
		_ = cache.Close()
		return nil, nil, fmt.Errorf("create remote resolver: %w", err)
	}
	return artifacts.Chain{local, remote}, cache, nil
}

// loadManifest reads <root>/<medium>/manifest.yaml. Without one, the
// standard layout for the configured methods is assumed.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func loadManifest(root string, medium recommend.Medium, methods []recommend.Method, logger zerolog.Logger) (artifacts.Manifest, error) {
	file := filepath.Join(root, string(medium), artifacts.ManifestFile)
	manifest, err := artifacts.LoadManifestFile(file)
	switch {
	case err == nil:
		if manifest.Medium != medium {
			return artifacts.Manifest{}, recommend.Invalidf("manifest %s is for %s", file, manifest.Medium)
		}
		return manifest, nil
	case errors.Is(err, recommend.ErrNotFound):
		logger.Warn().Str("medium", string(medium)).Str("manifest", file).
			Msg("No manifest found, assuming the default artifact layout")
		return artifacts.DefaultManifest(medium, methods...), nil
	default:
		return artifacts.Manifest{}, err
	}
}

// registrarFor returns the warmup step that assembles the models of every
// method of medium and registers them with the engine.
//
//nolint:gocritic // buildOpts passed by value is shared across registrars
func registrarFor(engine *recommend.Engine, store *artifacts.Store, medium recommend.Medium, methods []recommend.Method, buildOpts models.BuildOptions) services.Registrar {
	return func(ctx context.Context) error {
		for _, method := range methods {
			if err := ctx.Err(); err != nil {
				return err
			}
			sources, err := models.Build(store, method, buildOpts)
			if err != nil {
				return fmt.Errorf("%s/%s models: %w", medium, method, err)
			}
			v := recommend.Variant{Medium: medium, Method: method}
			if err := engine.Register(v, *sources); err != nil {
				return err
			}
		}
		return nil
	}
}

// methodsOf returns the distinct methods of vs in order.
func methodsOf(vs []recommend.Variant) []recommend.Method {
	seen := make(map[recommend.Method]bool, len(vs))
	var out []recommend.Method
	for _, v := range vs {
		if !seen[v.Method] {
			seen[v.Method] = true
			out = append(out, v.Method)
		}
	}
	return out
}
