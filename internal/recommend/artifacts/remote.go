// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/recommend"
)

// ListingFile is the name of the remote listing below the base URL.
const ListingFile = "index.json"

// Listing maps artifact paths to their content digests. It is what a
// remote blob store serves at ListingFile.
type Listing struct {
	Files map[string]ListedFile `json:"files"`
}

// ListedFile is one listed artifact.
type ListedFile struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// RemoteConfig configures a RemoteResolver.
type RemoteConfig struct {
	// BaseURL of the blob store; artifacts live at BaseURL/<path>.
	BaseURL string

	// Timeout bounds a single download.
	// Default: 5m
	Timeout time.Duration

	// RatePerSecond and Burst throttle outbound fetches.
	// Default: 2 per second, burst 4
	RatePerSecond float64
	Burst         int

	// BreakerMinRequests and BreakerFailureRatio decide when the breaker
	// opens; BreakerTimeout is how long it stays open.
	// Default: 10 requests, 0.6, 2m
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerTimeout      time.Duration

	Logger zerolog.Logger
	Client *http.Client
}

func (c *RemoteConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 2
	}
	if c.Burst <= 0 {
		c.Burst = 4
	}
	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = 10
	}
	if c.BreakerFailureRatio <= 0 {
		c.BreakerFailureRatio = 0.6
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 2 * time.Minute
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: c.Timeout}
	}
}

// RemoteResolver downloads artifacts from an HTTP blob store into a
// BlobCache. Downloads are throttled and protected by a circuit breaker.
type RemoteResolver struct {
	cfg     RemoteConfig
	cache   *BlobCache
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
	name    string
	logger  zerolog.Logger

	mu      sync.Mutex
	listing *Listing
}

// NewRemoteResolver creates a resolver against cfg.BaseURL caching into
// cache.
func NewRemoteResolver(cfg RemoteConfig, cache *BlobCache) (*RemoteResolver, error) {
	if cfg.BaseURL == "" {
		return nil, recommend.Invalidf("remote artifact store needs a base URL")
	}
	if cache == nil {
		return nil, recommend.Invalidf("remote artifact store needs a blob cache")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, recommend.Invalidf("remote artifact base URL: %v", err)
	}
	cfg.defaults()

	r := &RemoteResolver{
		cfg:     cfg,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		name:    "artifact-store",
		logger:  cfg.Logger.With().Str("component", "artifacts.remote").Logger(),
	}

	metrics.CircuitBreakerState.WithLabelValues(r.name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(0)

	r.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        r.name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.BreakerFailureRatio
			if shouldTrip {
				r.logger.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("opening circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			r.logger.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		// A missing artifact or a cancelled caller says nothing about the
		// health of the store.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, recommend.ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
	return r, nil
}

// Resolve returns the cached blob for e, downloading it first if needed.
func (r *RemoteResolver) Resolve(ctx context.Context, e Entry) (string, error) {
	listing, err := r.Listing(ctx)
	if err != nil {
		return "", err
	}
	file, ok := listing.Files[e.Path]
	if !ok || file.SHA256 == "" {
		return "", recommend.NotFoundf("artifact %s is not listed at %s", e.Path, r.cfg.BaseURL)
	}

	if _, hit, err := r.cache.Lookup(file.SHA256); err != nil {
		return "", err
	} else if hit {
		metrics.ArtifactFetches.WithLabelValues("cache_hit").Inc()
		return r.cache.BlobPath(file.SHA256), nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	p, err := r.execute(func() (string, error) {
		return r.download(ctx, e.Path, file)
	})
	metrics.ArtifactFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrNotFound):
			metrics.ArtifactFetches.WithLabelValues("not_found").Inc()
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.ArtifactFetches.WithLabelValues("rejected").Inc()
		default:
			metrics.ArtifactFetches.WithLabelValues("error").Inc()
		}
		return "", err
	}

	metrics.ArtifactFetches.WithLabelValues("downloaded").Inc()
	metrics.ArtifactFetchBytes.Add(float64(file.Size))
	r.logger.Info().Str("artifact", e.Name).Str("sha256", file.SHA256).Int64("bytes", file.Size).
		Dur("duration", time.Since(start)).Msg("artifact downloaded")
	return p, nil
}

// Listing returns the remote listing, fetching it on first use.
func (r *RemoteResolver) Listing(ctx context.Context) (*Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listing != nil {
		return r.listing, nil
	}
	l, err := r.execute(func() (string, error) {
		body, err := r.get(ctx, ListingFile)
		if err != nil {
			return "", err
		}
		defer body.Close()
		data, err := io.ReadAll(body)
		return string(data), err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch artifact listing: %w", err)
	}
	var listing Listing
	if err := json.Unmarshal([]byte(l), &listing); err != nil {
		return nil, recommend.Invalidf("parse artifact listing: %v", err)
	}
	// Digests name cache files, so anything but a SHA-256 hex digest is
	// rejected before it reaches the filesystem.
	for path, f := range listing.Files {
		if !isSHA256Hex(f.SHA256) {
			return nil, recommend.Invalidf("artifact listing: %s has malformed sha256 %q", path, f.SHA256)
		}
	}
	r.listing = &listing
	return r.listing, nil
}

// isSHA256Hex reports whether s is a lowercase hex SHA-256 digest.
func isSHA256Hex(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Refresh drops the cached listing so the next Resolve fetches it again.
func (r *RemoteResolver) Refresh() {
	r.mu.Lock()
	r.listing = nil
	r.mu.Unlock()
}

// execute runs fn through the circuit breaker and records the outcome.
func (r *RemoteResolver) execute(fn func() (string, error)) (string, error) {
	result, err := r.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(r.name, "rejected").Inc()
			r.logger.Warn().Err(err).Msg("request rejected by circuit breaker")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(r.name, "failure").Inc()
			counts := r.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(float64(counts.ConsecutiveFailures))
		}
		return "", err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(r.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(0)
	return result, nil
}

func (r *RemoteResolver) get(ctx context.Context, rel string) (io.ReadCloser, error) {
	u, err := url.JoinPath(r.cfg.BaseURL, rel)
	if err != nil {
		return nil, recommend.Invalidf("artifact url for %s: %v", rel, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := r.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, recommend.NotFoundf("remote artifact %s", u)
	case resp.StatusCode != http.StatusOK:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", u, resp.StatusCode)
	}
	return resp.Body, nil
}

// download streams rel into the cache, verifying its digest before the blob
// becomes visible.
func (r *RemoteResolver) download(ctx context.Context, rel string, file ListedFile) (string, error) {
	body, err := r.get(ctx, rel)
	if err != nil {
		return "", err
	}
	defer body.Close()

	dest := r.cache.BlobPath(file.SHA256)
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rel, err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != file.SHA256 {
		return "", fmt.Errorf("download %s: sha256 %s, listing says %s", rel, got, file.SHA256)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("install blob: %w", err)
	}
	if err := r.cache.Put(BlobRecord{SHA256: file.SHA256, Source: rel, Size: n, FetchedAt: time.Now().UTC()}); err != nil {
		return "", err
	}
	return dest, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
