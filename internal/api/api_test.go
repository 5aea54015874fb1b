// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/models"
	"github.com/tomtom215/mediarec/internal/recommend"
)

var (
	moviesTFIDF = recommend.Variant{Medium: recommend.MediumMovies, Method: recommend.MethodTFIDF}
	moviesSBERT = recommend.Variant{Medium: recommend.MediumMovies, Method: recommend.MethodSBERT}
	booksTFIDF  = recommend.Variant{Medium: recommend.MediumBooks, Method: recommend.MethodTFIDF}
)

// fakeEngine records the last call and answers with result or err.
type fakeEngine struct {
	mu         sync.Mutex
	registered []recommend.Variant
	result     *recommend.Result
	err        error
	block      bool

	lastOp      string
	lastVariant recommend.Variant
	lastTitle   string
	lastTopN    int
	lastK       int
	lastUser    int64
	lastRatings []recommend.Rating
	lastHybrid  recommend.HybridRequest
}

func (f *fakeEngine) answer(ctx context.Context, op string, v recommend.Variant) (*recommend.Result, error) {
	f.lastOp = op
	f.lastVariant = v
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &recommend.Result{
		Variant: v,
		Recommendations: []recommend.Recommendation{
			{Index: 3, ItemID: 7, Title: "Inside Man (2006)", Score: 0.9},
		},
	}, nil
}

func (f *fakeEngine) SimilarByTitle(ctx context.Context, v recommend.Variant, title string, topN int) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTitle, f.lastTopN = title, topN
	return f.answer(ctx, opContent, v)
}

func (f *fakeEngine) SimilarByDescription(ctx context.Context, v recommend.Variant, text string, topN int) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTitle, f.lastTopN = text, topN
	return f.answer(ctx, opDescription, v)
}

func (f *fakeEngine) ItemCFByTitle(ctx context.Context, v recommend.Variant, title string, topN int) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTitle, f.lastTopN = title, topN
	return f.answer(ctx, opItemCF, v)
}

func (f *fakeEngine) ForRatings(ctx context.Context, v recommend.Variant, ratings []recommend.Rating, topN, k int) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRatings, f.lastTopN, f.lastK = ratings, topN, k
	return f.answer(ctx, opUserCF, v)
}

func (f *fakeEngine) ForUser(ctx context.Context, v recommend.Variant, userID int64, topN, k int) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser, f.lastTopN, f.lastK = userID, topN, k
	return f.answer(ctx, opUser, v)
}

func (f *fakeEngine) Hybrid(ctx context.Context, v recommend.Variant, req recommend.HybridRequest) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastHybrid = req
	return f.answer(ctx, opHybrid, v)
}

func (f *fakeEngine) Variants() []recommend.Variant { return f.registered }
func (f *fakeEngine) Ready() bool                   { return len(f.registered) > 0 }
func (f *fakeEngine) Config() *recommend.Config     { return recommend.DefaultConfig() }

type fakeWarmup struct {
	ready    bool
	attempts int
	lastErr  string
}

func (w fakeWarmup) Ready() bool       { return w.ready }
func (w fakeWarmup) Attempts() int     { return w.attempts }
func (w fakeWarmup) LastError() string { return w.lastErr }

// newTestRouter configures movies/tfidf, movies/sbert and books/tfidf with
// rate limiting disabled.
func newTestRouter(t *testing.T, engine *fakeEngine, mutate func(*HandlerConfig)) http.Handler {
	t.Helper()
	cfg := HandlerConfig{
		Variants:       []recommend.Variant{moviesTFIDF, moviesSBERT, booksTFIDF},
		RequestTimeout: time.Second,
		Logger:         zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h, err := NewHandler(engine, cfg)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	return NewRouter(h, NewChiMiddleware(mwCfg))
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, resp
}

func allVariants() []recommend.Variant {
	return []recommend.Variant{moviesTFIDF, moviesSBERT, booksTFIDF}
}

func TestNewHandler_Validation(t *testing.T) {
	if _, err := NewHandler(nil, HandlerConfig{Variants: allVariants()}); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("nil engine error = %v", err)
	}
	if _, err := NewHandler(&fakeEngine{}, HandlerConfig{}); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("no variants error = %v", err)
	}
}

func TestContentByTitle(t *testing.T) {
	engine := &fakeEngine{registered: allVariants()}
	router := newTestRouter(t, engine, nil)

	rec, resp := do(t, router, http.MethodGet, "/api/v1/movies/recommend/content?title=Heat+(1995)&top_n=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if resp.Status != models.StatusSuccess || resp.Error != nil {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Metadata.RequestID == "" || rec.Header().Get("X-Request-ID") != resp.Metadata.RequestID {
		t.Errorf("request id not propagated: %q vs %q", resp.Metadata.RequestID, rec.Header().Get("X-Request-ID"))
	}
	if engine.lastOp != opContent || engine.lastVariant != moviesTFIDF {
		t.Errorf("called %s on %v, want content on movies/tfidf", engine.lastOp, engine.lastVariant)
	}
	if engine.lastTitle != "Heat (1995)" || engine.lastTopN != 5 {
		t.Errorf("title %q topN %d", engine.lastTitle, engine.lastTopN)
	}
	if rec.Header().Get("ETag") == "" || rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing headers: %v", rec.Header())
	}
}

func TestVariantResolution(t *testing.T) {
	tests := []struct {
		name       string
		registered []recommend.Variant
		target     string
		wantStatus int
		wantCode   string
		wantVar    recommend.Variant
	}{
		{
			name:       "explicit method",
			registered: allVariants(),
			target:     "/api/v1/movies/recommend/content?title=Heat&method=SBERT",
			wantStatus: http.StatusOK,
			wantVar:    moviesSBERT,
		},
		{
			name:       "unknown medium",
			registered: allVariants(),
			target:     "/api/v1/games/recommend/content?title=Heat",
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "unknown method",
			registered: allVariants(),
			target:     "/api/v1/movies/recommend/content?title=Heat&method=bm25",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "variant not configured",
			registered: allVariants(),
			target:     "/api/v1/books/recommend/content?title=Emma&method=sbert",
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "variant still warming up",
			registered: []recommend.Variant{moviesTFIDF},
			target:     "/api/v1/books/recommend/content?title=Emma",
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeNotReady,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{registered: tt.registered}
			rec, resp := do(t, newTestRouter(t, engine, nil), http.MethodGet, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" && (resp.Error == nil || resp.Error.Code != tt.wantCode) {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			if tt.wantStatus == http.StatusOK && engine.lastVariant != tt.wantVar {
				t.Errorf("variant = %v, want %v", engine.lastVariant, tt.wantVar)
			}
		})
	}
}

func TestEngineErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		block      bool
		wantStatus int
		wantCode   string
	}{
		{"not found", recommend.NotFoundf("title %q not in catalog", "Heet"), false, http.StatusNotFound, ErrCodeNotFound},
		{"validation", recommend.Invalidf("no valid user ratings after normalization"), false, http.StatusBadRequest, ErrCodeValidation},
		{"not ready", recommend.NotReadyf("no variants registered"), false, http.StatusServiceUnavailable, ErrCodeNotReady},
		{"internal", errors.New("graph row 12 out of range"), false, http.StatusInternalServerError, ErrCodeInternal},
		{"timeout", nil, true, http.StatusGatewayTimeout, ErrCodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{registered: allVariants(), err: tt.err, block: tt.block}
			router := newTestRouter(t, engine, func(c *HandlerConfig) { c.RequestTimeout = 20 * time.Millisecond })

			rec, resp := do(t, router, http.MethodGet, "/api/v1/movies/recommend/item-cf?title=Heat", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp.Status != models.StatusError || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("resp = %+v", resp)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(resp.Error.Message, "row 12") {
				t.Errorf("internal error leaked: %q", resp.Error.Message)
			}
		})
	}
}

func TestQueryValidation(t *testing.T) {
	engine := &fakeEngine{registered: allVariants()}
	router := newTestRouter(t, engine, nil)

	tests := []struct {
		name      string
		target    string
		wantField string
	}{
		{"missing title", "/api/v1/movies/recommend/content", "title"},
		{"blank title", "/api/v1/movies/recommend/item-cf?title=+++", "title"},
		{"negative top_n", "/api/v1/movies/recommend/content?title=Heat&top_n=-1", "top_n"},
		{"missing description", "/api/v1/movies/recommend/content-description", "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, router, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp.Error == nil || !strings.Contains(rec.Body.String(), `"`+tt.wantField+`"`) {
				t.Errorf("error does not name %s: %s", tt.wantField, rec.Body.String())
			}
		})
	}

	rec, _ := do(t, router, http.MethodGet, "/api/v1/movies/recommend/content?title=Heat&top_n=ten", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed top_n status = %d, want 400", rec.Code)
	}
}

func TestContentByDescription(t *testing.T) {
	engine := &fakeEngine{registered: allVariants()}
	rec, _ := do(t, newTestRouter(t, engine, nil), http.MethodGet,
		"/api/v1/books/recommend/content-description?description=a+heist+in+a+bank", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if engine.lastOp != opDescription || engine.lastTitle != "a heist in a bank" || engine.lastVariant != booksTFIDF {
		t.Errorf("call = %s %q %v", engine.lastOp, engine.lastTitle, engine.lastVariant)
	}
}

func TestUserCF(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"ratings":[{"title":"Heat (1995)","value":5},{"title":"Jumanji (1995)","value":3.5}],"top_n":3,"k_similar_users":20}`, http.StatusOK},
		{"empty ratings", `{"ratings":[]}`, http.StatusBadRequest},
		{"rating above five", `{"ratings":[{"title":"Heat (1995)","value":6}]}`, http.StatusBadRequest},
		{"rating without title", `{"ratings":[{"value":4}]}`, http.StatusBadRequest},
		{"malformed json", `{"ratings":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{registered: allVariants()}
			rec, _ := do(t, newTestRouter(t, engine, nil), http.MethodPost, "/api/v1/movies/recommend/user-cf", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if len(engine.lastRatings) != 2 || engine.lastTopN != 3 || engine.lastK != 20 {
					t.Errorf("ratings %v topN %d k %d", engine.lastRatings, engine.lastTopN, engine.lastK)
				}
			}
		})
	}

	engine := &fakeEngine{registered: allVariants()}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/movies/recommend/user-cf", strings.NewReader(`ratings=1`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newTestRouter(t, engine, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("form body status = %d, want 400", rec.Code)
	}
}

func TestForUser(t *testing.T) {
	engine := &fakeEngine{registered: allVariants()}
	router := newTestRouter(t, engine, nil)

	rec, _ := do(t, router, http.MethodGet, "/api/v1/movies/recommend/users/300?top_n=4&k_similar_users=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if engine.lastUser != 300 || engine.lastTopN != 4 || engine.lastK != 10 {
		t.Errorf("user %d topN %d k %d", engine.lastUser, engine.lastTopN, engine.lastK)
	}

	rec, _ = do(t, router, http.MethodGet, "/api/v1/movies/recommend/users/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-integer user status = %d, want 400", rec.Code)
	}
}

func TestHybrid(t *testing.T) {
	engine := &fakeEngine{registered: allVariants()}
	router := newTestRouter(t, engine, nil)

	body := `{"title":" Heat (1995) ","ratings":[{"title":"Inside Man (2006)","value":4}],"alpha":0.6,"beta":0.2,"top_n":5}`
	rec, _ := do(t, router, http.MethodPost, "/api/v1/movies/recommend/hybrid", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	got := engine.lastHybrid
	if got.Title != "Heat (1995)" || got.TopN != 5 || len(got.Ratings) != 1 {
		t.Errorf("hybrid request = %+v", got)
	}
	if got.Alpha == nil || *got.Alpha != 0.6 || got.Beta == nil || *got.Beta != 0.2 {
		t.Errorf("weights = %v %v", got.Alpha, got.Beta)
	}

	rec, _ = do(t, router, http.MethodPost, "/api/v1/movies/recommend/hybrid", `{"title":"Heat (1995)"}`)
	if rec.Code != http.StatusOK || engine.lastHybrid.Alpha != nil {
		t.Errorf("omitted weights: status %d alpha %v", rec.Code, engine.lastHybrid.Alpha)
	}

	rec, _ = do(t, router, http.MethodPost, "/api/v1/movies/recommend/hybrid", `{"title":"Heat (1995)","alpha":1.5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("alpha 1.5 status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		registered []recommend.Variant
		warmups    map[recommend.Medium]WarmupState
		wantStatus string
		wantReady  int
	}{
		{
			name:       "all registered",
			registered: allVariants(),
			wantStatus: healthReady,
			wantReady:  http.StatusOK,
		},
		{
			name:       "warming",
			registered: []recommend.Variant{moviesTFIDF, moviesSBERT},
			warmups:    map[recommend.Medium]WarmupState{recommend.MediumBooks: fakeWarmup{attempts: 1}},
			wantStatus: healthWarming,
			wantReady:  http.StatusServiceUnavailable,
		},
		{
			name:       "degraded",
			registered: []recommend.Variant{moviesTFIDF, moviesSBERT},
			warmups:    map[recommend.Medium]WarmupState{recommend.MediumBooks: fakeWarmup{attempts: 3, lastErr: "remote store unavailable"}},
			wantStatus: healthDegraded,
			wantReady:  http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{registered: tt.registered}
			router := newTestRouter(t, engine, func(c *HandlerConfig) { c.Warmups = tt.warmups })

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("health status = %d", rec.Code)
			}
			var resp struct {
				Data models.HealthStatus `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Data.Status != tt.wantStatus || len(resp.Data.Variants) != 3 {
				t.Errorf("health = %+v", resp.Data)
			}

			rec, _ = do(t, router, http.MethodGet, "/api/v1/health/ready", "")
			if rec.Code != tt.wantReady {
				t.Errorf("ready status = %d, want %d", rec.Code, tt.wantReady)
			}
		})
	}

	rec, _ := do(t, newTestRouter(t, &fakeEngine{}, nil), http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
}

func TestVariantsAndRouting(t *testing.T) {
	engine := &fakeEngine{registered: []recommend.Variant{moviesTFIDF}}
	router := newTestRouter(t, engine, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/variants", nil))
	var resp struct {
		Data variantsPayload `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.Configured) != 3 || len(resp.Data.Registered) != 1 || resp.Data.DefaultMethod != recommend.MethodTFIDF {
		t.Errorf("variants = %+v", resp.Data)
	}

	rec, resp2 := do(t, router, http.MethodGet, "/api/v1/nowhere", "")
	if rec.Code != http.StatusNotFound || resp2.Error == nil || resp2.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route = %d %+v", rec.Code, resp2.Error)
	}
	rec, resp2 = do(t, router, http.MethodDelete, "/api/v1/movies/recommend/content", "")
	if rec.Code != http.StatusMethodNotAllowed || resp2.Error == nil || resp2.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("wrong method = %d %+v", rec.Code, resp2.Error)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("api_requests_total")) {
		t.Errorf("/metrics = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	engine := &fakeEngine{registered: allVariants()}
	h, err := NewHandler(engine, HandlerConfig{Variants: allVariants(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitRequests = 1
	mwCfg.RateLimitWindow = time.Minute
	router := NewRouter(h, NewChiMiddleware(mwCfg))

	first, _ := do(t, router, http.MethodGet, "/api/v1/movies/recommend/content?title=Heat", "")
	second, resp := do(t, router, http.MethodGet, "/api/v1/movies/recommend/content?title=Heat", "")
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests || resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("second = %d %+v", second.Code, resp.Error)
	}

	health, _ := do(t, router, http.MethodGet, "/api/v1/health/live", "")
	if health.Code != http.StatusOK {
		t.Errorf("health shares the recommendation limit: %d", health.Code)
	}
}

func TestCORS(t *testing.T) {
	engine := &fakeEngine{registered: allVariants()}
	h, err := NewHandler(engine, HandlerConfig{Variants: allVariants(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	mwCfg.RateLimitDisabled = true
	router := NewRouter(h, NewChiMiddleware(mwCfg))

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example.com", "https://app.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/variants", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("Heat\n(1995)\x7f"); got != `Heat\x0a(1995)\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
