// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/config"
	"github.com/tomtom215/mediarec/internal/dataset"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/artifacts"
	"github.com/tomtom215/mediarec/internal/recommend/models"
)

// movieData writes a small MovieLens-style dataset below <root>/movies.
func movieData(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, string(recommend.MediumMovies))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		dataset.MoviesFile: `movieId,title,genres
1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy
2,Jumanji (1995),Adventure|Children|Fantasy
6,Heat (1995),Action|Crime|Thriller
7,Inside Man (2006),Action|Crime|Thriller
`,
		dataset.TagsFile: `userId,movieId,tag,timestamp
15,1,pixar,1139045764
15,6,heist,1139045764
16,7,heist,1139045764
16,7,bank,1139045764
`,
		dataset.RatingsFile: `userId,movieId,rating,timestamp
100,1,5.0,0
100,2,4.0,0
200,6,5.0,0
200,7,4.0,0
300,1,4.0,0
300,7,5.0,0
300,42,3.0,0
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testOptions(dataDir, outDir string) pipelineOptions {
	cfg := config.Defaults()
	opts := pipelineOptionsFrom(cfg)
	opts.DataDir = dataDir
	opts.OutDir = outDir
	opts.K = 2
	opts.Logger = zerolog.Nop()
	return opts
}

func TestPipeline_BuildMediumTFIDF(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()

	p, err := newPipeline(testOptions(movieData(t), out))
	if err != nil {
		t.Fatalf("newPipeline() error = %v", err)
	}
	report, err := p.buildMedium(ctx, recommend.MediumMovies, []recommend.Method{recommend.MethodTFIDF})
	if err != nil {
		t.Fatalf("buildMedium() error = %v", err)
	}

	if report.Items != 4 || report.Users != 3 || report.Ratings != 6 || report.Dropped != 1 {
		t.Errorf("report = %+v, want 4 items, 3 users, 6 ratings, 1 dropped", report)
	}
	want := artifacts.DefaultManifest(recommend.MediumMovies, recommend.MethodTFIDF)
	if report.Entries != len(want.Entries) {
		t.Errorf("Entries = %d, want %d", report.Entries, len(want.Entries))
	}
	if _, err := os.Stat(filepath.Join(out, artifacts.ListingFile)); err != nil {
		t.Errorf("listing not written: %v", err)
	}

	var buf bytes.Buffer
	if err := verifyMedium(ctx, &buf, out, recommend.MediumMovies, zerolog.Nop()); err != nil {
		t.Fatalf("verifyMedium() error = %v", err)
	}
	if !strings.Contains(buf.String(), "movies/tfidf: ok") {
		t.Errorf("verify output = %q", buf.String())
	}
}

func TestPipeline_ServesBuiltArtifacts(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()

	p, err := newPipeline(testOptions(movieData(t), out))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.buildMedium(ctx, recommend.MediumMovies, []recommend.Method{recommend.MethodTFIDF}); err != nil {
		t.Fatalf("buildMedium() error = %v", err)
	}

	manifest, err := artifacts.LoadManifestFile(filepath.Join(out, "movies", artifacts.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	store, err := artifacts.New(manifest, artifacts.LocalResolver{Root: out})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Warmup(ctx); err != nil {
		t.Fatalf("Warmup() error = %v", err)
	}
	sources, err := models.Build(store, recommend.MethodTFIDF, models.BuildOptions{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("models.Build() error = %v", err)
	}
	engine, err := recommend.NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	v := recommend.Variant{Medium: recommend.MediumMovies, Method: recommend.MethodTFIDF}
	if err := engine.Register(v, *sources); err != nil {
		t.Fatal(err)
	}

	res, err := engine.SimilarByTitle(ctx, v, "Heat (1995)", 10)
	if err != nil {
		t.Fatalf("SimilarByTitle() error = %v", err)
	}
	if len(res.Recommendations) != 2 || res.Recommendations[0].Title != "Inside Man (2006)" {
		t.Errorf("SimilarByTitle() = %+v, want Inside Man first", res.Recommendations)
	}
	for _, r := range res.Recommendations {
		if r.ItemID == 6 {
			t.Errorf("SimilarByTitle() returned the query item: %+v", res.Recommendations)
		}
	}

	if _, err := engine.ForUser(ctx, v, 300, 5, 0); err != nil {
		t.Errorf("ForUser(300) error = %v", err)
	}
}

// fakeEmbeddings serves an OpenAI-style embeddings endpoint that maps each
// input to letter counts of a, e, i and o.
func fakeEmbeddings(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		*calls++
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type datum struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data []datum `json:"data"`
		}{}
		for i, text := range req.Input {
			vec := make([]float32, 4)
			for j, letter := range []string{"a", "e", "i", "o"} {
				vec[j] = float32(strings.Count(strings.ToLower(text), letter)) + 1
			}
			resp.Data = append(resp.Data, datum{Embedding: vec, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestPipeline_BuildMediumSBERT(t *testing.T) {
	calls := 0
	srv := fakeEmbeddings(t, &calls)
	defer srv.Close()

	opts := testOptions(movieData(t), t.TempDir())
	opts.EncoderURL = srv.URL
	opts.EncoderTimeout = 5 * time.Second
	opts.EncodeBatch = 3

	p, err := newPipeline(opts)
	if err != nil {
		t.Fatal(err)
	}
	report, err := p.buildMedium(context.Background(), recommend.MediumMovies, []recommend.Method{recommend.MethodSBERT})
	if err != nil {
		t.Fatalf("buildMedium() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("embedding calls = %d, want 2 batches for 4 items", calls)
	}

	var buf bytes.Buffer
	if err := verifyMedium(context.Background(), &buf, opts.OutDir, report.Medium, zerolog.Nop()); err != nil {
		t.Fatalf("verifyMedium() error = %v", err)
	}
	if !strings.Contains(buf.String(), "movies/sbert: ok") {
		t.Errorf("verify output = %q", buf.String())
	}
}

func TestPipeline_SBERTWithoutEncoder(t *testing.T) {
	p, err := newPipeline(testOptions(movieData(t), t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.buildMedium(context.Background(), recommend.MediumMovies, []recommend.Method{recommend.MethodSBERT})
	if !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("buildMedium() error = %v, want ErrValidation", err)
	}
}

func TestPipeline_MissingData(t *testing.T) {
	p, err := newPipeline(testOptions(t.TempDir(), t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.buildMedium(context.Background(), recommend.MediumBooks, []recommend.Method{recommend.MethodTFIDF})
	if !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("buildMedium() error = %v, want ErrNotFound", err)
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pipelineOptions)
	}{
		{"no data dir", func(o *pipelineOptions) { o.DataDir = "" }},
		{"no out dir", func(o *pipelineOptions) { o.OutDir = "" }},
		{"zero k", func(o *pipelineOptions) { o.K = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("data", "out")
			tt.mutate(&opts)
			if _, err := newPipeline(opts); !errors.Is(err, recommend.ErrValidation) {
				t.Errorf("newPipeline() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestResolveTargets(t *testing.T) {
	cfg := config.Defaults()

	media, methods, err := resolveTargets(cfg, nil, nil)
	if err != nil {
		t.Fatalf("resolveTargets() error = %v", err)
	}
	if len(media) != 2 || len(methods) != 2 {
		t.Errorf("defaults = %v %v, want configured media and methods", media, methods)
	}

	media, methods, err = resolveTargets(cfg, []string{"Books"}, []string{"tfidf"})
	if err != nil {
		t.Fatalf("resolveTargets() error = %v", err)
	}
	if len(media) != 1 || media[0] != recommend.MediumBooks || methods[0] != recommend.MethodTFIDF {
		t.Errorf("resolveTargets() = %v %v", media, methods)
	}

	if _, _, err := resolveTargets(cfg, []string{"games"}, nil); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("unknown medium error = %v, want ErrValidation", err)
	}
	if _, _, err := resolveTargets(cfg, nil, []string{"bm25"}); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("unknown method error = %v, want ErrValidation", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestWriteAll_StopsAtFirstFailure(t *testing.T) {
	errDisk := errors.New("disk full")
	tests := []struct {
		name    string
		fail    int
		wantRan int
		wantErr error
	}{
		{"all succeed", -1, 3, nil},
		{"first fails", 0, 1, errDisk},
		{"second fails", 1, 2, errDisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := 0
			write := func(i int) func() error {
				return func() error {
					ran++
					if i == tt.fail {
						return errDisk
					}
					return nil
				}
			}
			err := writeAll(write(0), write(1), write(2))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("writeAll() error = %v, want %v", err, tt.wantErr)
			}
			if ran != tt.wantRan {
				t.Errorf("writes run = %d, want %d", ran, tt.wantRan)
			}
		})
	}
}
