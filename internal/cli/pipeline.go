// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/tomtom215/mediarec/internal/dataset"
	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/artifacts"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
	"github.com/tomtom215/mediarec/internal/recommend/graph"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
	"github.com/tomtom215/mediarec/internal/recommend/vectorindex"
)

// pipelineOptions configures one builder run.
type pipelineOptions struct {
	// DataDir holds one subdirectory of raw tables per medium.
	DataDir string
	// OutDir is the artifact root.
	OutDir string

	K            int
	BatchSize    int
	Workers      int
	UniqueTitles bool

	TFIDF encoder.TFIDFOptions

	EncoderURL     string
	EncoderAPIKey  string
	EncoderTimeout time.Duration
	SBERTModel     string
	EncodeBatch    int

	// Progress receives progress bars. Nil disables them.
	Progress io.Writer
	Logger   zerolog.Logger
}

// pipeline runs the offline build of one or more media.
type pipeline struct {
	opts   pipelineOptions
	logger zerolog.Logger
}

// mediumReport summarizes the build of one medium.
type mediumReport struct {
	Medium   recommend.Medium
	Methods  []recommend.Method
	Items    int
	Users    int
	Ratings  int
	Dropped  int
	Entries  int
	Duration time.Duration
}

func newPipeline(opts pipelineOptions) (*pipeline, error) {
	if opts.DataDir == "" {
		return nil, recommend.Invalidf("data directory is required")
	}
	if opts.OutDir == "" {
		return nil, recommend.Invalidf("output directory is required")
	}
	if opts.K < 1 {
		return nil, recommend.Invalidf("k must be at least 1, got %d", opts.K)
	}
	if opts.EncodeBatch < 1 {
		opts.EncodeBatch = 64
	}
	return &pipeline{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "builder").Logger(),
	}, nil
}

// stage times fn and records it as a build stage.
func (p *pipeline) stage(medium recommend.Medium, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.RecordBuildStage(name, elapsed)
	if err != nil {
		return fmt.Errorf("%s %s: %w", medium, name, err)
	}
	p.logger.Info().
		Str("medium", string(medium)).
		Str("stage", name).
		Dur("duration", elapsed).
		Msg("stage complete")
	return nil
}

// bar returns a progress bar over total steps, writing nowhere when
// progress output is disabled.
func (p *pipeline) bar(total int, description string) *progressbar.ProgressBar {
	out := p.opts.Progress
	if out == nil {
		out = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
}

// shared holds the method-independent results of a medium.
type shared struct {
	catalog      *dataset.Catalog
	items        *itemindex.Index
	interactions *dataset.Interactions
	ratings      int
}

// buildMedium builds and writes every artifact of medium for methods.
func (p *pipeline) buildMedium(ctx context.Context, medium recommend.Medium, methods []recommend.Method) (*mediumReport, error) {
	if len(methods) == 0 {
		return nil, recommend.Invalidf("no methods requested for %s", medium)
	}
	start := time.Now()

	w, err := artifacts.NewWriter(p.opts.OutDir, medium)
	if err != nil {
		return nil, err
	}

	s, err := p.loadShared(ctx, medium)
	if err != nil {
		return nil, err
	}
	if err := p.writeShared(ctx, w, medium, s); err != nil {
		return nil, err
	}

	for _, method := range methods {
		if err := p.buildMethod(ctx, w, medium, method, s); err != nil {
			return nil, err
		}
	}

	if err := w.Finish(); err != nil {
		return nil, fmt.Errorf("%s manifest: %w", medium, err)
	}

	return &mediumReport{
		Medium:   medium,
		Methods:  methods,
		Items:    s.items.Len(),
		Users:    s.interactions.Users.Len(),
		Ratings:  s.interactions.Matrix.NNZ(),
		Dropped:  s.interactions.Dropped,
		Entries:  len(w.Manifest().Entries),
		Duration: time.Since(start),
	}, nil
}

func (p *pipeline) loadShared(ctx context.Context, medium recommend.Medium) (*shared, error) {
	reader, err := dataset.Open(filepath.Join(p.opts.DataDir, string(medium)), medium, p.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }() //nolint:errcheck // in-memory connection

	s := &shared{}
	var rows []dataset.RatingRow
	if err := p.stage(medium, "load", func() error {
		if s.catalog, err = reader.LoadCatalog(ctx); err != nil {
			return err
		}
		rows, err = reader.LoadRatings(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	s.ratings = len(rows)

	if err := p.stage(medium, "interactions", func() error {
		var opts []itemindex.Option
		if p.opts.UniqueTitles {
			opts = append(opts, itemindex.RequireUniqueTitles())
		}
		if s.items, err = itemindex.Build(s.catalog.Records, opts...); err != nil {
			return err
		}
		s.interactions, err = dataset.BuildInteractions(s.items, rows)
		return err
	}); err != nil {
		return nil, err
	}
	if s.interactions.Dropped > 0 {
		p.logger.Warn().
			Str("medium", string(medium)).
			Int("dropped", s.interactions.Dropped).
			Msg("ratings reference items missing from the catalog")
	}
	return s, nil
}

func (p *pipeline) writeShared(ctx context.Context, w *artifacts.Writer, medium recommend.Medium, s *shared) error {
	var cf graph.Graph
	var elapsed time.Duration
	if err := p.stage(medium, "item_cf", func() error {
		start := time.Now()
		bar := p.bar(s.items.Len(), fmt.Sprintf("%s item-CF", medium))
		var err error
		cf, err = graph.BuildItemCF(ctx, s.interactions.Matrix, graph.ItemCFOptions{
			K:         p.opts.K,
			BatchSize: p.opts.BatchSize,
			Workers:   p.opts.Workers,
			Logger:    p.logger,
			Progress:  func(n int) { _ = bar.Add(n) },
		})
		_ = bar.Finish()
		elapsed = time.Since(start)
		return err
	}); err != nil {
		return err
	}

	return p.stage(medium, "write_shared", func() error {
		return writeAll(
			func() error { return w.WriteItemIndex(ctx, artifacts.NameItemIndex, s.items) },
			func() error { return w.WriteItemIndex(ctx, artifacts.NameUserIndex, s.interactions.Users) },
			func() error {
				return w.WriteCSR(ctx, artifacts.NameInteractions, s.interactions.Matrix,
					artifacts.WithLabels(map[string]string{"dropped_ratings": fmt.Sprint(s.interactions.Dropped)}))
			},
			func() error {
				return w.WriteGraph(ctx, artifacts.NameItemCFGraph, cf, artifacts.WithBuildDuration(elapsed))
			},
		)
	})
}

// buildMethod embeds the catalog with method and writes the method's
// embeddings, content graph, user vectors and encoder.
func (p *pipeline) buildMethod(ctx context.Context, w *artifacts.Writer, medium recommend.Medium, method recommend.Method, s *shared) error {
	var (
		itemEmb *linalg.Dense
		state   encoder.State
		embTook time.Duration
	)
	if err := p.stage(medium, "embed_"+string(method), func() error {
		start := time.Now()
		var err error
		itemEmb, state, err = p.embed(ctx, medium, method, s.catalog.Docs)
		embTook = time.Since(start)
		return err
	}); err != nil {
		return err
	}
	if itemEmb.Rows != s.items.Len() {
		return recommend.Invalidf("%s %s embeddings have %d rows, catalog has %d items", medium, method, itemEmb.Rows, s.items.Len())
	}

	var (
		content   graph.Graph
		userEmb   *linalg.Dense
		userIndex *vectorindex.Flat
		graphTook time.Duration
	)
	if err := p.stage(medium, "content_graph", func() error {
		start := time.Now()
		bar := p.bar(s.items.Len(), fmt.Sprintf("%s %s graph", medium, method))
		var err error
		content, _, err = graph.BuildFromEmbeddings(ctx, itemEmb, p.opts.K, graph.EmbeddingOptions{
			Workers:  p.opts.Workers,
			Logger:   p.logger,
			Progress: func(n int) { _ = bar.Add(n) },
		})
		_ = bar.Finish()
		graphTook = time.Since(start)
		if err != nil {
			return err
		}
		if userEmb, err = graph.UserEmbeddings(s.interactions.Matrix, itemEmb); err != nil {
			return err
		}
		userIndex, err = vectorindex.NewFlat(userEmb, vectorindex.MetricInnerProduct)
		return err
	}); err != nil {
		return err
	}

	labels := artifacts.WithLabels(map[string]string{"method": string(method)})
	return p.stage(medium, "write_"+string(method), func() error {
		return writeAll(
			func() error {
				return w.WriteDense(ctx, artifacts.NameItemEmbeddings(method), itemEmb, labels, artifacts.WithBuildDuration(embTook))
			},
			func() error { return w.WriteDense(ctx, artifacts.NameUserEmbeddings(method), userEmb, labels) },
			func() error {
				return w.WriteGraph(ctx, artifacts.NameContentGraph(method), content, labels, artifacts.WithBuildDuration(graphTook))
			},
			func() error { return w.WriteVectorIndex(ctx, artifacts.NameUserVectors(method), userIndex, labels) },
			func() error { return w.WriteEncoder(ctx, artifacts.NameEncoder(method), state, labels) },
		)
	})
}

// writeAll runs writes in order and stops at the first failure, so a failed
// artifact is never followed by the ones after it.
func writeAll(writes ...func() error) error {
	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

// embed returns the unit-normalized item embeddings of docs and the encoder
// state that maps query text into the same space.
func (p *pipeline) embed(ctx context.Context, medium recommend.Medium, method recommend.Method, docs []string) (*linalg.Dense, encoder.State, error) {
	switch method {
	case recommend.MethodTFIDF:
		enc, emb, err := encoder.FitTFIDF(ctx, docs, p.opts.TFIDF)
		if err != nil {
			return nil, encoder.State{}, err
		}
		st := enc.State()
		return emb, encoder.State{Kind: encoder.KindTFIDF, Dim: enc.Dim(), TFIDF: &st}, nil

	case recommend.MethodSBERT:
		return p.embedRemote(ctx, medium, docs)

	default:
		return nil, encoder.State{}, recommend.Invalidf("unknown method %q", method)
	}
}

// embedRemote embeds docs in batches through the configured embeddings
// endpoint. The dimension is taken from the first response.
func (p *pipeline) embedRemote(ctx context.Context, medium recommend.Medium, docs []string) (*linalg.Dense, encoder.State, error) {
	if p.opts.EncoderURL == "" {
		return nil, encoder.State{}, recommend.Invalidf("the sbert method needs ENCODER_URL to embed the catalog")
	}
	if p.opts.SBERTModel == "" {
		return nil, encoder.State{}, recommend.Invalidf("the sbert method needs a model name")
	}
	client := encoder.NewHTTP(p.opts.EncoderURL, p.opts.EncoderAPIKey, p.opts.SBERTModel, 0, p.opts.EncoderTimeout)

	bar := p.bar(len(docs), fmt.Sprintf("%s sbert", medium))
	rows := make([][]float32, 0, len(docs))
	for i := 0; i < len(docs); i += p.opts.EncodeBatch {
		end := min(i+p.opts.EncodeBatch, len(docs))
		vecs, err := client.EncodeBatch(ctx, docs[i:end])
		if err != nil {
			return nil, encoder.State{}, fmt.Errorf("embedding batch %d-%d failed: %w", i, end, err)
		}
		rows = append(rows, vecs...)
		_ = bar.Set(len(rows))
	}
	_ = bar.Finish()

	emb, err := linalg.FromRows(rows)
	if err != nil {
		return nil, encoder.State{}, err
	}
	return emb, encoder.State{Kind: encoder.KindRemote, Model: p.opts.SBERTModel, Dim: emb.Cols}, nil
}
