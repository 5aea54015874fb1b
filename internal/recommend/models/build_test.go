// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package models

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/artifacts"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
	"github.com/tomtom215/mediarec/internal/recommend/graph"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
	"github.com/tomtom215/mediarec/internal/recommend/vectorindex"
)

var movieDocs = []string{
	"Adventure Animation Children Comedy Fantasy pixar toys",
	"Adventure Children Fantasy board game jungle",
	"Action Crime Thriller heist los angeles",
	"Action Crime Thriller heist bank robbery",
}

// warmStore runs the offline pipeline on a toy catalog and returns a
// warmed-up store.
func warmStore(t *testing.T) *artifacts.Store {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()
	method := recommend.MethodTFIDF

	items, err := itemindex.Build([]itemindex.Record{
		{ItemID: 1, Title: "Toy Story (1995)"},
		{ItemID: 2, Title: "Jumanji (1995)"},
		{ItemID: 6, Title: "Heat (1995)"},
		{ItemID: 7, Title: "Inside Man (2006)"},
	})
	if err != nil {
		t.Fatal(err)
	}
	users, err := itemindex.Build([]itemindex.Record{{ItemID: 100}, {ItemID: 200}, {ItemID: 300}})
	if err != nil {
		t.Fatal(err)
	}
	ratings := mustCSR(t, [][]float32{
		{5, 4, 0, 0},
		{0, 0, 5, 4},
		{4, 0, 0, 5},
	})

	enc, itemEmb, err := encoder.FitTFIDF(ctx, movieDocs, encoder.TFIDFOptions{Components: len(movieDocs)})
	if err != nil {
		t.Fatal(err)
	}
	content, _, err := graph.BuildFromEmbeddings(ctx, itemEmb, 2, graph.EmbeddingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	cf, err := graph.BuildItemCF(ctx, ratings, graph.ItemCFOptions{K: 2})
	if err != nil {
		t.Fatal(err)
	}
	userEmb, err := graph.UserEmbeddings(ratings, itemEmb)
	if err != nil {
		t.Fatal(err)
	}
	userVectors, err := vectorindex.NewFlat(userEmb, vectorindex.MetricInnerProduct)
	if err != nil {
		t.Fatal(err)
	}
	st := enc.State()

	w, err := artifacts.NewWriter(root, recommend.MediumMovies)
	if err != nil {
		t.Fatal(err)
	}
	for i, err := range []error{
		w.WriteItemIndex(ctx, artifacts.NameItemIndex, items),
		w.WriteItemIndex(ctx, artifacts.NameUserIndex, users),
		w.WriteCSR(ctx, artifacts.NameInteractions, ratings),
		w.WriteGraph(ctx, artifacts.NameItemCFGraph, cf),
		w.WriteDense(ctx, artifacts.NameItemEmbeddings(method), itemEmb),
		w.WriteDense(ctx, artifacts.NameUserEmbeddings(method), userEmb),
		w.WriteGraph(ctx, artifacts.NameContentGraph(method), content),
		w.WriteVectorIndex(ctx, artifacts.NameUserVectors(method), userVectors),
		w.WriteEncoder(ctx, artifacts.NameEncoder(method), encoder.State{Kind: encoder.KindTFIDF, Dim: enc.Dim(), TFIDF: &st}),
		w.Finish(),
	} {
		if err != nil {
			t.Fatalf("write step %d error = %v", i, err)
		}
	}

	store, err := artifacts.New(artifacts.DefaultManifest(recommend.MediumMovies, method), artifacts.LocalResolver{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Warmup(ctx); err != nil {
		t.Fatalf("Warmup() error = %v", err)
	}
	return store
}

func TestBuild_EndToEnd(t *testing.T) {
	t.Parallel()

	store := warmStore(t)
	sources, err := Build(store, recommend.MethodTFIDF, BuildOptions{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	engine, err := recommend.NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	v := recommend.Variant{Medium: recommend.MediumMovies, Method: recommend.MethodTFIDF}
	if err := engine.Register(v, *sources); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ctx := context.Background()

	similar, err := engine.SimilarByTitle(ctx, v, "heat (1995)", 10)
	if err != nil {
		t.Fatalf("SimilarByTitle() error = %v", err)
	}
	if len(similar.Recommendations) != 2 || similar.Recommendations[0].Title != "Inside Man (2006)" {
		t.Errorf("SimilarByTitle() = %+v", similar.Recommendations)
	}

	byText, err := engine.SimilarByDescription(ctx, v, "a heist in a bank", 1)
	if err != nil {
		t.Fatalf("SimilarByDescription() error = %v", err)
	}
	if len(byText.Recommendations) != 1 || byText.Recommendations[0].ItemID != 7 {
		t.Errorf("SimilarByDescription() = %+v", byText.Recommendations)
	}

	forRatings, err := engine.ForRatings(ctx, v, []recommend.Rating{{Title: "Toy Story (1995)", Value: 5}}, 10, 0)
	if err != nil {
		t.Fatalf("ForRatings() error = %v", err)
	}
	for _, r := range forRatings.Recommendations {
		if r.ItemID == 1 {
			t.Errorf("ForRatings() recommended the rated item: %+v", forRatings.Recommendations)
		}
	}

	if _, err := engine.ForUser(ctx, v, 200, 5, 0); err != nil {
		t.Errorf("ForUser() error = %v", err)
	}
	if _, err := engine.ForUser(ctx, v, 999, 5, 0); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("ForUser(unknown) error = %v, want ErrNotFound", err)
	}

	alpha, beta := 1.0, 0.0
	hybrid, err := engine.Hybrid(ctx, v, recommend.HybridRequest{Title: "Heat (1995)", TopN: 2, Alpha: &alpha, Beta: &beta})
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if len(hybrid.Recommendations) != 2 || hybrid.Recommendations[0].ItemID != similar.Recommendations[0].ItemID {
		t.Errorf("Hybrid(alpha=1) = %+v, want content ranking %+v", hybrid.Recommendations, similar.Recommendations)
	}
}

func TestBuild_MissingMethod(t *testing.T) {
	t.Parallel()

	store := warmStore(t)
	if _, err := Build(store, recommend.MethodSBERT, BuildOptions{}); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("Build(sbert) error = %v, want ErrNotFound", err)
	}
}
