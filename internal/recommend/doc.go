// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package recommend serves item recommendations from precomputed similarity
// structures.
//
// # Architecture
//
// The engine combines four strategies over the same catalog:
//
//   - Content similarity: precomputed neighbor graph over text embeddings,
//     plus a brute-force scan for free-text queries
//   - Item-item collaborative filtering: precomputed co-rating neighbor graph
//   - User-user collaborative filtering: nearest user embeddings, aggregated
//     over their interaction rows
//   - Hybrid: a weighted blend of the three
//
// Every artifact (item index, embeddings, interaction matrix, graphs, vector
// indices, encoder state) is produced offline by cmd/mediarec-build and
// loaded into memory once by the artifacts package before traffic is served.
//
// # Packages
//
//   - itemindex: title, item id and external id lookups
//   - linalg: dense and CSR matrices, ranking helpers
//   - vectorindex: nearest-neighbor search over dense rows
//   - graph: neighbor graphs and the offline builders
//   - encoder: text to unit vector
//   - storage: checksummed on-disk envelope for artifacts
//   - artifacts: manifest, resolution, warmup and typed access
//   - models: the four strategies, assembled per variant
//
// This package holds the shared types, the error taxonomy and the Engine,
// which resolves titles and ratings before dispatching to the models of a
// variant (medium and embedding method).
//
// # Errors
//
// All errors wrap exactly one of ErrNotFound, ErrValidation or ErrNotReady.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, logger)
//	...
//	sources, err := models.Build(store, recommend.MethodTFIDF, opts)
//	...
//	_ = engine.Register(recommend.Variant{Medium: recommend.MediumMovies, Method: recommend.MethodTFIDF}, *sources)
//
//	res, err := engine.SimilarByTitle(ctx, variant, "Toy Story (1995)", 10)
//
// # Thread Safety
//
// Registration swaps an immutable variant table; request paths only read it
// and the immutable models behind it, so they take no locks.
package recommend
