// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package artifacts resolves, loads and holds the precomputed models of one
medium.

A Manifest lists every artifact by name, Kind and path. The kind selects
the decoder, so file names are never inspected:

	id_map        *itemindex.Index
	dense         *linalg.Dense
	sparse        *linalg.CSR
	graph         graph.Graph
	vector_index  vectorindex.Index
	encoder       encoder.Encoder

A Store is created once per process and medium and passed to whatever
needs it:

	m := artifacts.DefaultManifest(recommend.MediumMovies, recommend.MethodTFIDF)
	store, err := artifacts.New(m, artifacts.Chain{
		artifacts.LocalResolver{Root: "/var/lib/mediarec"},
		remote,
	}, artifacts.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := store.Warmup(ctx); err != nil {
		return err
	}
	graph, err := store.Graph(artifacts.NameItemCFGraph)

Resolution tries local files first and falls back to a RemoteResolver,
which downloads from an HTTP blob store into a content-addressed BlobCache
(BadgerDB index, files on disk). Downloads are rate limited and guarded by
a circuit breaker.

Warmup is single-flight and idempotent. Until it succeeds every getter
returns recommend.ErrNotReady.

The offline builder writes artifacts through a Writer, which also emits the
manifest and the listing a RemoteResolver reads.
*/
package artifacts
