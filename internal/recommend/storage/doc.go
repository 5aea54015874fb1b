// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package storage persists recommendation artifacts on disk.
//
// Every artifact is written as one envelope file holding its metadata and
// the compressed payload:
//
//	structure:
//	  - Metadata (name, kind, payload encoding, shape, checksum, timestamps)
//	  - CompressedData (gzip-compressed payload)
//
// The payload is gob for matrices, graphs and encoder state, and JSON for
// identifier maps so they stay readable by other tooling. The SHA-256
// checksum covers the uncompressed payload and is verified on every read.
//
// # Usage
//
//	store, err := storage.NewStore("/data/artifacts/movies")
//	...
//	meta := storage.Metadata{Kind: "graph", Encoding: storage.EncodingGob, Rows: g.Len()}
//	err = store.Save(ctx, "tfidf/content_graph.art", g, meta)
//
//	var g graph.Graph
//	meta, err := storage.ReadFile(path, &g)
//
// Writes go to a temporary file in the target directory and are renamed
// into place, so readers never observe a partial artifact.
package storage
