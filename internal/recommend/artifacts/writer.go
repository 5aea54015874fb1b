// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
	"github.com/tomtom215/mediarec/internal/recommend/graph"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
	"github.com/tomtom215/mediarec/internal/recommend/storage"
	"github.com/tomtom215/mediarec/internal/recommend/vectorindex"
)

// WriteOption adds metadata to a written artifact.
type WriteOption func(*storage.Metadata)

// WithBuildDuration records how long the payload took to compute.
func WithBuildDuration(d time.Duration) WriteOption {
	return func(m *storage.Metadata) { m.BuildDurationMS = d.Milliseconds() }
}

// WithLabels attaches free-form labels.
func WithLabels(labels map[string]string) WriteOption {
	return func(m *storage.Metadata) {
		if m.Labels == nil {
			m.Labels = make(map[string]string, len(labels))
		}
		for k, v := range labels {
			m.Labels[k] = v
		}
	}
}

// Writer persists the artifacts of one medium below a root directory and
// records them in a manifest and a listing, so the root can be served as a
// local or a remote artifact store.
type Writer struct {
	store  *storage.Store
	medium recommend.Medium

	mu       sync.Mutex
	manifest Manifest
	files    map[string]ListedFile
}

// NewWriter creates a writer for medium below root.
func NewWriter(root string, medium recommend.Medium) (*Writer, error) {
	if _, err := recommend.ParseMedium(string(medium)); err != nil {
		return nil, err
	}
	st, err := storage.NewStore(root)
	if err != nil {
		return nil, err
	}
	return &Writer{
		store:    st,
		medium:   medium,
		manifest: Manifest{Medium: medium},
		files:    make(map[string]ListedFile),
	}, nil
}

// Root returns the artifact root.
func (w *Writer) Root() string { return w.store.Dir() }

func (w *Writer) write(ctx context.Context, name string, kind Kind, data any, meta storage.Metadata, opts []WriteOption) error {
	meta.Name = name
	meta.Kind = string(kind)
	if meta.BuiltAt.IsZero() {
		meta.BuiltAt = time.Now().UTC()
	}
	for _, opt := range opts {
		opt(&meta)
	}

	rel := path.Join(string(w.medium), name+".art")
	if err := w.store.Save(ctx, rel, data, meta); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	abs, err := w.store.Path(rel)
	if err != nil {
		return err
	}
	digest, size, err := fileDigest(abs)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	entry := Entry{Name: name, Kind: kind, Path: rel}
	replaced := false
	for i := range w.manifest.Entries {
		if w.manifest.Entries[i].Name == name {
			w.manifest.Entries[i] = entry
			replaced = true
		}
	}
	if !replaced {
		w.manifest.Entries = append(w.manifest.Entries, entry)
	}
	w.files[rel] = ListedFile{SHA256: digest, Size: size}
	return nil
}

// WriteItemIndex stores an id_map artifact as JSON.
func (w *Writer) WriteItemIndex(ctx context.Context, name string, idx *itemindex.Index, opts ...WriteOption) error {
	return w.write(ctx, name, KindIDMap, idx.Snapshot(),
		storage.Metadata{Encoding: storage.EncodingJSON, Rows: idx.Len()}, opts)
}

// WriteDense stores a dense matrix.
func (w *Writer) WriteDense(ctx context.Context, name string, d *linalg.Dense, opts ...WriteOption) error {
	return w.write(ctx, name, KindDense, d, storage.Metadata{Rows: d.Rows, Cols: d.Cols}, opts)
}

// WriteCSR stores a sparse matrix.
func (w *Writer) WriteCSR(ctx context.Context, name string, m *linalg.CSR, opts ...WriteOption) error {
	return w.write(ctx, name, KindSparse, m, storage.Metadata{Rows: m.Rows, Cols: m.Cols}, opts)
}

// WriteGraph stores a neighbor graph.
func (w *Writer) WriteGraph(ctx context.Context, name string, g graph.Graph, opts ...WriteOption) error {
	return w.write(ctx, name, KindGraph, g, storage.Metadata{Rows: g.Len(), Cols: g.K()}, opts)
}

// WriteVectorIndex stores a flat vector index.
func (w *Writer) WriteVectorIndex(ctx context.Context, name string, idx *vectorindex.Flat, opts ...WriteOption) error {
	return w.write(ctx, name, KindVectorIndex, idx.Snapshot(),
		storage.Metadata{Rows: idx.Len(), Cols: idx.Dim()}, opts)
}

// WriteEncoder stores an encoder state.
func (w *Writer) WriteEncoder(ctx context.Context, name string, st encoder.State, opts ...WriteOption) error {
	return w.write(ctx, name, KindEncoder, st, storage.Metadata{Cols: st.Dim}, opts)
}

// Manifest returns the entries written so far.
func (w *Writer) Manifest() Manifest {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := w.manifest
	m.Entries = append([]Entry(nil), w.manifest.Entries...)
	return m
}

// Finish writes <root>/<medium>/manifest.yaml and merges the written files
// into <root>/index.json.
func (w *Writer) Finish() error {
	m := w.Manifest()
	if err := m.Validate(); err != nil {
		return err
	}
	manifestPath := filepath.Join(w.store.Dir(), string(w.medium), ManifestFile)
	if err := WriteManifestFile(manifestPath, m); err != nil {
		return err
	}

	listingPath := filepath.Join(w.store.Dir(), ListingFile)
	listing := Listing{Files: make(map[string]ListedFile)}
	if data, err := os.ReadFile(listingPath); err == nil { //nolint:gosec // path is below the artifact root
		if err := json.Unmarshal(data, &listing); err != nil {
			return recommend.Invalidf("existing listing %s: %v", listingPath, err)
		}
		if listing.Files == nil {
			listing.Files = make(map[string]ListedFile)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read listing: %w", err)
	}

	w.mu.Lock()
	for rel, f := range w.files {
		listing.Files[rel] = f
	}
	w.mu.Unlock()

	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	if err := os.WriteFile(listingPath, data, 0o600); err != nil {
		return fmt.Errorf("write listing: %w", err)
	}
	return nil
}

func fileDigest(p string) (string, int64, error) {
	f, err := os.Open(p) //nolint:gosec // path is below the artifact root
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
