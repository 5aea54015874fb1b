// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediarec/internal/recommend"
)

// FormatVersion is written into every envelope.
const FormatVersion = 1

// Encoding selects the payload serialization.
type Encoding string

const (
	EncodingGob  Encoding = "gob"
	EncodingJSON Encoding = "json"
)

// Metadata describes a stored artifact.
type Metadata struct {
	// Name is the artifact name from the manifest (e.g., "item_index").
	Name string `json:"name"`

	// Kind is the artifact kind (e.g., "dense", "graph").
	Kind string `json:"kind"`

	// Encoding is the payload serialization.
	Encoding Encoding `json:"encoding"`

	// Version is the envelope format version.
	Version int `json:"version"`

	// Rows and Cols record the shape of matrix-like payloads.
	Rows int `json:"rows,omitempty"`
	Cols int `json:"cols,omitempty"`

	// Labels carry free-form build information (medium, method, k).
	Labels map[string]string `json:"labels,omitempty"`

	// BuiltAt is when the payload was computed.
	BuiltAt time.Time `json:"built_at"`

	// SavedAt is when the envelope was written.
	SavedAt time.Time `json:"saved_at"`

	// BuildDurationMS is how long computing the payload took.
	BuildDurationMS int64 `json:"build_duration_ms"`

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store writes and reads envelopes below a base directory.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

// NewStore creates a store rooted at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Dir returns the base directory.
func (s *Store) Dir() string { return s.baseDir }

// Path returns the absolute location of a relative artifact path.
func (s *Store) Path(rel string) (string, error) {
	return Join(s.baseDir, rel)
}

// Join resolves a slash-separated relative path below base. Absolute paths
// and paths leaving base are validation errors.
func Join(base, rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", recommend.Invalidf("artifact path %q escapes %s", rel, base)
	}
	return filepath.Join(base, clean), nil
}

// Save encodes data into an envelope at rel.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, rel string, data any, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(rel)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return WriteFile(path, data, meta)
}

// Load decodes the envelope at rel into target.
func (s *Store) Load(ctx context.Context, rel string, target any) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(rel)
	if err != nil {
		return nil, err
	}
	return ReadFile(path, target)
}

// List returns the metadata of every envelope below the base directory,
// keyed by relative path.
func (s *Store) List(ctx context.Context) (map[string]Metadata, error) {
	out := make(map[string]Metadata)
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		meta, err := ReadMetadata(path)
		if err != nil {
			// Not an envelope; manifests and other files live alongside.
			return nil //nolint:nilerr // non-envelope files are skipped
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = *meta
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return out, nil
}

// WriteFile encodes data and writes an envelope to path atomically.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func WriteFile(path string, data any, meta Metadata) error {
	if meta.Encoding == "" {
		meta.Encoding = EncodingGob
	}

	var raw bytes.Buffer
	switch meta.Encoding {
	case EncodingGob:
		if err := gob.NewEncoder(&raw).Encode(data); err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
	case EncodingJSON:
		if err := json.NewEncoder(&raw).Encode(data); err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
	default:
		return recommend.Invalidf("unknown payload encoding %q", meta.Encoding)
	}

	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.Version = FormatVersion
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return fmt.Errorf("create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() //nolint:errcheck // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error is returned instead
		return fmt.Errorf("write artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact file: %w", err)
	}
	return nil
}

// ReadFile reads the envelope at path, verifies its checksum and decodes the
// payload into target. A missing file is NotFound.
func ReadFile(path string, target any) (*Metadata, error) {
	sf, err := readStored(path)
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, recommend.Invalidf("checksum mismatch in %s: expected %s, got %s", path, sf.Metadata.Checksum, checksum)
	}

	switch sf.Metadata.Encoding {
	case EncodingGob, "":
		err = gob.NewDecoder(bytes.NewReader(raw)).Decode(target)
	case EncodingJSON:
		err = json.Unmarshal(raw, target)
	default:
		return nil, recommend.Invalidf("unknown payload encoding %q in %s", sf.Metadata.Encoding, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode payload of %s: %w", path, err)
	}

	return &sf.Metadata, nil
}

// ReadMetadata returns the metadata of the envelope at path without
// decoding the payload.
func ReadMetadata(path string) (*Metadata, error) {
	sf, err := readStored(path)
	if err != nil {
		return nil, err
	}
	return &sf.Metadata, nil
}

func readStored(path string) (*storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the manifest or the store directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, recommend.NotFoundf("artifact file %s", path)
		}
		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact file %s: %w", path, err)
	}
	if sf.Metadata.Version > FormatVersion {
		return nil, recommend.Invalidf("artifact %s has format version %d, newest supported is %d", path, sf.Metadata.Version, FormatVersion)
	}
	return &sf, nil
}
