// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package artifacts

import (
	"fmt"
	"os"
	"path"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/tomtom215/mediarec/internal/recommend"
)

// ManifestFile is the conventional manifest name inside an artifact
// directory.
const ManifestFile = "manifest.yaml"

// Artifact names shared by every method of a medium.
const (
	NameItemIndex    = "item_index"
	NameUserIndex    = "user_index"
	NameInteractions = "interactions"
	NameItemCFGraph  = "item_cf_graph"
)

// NameItemEmbeddings is the item embedding matrix of a method.
func NameItemEmbeddings(m recommend.Method) string { return string(m) + "/item_embeddings" }

// NameUserEmbeddings is the user embedding matrix of a method.
func NameUserEmbeddings(m recommend.Method) string { return string(m) + "/user_embeddings" }

// NameUserVectors is the vector index over user embeddings of a method.
func NameUserVectors(m recommend.Method) string { return string(m) + "/user_vectors" }

// NameContentGraph is the content-similarity graph of a method.
func NameContentGraph(m recommend.Method) string { return string(m) + "/content_graph" }

// NameEncoder is the text encoder of a method.
func NameEncoder(m recommend.Method) string { return string(m) + "/encoder" }

// Entry names one artifact, its kind and its path relative to the
// artifact root (slash separated).
type Entry struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	Path string `yaml:"path"`
}

// Manifest lists the artifacts of one medium.
type Manifest struct {
	Medium  recommend.Medium `yaml:"medium"`
	Entries []Entry          `yaml:"entries"`
}

// Validate checks that every entry is named uniquely, has a path and a
// kind with a decoder.
func (m *Manifest) Validate() error {
	if _, err := recommend.ParseMedium(string(m.Medium)); err != nil {
		return err
	}
	if len(m.Entries) == 0 {
		return recommend.Invalidf("manifest for %s has no entries", m.Medium)
	}
	seen := make(map[string]struct{}, len(m.Entries))
	for i, e := range m.Entries {
		if e.Name == "" {
			return recommend.Invalidf("manifest entry %d has no name", i)
		}
		if _, dup := seen[e.Name]; dup {
			return recommend.Invalidf("manifest entry %q is listed twice", e.Name)
		}
		seen[e.Name] = struct{}{}
		if e.Path == "" {
			return recommend.Invalidf("manifest entry %q has no path", e.Name)
		}
		if _, ok := decoders[e.Kind]; !ok {
			return recommend.Invalidf("manifest entry %q has unknown kind %q", e.Name, e.Kind)
		}
	}
	return nil
}

// Lookup returns the entry called name.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// warmupOrder returns the entries sorted by kind rank, keeping manifest
// order within a kind.
func (m *Manifest) warmupOrder() []Entry {
	out := slices.Clone(m.Entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return a.Kind.warmupRank() - b.Kind.warmupRank()
	})
	return out
}

// DefaultManifest returns the standard layout of a medium: shared entries
// plus one set per method, stored under "<medium>/".
func DefaultManifest(medium recommend.Medium, methods ...recommend.Method) Manifest {
	entry := func(name string, kind Kind) Entry {
		return Entry{Name: name, Kind: kind, Path: path.Join(string(medium), name+".art")}
	}
	m := Manifest{
		Medium: medium,
		Entries: []Entry{
			entry(NameItemIndex, KindIDMap),
			entry(NameUserIndex, KindIDMap),
			entry(NameInteractions, KindSparse),
			entry(NameItemCFGraph, KindGraph),
		},
	}
	for _, method := range methods {
		m.Entries = append(m.Entries,
			entry(NameItemEmbeddings(method), KindDense),
			entry(NameUserEmbeddings(method), KindDense),
			entry(NameContentGraph(method), KindGraph),
			entry(NameUserVectors(method), KindVectorIndex),
			entry(NameEncoder(method), KindEncoder),
		)
	}
	return m
}

// LoadManifestFile reads and validates a YAML manifest.
func LoadManifestFile(file string) (Manifest, error) {
	data, err := os.ReadFile(file) //nolint:gosec // manifest path comes from operator configuration
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, recommend.NotFoundf("manifest %s", file)
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, recommend.Invalidf("parse manifest %s: %v", file, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// WriteManifestFile writes m as YAML.
func WriteManifestFile(file string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
