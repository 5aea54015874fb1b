// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

// Package itemindex maps between dense internal indices, external item ids,
// titles and optional cross-catalog identifiers.
//
// An Index is immutable once built. Every internal index in [0, Len()) has
// exactly one item id, and the forward and reverse id maps are mutual
// inverses. Title lookups are normalized: case-folded, punctuation and
// symbols removed, whitespace collapsed.
//
// Duplicate titles are kept in index order and ToIndex returns the first
// (lowest index) match. Builds that need unique titles opt in with
// RequireUniqueTitles and fail fast instead.
package itemindex

import (
	"strings"
	"unicode"

	"github.com/tomtom215/mediarec/internal/recommend"
)

// Record is one catalog row.
type Record struct {
	ItemID      int64             `json:"item_id"`
	Title       string            `json:"title"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
}

// Index is an immutable bidirectional item index.
type Index struct {
	records []Record
	byID    map[int64]int
	byTitle map[string][]int

	// byExternal maps namespace -> external id -> internal index.
	byExternal map[string]map[string]int

	uniqueTitles bool
}

type options struct {
	uniqueTitles bool
}

// Option configures Build.
type Option func(*options)

// RequireUniqueTitles makes Build fail when two records normalize to the
// same title.
func RequireUniqueTitles() Option {
	return func(o *options) { o.uniqueTitles = true }
}

// Build indexes records in order; record i gets internal index i.
func Build(records []Record, opts ...Option) (*Index, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{
		records:      make([]Record, len(records)),
		byID:         make(map[int64]int, len(records)),
		byTitle:      make(map[string][]int, len(records)),
		byExternal:   make(map[string]map[string]int),
		uniqueTitles: o.uniqueTitles,
	}

	for i, r := range records {
		if prev, dup := idx.byID[r.ItemID]; dup {
			return nil, recommend.Invalidf("item id %d appears at index %d and %d", r.ItemID, prev, i)
		}
		idx.byID[r.ItemID] = i

		if key := Normalize(r.Title); key != "" {
			if prev := idx.byTitle[key]; len(prev) > 0 && o.uniqueTitles {
				return nil, recommend.Invalidf("title %q at index %d duplicates index %d", r.Title, i, prev[0])
			}
			idx.byTitle[key] = append(idx.byTitle[key], i)
		}

		for ns, ext := range r.ExternalIDs {
			if ext == "" {
				continue
			}
			m := idx.byExternal[ns]
			if m == nil {
				m = make(map[string]int)
				idx.byExternal[ns] = m
			}
			// First occurrence wins, like titles.
			if _, seen := m[ext]; !seen {
				m[ext] = i
			}
		}

		idx.records[i] = cloneRecord(r)
	}

	return idx, nil
}

func cloneRecord(r Record) Record {
	if len(r.ExternalIDs) == 0 {
		r.ExternalIDs = nil
		return r
	}
	ext := make(map[string]string, len(r.ExternalIDs))
	for k, v := range r.ExternalIDs {
		ext[k] = v
	}
	r.ExternalIDs = ext
	return r
}

// Len returns the number of indexed items.
func (x *Index) Len() int { return len(x.records) }

// ToIndex returns the first index whose title matches. Titles match after
// Normalize, so distinct stored titles such as "Up!" and "Up" share one key
// and ToTitle(ToIndex(t)) returns the first of them for either.
func (x *Index) ToIndex(title string) (int, error) {
	matches := x.byTitle[Normalize(title)]
	if len(matches) == 0 {
		return 0, recommend.NotFoundf("title %q", title)
	}
	return matches[0], nil
}

// ToIndices returns every index whose title matches, ascending.
func (x *Index) ToIndices(title string) ([]int, error) {
	matches := x.byTitle[Normalize(title)]
	if len(matches) == 0 {
		return nil, recommend.NotFoundf("title %q", title)
	}
	return append([]int(nil), matches...), nil
}

// ToTitle returns the stored title of an index.
func (x *Index) ToTitle(index int) (string, error) {
	if err := x.check(index); err != nil {
		return "", err
	}
	return x.records[index].Title, nil
}

// ItemID returns the external item id of an index.
func (x *Index) ItemID(index int) (int64, error) {
	if err := x.check(index); err != nil {
		return 0, err
	}
	return x.records[index].ItemID, nil
}

// IndexOf returns the internal index of an item id.
func (x *Index) IndexOf(itemID int64) (int, error) {
	i, ok := x.byID[itemID]
	if !ok {
		return 0, recommend.NotFoundf("item id %d", itemID)
	}
	return i, nil
}

// ExternalID returns the identifier of an index in namespace ns
// (for example "imdb" or "tmdb").
func (x *Index) ExternalID(ns string, index int) (string, error) {
	if err := x.check(index); err != nil {
		return "", err
	}
	ext, ok := x.records[index].ExternalIDs[ns]
	if !ok || ext == "" {
		return "", recommend.NotFoundf("%s id for index %d", ns, index)
	}
	return ext, nil
}

// ByExternalID returns the index carrying identifier id in namespace ns.
func (x *Index) ByExternalID(ns, id string) (int, error) {
	i, ok := x.byExternal[ns][id]
	if !ok {
		return 0, recommend.NotFoundf("%s id %q", ns, id)
	}
	return i, nil
}

// Namespaces returns the external id namespaces present in the index.
func (x *Index) Namespaces() []string {
	out := make([]string, 0, len(x.byExternal))
	for ns := range x.byExternal {
		out = append(out, ns)
	}
	return out
}

func (x *Index) check(index int) error {
	if index < 0 || index >= len(x.records) {
		return recommend.NotFoundf("index %d outside [0, %d)", index, len(x.records))
	}
	return nil
}

// Snapshot is the serialized form of an Index.
type Snapshot struct {
	Records      []Record `json:"records"`
	UniqueTitles bool     `json:"unique_titles,omitempty"`
}

// Snapshot returns a copy of the index contents.
func (x *Index) Snapshot() Snapshot {
	recs := make([]Record, len(x.records))
	for i, r := range x.records {
		recs[i] = cloneRecord(r)
	}
	return Snapshot{Records: recs, UniqueTitles: x.uniqueTitles}
}

// FromSnapshot rebuilds an Index, re-checking every invariant.
func FromSnapshot(s Snapshot) (*Index, error) {
	var opts []Option
	if s.UniqueTitles {
		opts = append(opts, RequireUniqueTitles())
	}
	return Build(s.Records, opts...)
}

// Normalize folds a title for lookup: lower case, punctuation and symbols
// removed, runs of whitespace collapsed to one space.
func Normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
