// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package itemindex

import (
	"errors"
	"testing"

	"github.com/tomtom215/mediarec/internal/recommend"
)

func testRecords() []Record {
	return []Record{
		{ItemID: 1, Title: "Toy Story (1995)", ExternalIDs: map[string]string{"imdb": "0114709", "tmdb": "862"}},
		{ItemID: 2, Title: "Jumanji (1995)", ExternalIDs: map[string]string{"imdb": "0113497"}},
		{ItemID: 3, Title: "Heat (1995)"},
		{ItemID: 5, Title: "Father of the Bride Part II (1995)"},
	}
}

func TestTitleRoundTrip(t *testing.T) {
	t.Parallel()

	idx, err := Build(testRecords(), RequireUniqueTitles())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, r := range testRecords() {
		i, err := idx.ToIndex(r.Title)
		if err != nil {
			t.Fatalf("ToIndex(%q) error = %v", r.Title, err)
		}
		got, err := idx.ToTitle(i)
		if err != nil {
			t.Fatalf("ToTitle(%d) error = %v", i, err)
		}
		if got != r.Title {
			t.Errorf("ToTitle(ToIndex(%q)) = %q", r.Title, got)
		}
	}
}

func TestNormalizedLookup(t *testing.T) {
	t.Parallel()

	idx, err := Build(testRecords())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{query: "toy story 1995", want: 0},
		{query: "  TOY   STORY (1995) ", want: 0},
		{query: "Heat (1995)", want: 2},
		{query: "father of the bride part ii 1995", want: 3},
	}
	for _, tt := range tests {
		got, err := idx.ToIndex(tt.query)
		if err != nil || got != tt.want {
			t.Errorf("ToIndex(%q) = %d, %v, want %d", tt.query, got, err, tt.want)
		}
	}

	if _, err := idx.ToIndex("Casino (1995)"); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("ToIndex(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := idx.ToTitle(4); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("ToTitle(out of range) error = %v, want ErrNotFound", err)
	}
	if _, err := idx.ToTitle(-1); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("ToTitle(-1) error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateTitles(t *testing.T) {
	t.Parallel()

	records := []Record{
		{ItemID: 10, Title: "Hamlet (1996)"},
		{ItemID: 11, Title: "Emma"},
		{ItemID: 12, Title: "hamlet 1996"},
	}

	idx, err := Build(records)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	first, err := idx.ToIndex("Hamlet (1996)")
	if err != nil || first != 0 {
		t.Errorf("ToIndex() = %d, %v, want first match 0", first, err)
	}
	all, err := idx.ToIndices("Hamlet (1996)")
	if err != nil || len(all) != 2 || all[0] != 0 || all[1] != 2 {
		t.Errorf("ToIndices() = %v, %v, want [0 2]", all, err)
	}

	if _, err := Build(records, RequireUniqueTitles()); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("Build(RequireUniqueTitles) error = %v, want ErrValidation", err)
	}

	// Distinct stored titles with the same normalized key resolve to the
	// first one, so the round trip only holds for it.
	folded, err := Build([]Record{
		{ItemID: 20, Title: "Up!"},
		{ItemID: 21, Title: "Up"},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, title := range []string{"Up!", "Up"} {
		i, err := folded.ToIndex(title)
		if err != nil || i != 0 {
			t.Errorf("ToIndex(%q) = %d, %v, want 0", title, i, err)
			continue
		}
		if got, _ := folded.ToTitle(i); got != "Up!" {
			t.Errorf("ToTitle(ToIndex(%q)) = %q, want %q", title, got, "Up!")
		}
	}
}

func TestDuplicateItemID(t *testing.T) {
	t.Parallel()

	_, err := Build([]Record{{ItemID: 1, Title: "A"}, {ItemID: 1, Title: "B"}})
	if !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("Build() error = %v, want ErrValidation", err)
	}
}

func TestIDAndExternalLookups(t *testing.T) {
	t.Parallel()

	idx, err := Build(testRecords())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < idx.Len(); i++ {
		id, err := idx.ItemID(i)
		if err != nil {
			t.Fatalf("ItemID(%d) error = %v", i, err)
		}
		back, err := idx.IndexOf(id)
		if err != nil || back != i {
			t.Errorf("IndexOf(ItemID(%d)) = %d, %v", i, back, err)
		}
	}
	if _, err := idx.IndexOf(4); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("IndexOf(4) error = %v, want ErrNotFound", err)
	}

	imdb, err := idx.ExternalID("imdb", 1)
	if err != nil || imdb != "0113497" {
		t.Errorf("ExternalID(imdb, 1) = %q, %v", imdb, err)
	}
	if _, err := idx.ExternalID("tmdb", 1); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("ExternalID(tmdb, 1) error = %v, want ErrNotFound", err)
	}
	i, err := idx.ByExternalID("tmdb", "862")
	if err != nil || i != 0 {
		t.Errorf("ByExternalID(tmdb, 862) = %d, %v", i, err)
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	idx, err := Build(testRecords(), RequireUniqueTitles())
	if err != nil {
		t.Fatal(err)
	}
	snap := idx.Snapshot()
	snap.Records[0].ExternalIDs["imdb"] = "changed"

	if got, _ := idx.ExternalID("imdb", 0); got != "0114709" {
		t.Errorf("Snapshot shares state with the index: imdb = %q", got)
	}

	rebuilt, err := FromSnapshot(idx.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot() error = %v", err)
	}
	if rebuilt.Len() != idx.Len() {
		t.Errorf("Len() = %d, want %d", rebuilt.Len(), idx.Len())
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Toy Story (1995)":        "toy story 1995",
		"  Amélie\t(2001) ":       "amélie 2001",
		"Spider-Man: Homecoming!": "spiderman homecoming",
		"$9.99":                   "999",
		"":                        "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
