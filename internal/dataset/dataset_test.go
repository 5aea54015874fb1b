// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
)

// writeTables creates a directory holding the given files.
func writeTables(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func movieTables(t *testing.T) string {
	return writeTables(t, map[string]string{
		MoviesFile: `
movieId,title,genres
2,Jumanji (1995),Adventure|Children|Fantasy
1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy
6,Heat (1995),Action|Crime|Thriller
`,
		TagsFile: `
userId,movieId,tag,timestamp
15,1,pixar,1139045764
15,1,fun,1139045764
20,6,heist,1139045764
`,
		LinksFile: `
movieId,imdbId,tmdbId
1,0114709,862
2,0113497,8844
6,0113277,
`,
		RatingsFile: `
userId,movieId,rating,timestamp
1,1,4.0,964982703
1,6,4.0,964982224
5,1,4.0,847434962
5,99,3.0,847434962
3,2,2.5,847434962
3,2,3.5,847434999
`,
	})
}

func openReader(t *testing.T, dir string, medium recommend.Medium) *Reader {
	t.Helper()
	r, err := Open(dir, medium, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpen_MissingTable(t *testing.T) {
	dir := writeTables(t, map[string]string{MoviesFile: "movieId,title,genres\n"})
	_, err := Open(dir, recommend.MediumMovies, zerolog.Nop())
	if !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}

	if _, err := Open(dir, recommend.Medium("games"), zerolog.Nop()); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("Open(games) error = %v, want ErrValidation", err)
	}
}

func TestLoadCatalog_Movies(t *testing.T) {
	r := openReader(t, movieTables(t), recommend.MediumMovies)

	cat, err := r.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if cat.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cat.Len())
	}

	wantIDs := []int64{1, 2, 6}
	for i, id := range wantIDs {
		if cat.Records[i].ItemID != id {
			t.Errorf("Records[%d].ItemID = %d, want %d (sorted by id)", i, cat.Records[i].ItemID, id)
		}
	}
	if cat.Records[0].Title != "Toy Story (1995)" {
		t.Errorf("Records[0].Title = %q", cat.Records[0].Title)
	}
	if got := cat.Docs[0]; got != "Adventure Animation Children Comedy Fantasy fun pixar" {
		t.Errorf("Docs[0] = %q, want genres then sorted tags", got)
	}
	if got := cat.Docs[1]; got != "Adventure Children Fantasy" {
		t.Errorf("Docs[1] = %q, want genres only", got)
	}
	if got := cat.Records[0].ExternalIDs[NamespaceIMDB]; got != "0114709" {
		t.Errorf("imdb id = %q, want leading zeros kept", got)
	}
	if _, ok := cat.Records[2].ExternalIDs[NamespaceTMDB]; ok {
		t.Error("empty tmdb id should be omitted")
	}
}

func TestLoadCatalog_MoviesWithoutOptionalTables(t *testing.T) {
	dir := writeTables(t, map[string]string{
		MoviesFile:  "movieId,title,genres\n1,Toy Story (1995),Animation\n",
		RatingsFile: "userId,movieId,rating,timestamp\n1,1,5.0,0\n",
	})
	r := openReader(t, dir, recommend.MediumMovies)

	cat, err := r.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if cat.Docs[0] != "Animation" || cat.Records[0].ExternalIDs != nil {
		t.Errorf("catalog = %+v / %q", cat.Records[0], cat.Docs[0])
	}
}

func TestLoadCatalog_Books(t *testing.T) {
	dir := writeTables(t, map[string]string{
		BooksFile: `
item_id,title,authors,description,isbn
20,Dune,Frank Herbert,"Desert planet, spice and prophecy",0441013597
10,Emma,Jane Austen,,
`,
		RatingsFile: "user_id,item_id,rating\n1,10,5\n",
	})
	r := openReader(t, dir, recommend.MediumBooks)

	cat, err := r.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if cat.Len() != 2 || cat.Records[0].Title != "Emma" {
		t.Fatalf("Records = %+v, want Emma first", cat.Records)
	}
	if cat.Docs[0] != "Emma Jane Austen" {
		t.Errorf("Docs[0] = %q", cat.Docs[0])
	}
	if cat.Docs[1] != "Dune Frank Herbert Desert planet, spice and prophecy" {
		t.Errorf("Docs[1] = %q", cat.Docs[1])
	}
	if cat.Records[1].ExternalIDs[NamespaceISBN] != "0441013597" {
		t.Errorf("isbn = %v", cat.Records[1].ExternalIDs)
	}
}

func TestLoadCatalog_BooksMissingTitle(t *testing.T) {
	dir := writeTables(t, map[string]string{
		BooksFile:   "item_id,name\n1,Dune\n",
		RatingsFile: "user_id,item_id,rating\n1,1,5\n",
	})
	r := openReader(t, dir, recommend.MediumBooks)

	if _, err := r.LoadCatalog(context.Background()); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("LoadCatalog() error = %v, want ErrValidation", err)
	}
}

func TestLoadRatings(t *testing.T) {
	r := openReader(t, movieTables(t), recommend.MediumMovies)

	rows, err := r.LoadRatings(context.Background())
	if err != nil {
		t.Fatalf("LoadRatings() error = %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("len(rows) = %d, want 6", len(rows))
	}
	if rows[0] != (RatingRow{UserID: 1, ItemID: 1, Value: 4}) {
		t.Errorf("rows[0] = %+v", rows[0])
	}
}

func TestBuildInteractions(t *testing.T) {
	items, err := itemindex.Build([]itemindex.Record{
		{ItemID: 1, Title: "Toy Story (1995)"},
		{ItemID: 2, Title: "Jumanji (1995)"},
		{ItemID: 6, Title: "Heat (1995)"},
	})
	if err != nil {
		t.Fatal(err)
	}
	ratings := []RatingRow{
		{UserID: 5, ItemID: 1, Value: 4},
		{UserID: 5, ItemID: 99, Value: 3},
		{UserID: 1, ItemID: 6, Value: 4},
		{UserID: 3, ItemID: 2, Value: 2.5},
		{UserID: 3, ItemID: 2, Value: 3.5},
		{UserID: 7, ItemID: 42, Value: 1},
	}

	got, err := BuildInteractions(items, ratings)
	if err != nil {
		t.Fatalf("BuildInteractions() error = %v", err)
	}
	if got.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", got.Dropped)
	}
	if got.Matrix.Rows != 3 || got.Matrix.Cols != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", got.Matrix.Rows, got.Matrix.Cols)
	}

	// Users are indexed by ascending id; user 7 only rated an unknown item.
	for i, id := range []int64{1, 3, 5} {
		if uid, err := got.Users.ItemID(i); err != nil || uid != id {
			t.Errorf("Users.ItemID(%d) = %d, %v; want %d", i, uid, err, id)
		}
	}

	cols, vals := got.Matrix.Row(1)
	if len(cols) != 1 || cols[0] != 1 || vals[0] != 3.5 {
		t.Errorf("user 3 row = %v %v, want last rating 3.5 for Jumanji", cols, vals)
	}
	if got.Matrix.NNZ() != 3 {
		t.Errorf("NNZ() = %d, want 3", got.Matrix.NNZ())
	}
}

func TestBuildInteractions_Validation(t *testing.T) {
	items, err := itemindex.Build([]itemindex.Record{{ItemID: 1, Title: "A"}})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		items   *itemindex.Index
		ratings []RatingRow
	}{
		{"nil index", nil, []RatingRow{{UserID: 1, ItemID: 1, Value: 1}}},
		{"no ratings", items, nil},
		{"only unknown items", items, []RatingRow{{UserID: 1, ItemID: 2, Value: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildInteractions(tt.items, tt.ratings); !errors.Is(err, recommend.ErrValidation) {
				t.Errorf("BuildInteractions() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := quoteLiteral("/data/o'brien/movies.csv"); got != "'/data/o''brien/movies.csv'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
}
