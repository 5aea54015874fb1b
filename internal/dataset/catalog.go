// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
)

// External id namespaces filled from the link columns.
const (
	NamespaceIMDB = "imdb"
	NamespaceTMDB = "tmdb"
	NamespaceISBN = "isbn"
)

// Catalog is the item table of one medium, sorted by item id. Docs[i] is
// the content text of Records[i].
type Catalog struct {
	Medium  recommend.Medium
	Records []itemindex.Record
	Docs    []string
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.Records) }

// LoadCatalog reads the item table. Movies get their genres and all user
// tags as content text; books get title, authors and description.
func (r *Reader) LoadCatalog(ctx context.Context) (*Catalog, error) {
	var (
		q    string
		scan func(*sql.Rows, *Catalog) error
	)
	table := MoviesFile
	if r.medium == recommend.MediumBooks {
		table = BooksFile
		cols, err := r.columns(ctx, BooksFile)
		if err != nil {
			return nil, err
		}
		for _, c := range []string{"item_id", "title"} {
			if !cols[c] {
				return nil, recommend.Invalidf("%s has no %s column", BooksFile, c)
			}
		}
		q, scan = booksQuery(r.path(BooksFile), cols), scanBook
	} else {
		q, scan = r.moviesQuery(), scanMovie
	}

	cat := &Catalog{Medium: r.medium}
	if _, err := r.query(ctx, table, q, func(rows *sql.Rows) error {
		return scan(rows, cat)
	}); err != nil {
		return nil, err
	}
	if cat.Len() == 0 {
		return nil, recommend.Invalidf("%s catalog in %s is empty", r.medium, r.dir)
	}

	r.logger.Info().Int("items", cat.Len()).Msg("catalog loaded")
	return cat, nil
}

// moviesQuery joins movies with aggregated tags and optional links.
func (r *Reader) moviesQuery() string {
	tags := "SELECT NULL::BIGINT AS movieId, NULL::VARCHAR AS tags WHERE false"
	if r.exists(TagsFile) {
		tags = fmt.Sprintf(`SELECT movieId, string_agg(CAST(tag AS VARCHAR), ' ' ORDER BY CAST(tag AS VARCHAR)) AS tags
			FROM read_csv(%s, header = true)
			WHERE tag IS NOT NULL
			GROUP BY movieId`, r.path(TagsFile))
	}
	links := "SELECT NULL::BIGINT AS movieId, NULL::VARCHAR AS imdbId, NULL::VARCHAR AS tmdbId WHERE false"
	if r.exists(LinksFile) {
		links = fmt.Sprintf(`SELECT movieId, imdbId, tmdbId
			FROM read_csv(%s, header = true, types = {'imdbId': 'VARCHAR', 'tmdbId': 'VARCHAR'})`, r.path(LinksFile))
	}

	return fmt.Sprintf(`WITH t AS (%s), l AS (%s)
		SELECT m.movieId,
		       CAST(m.title AS VARCHAR),
		       coalesce(CAST(m.genres AS VARCHAR), ''),
		       coalesce(t.tags, ''),
		       coalesce(l.imdbId, ''),
		       coalesce(l.tmdbId, '')
		FROM read_csv(%s, header = true) m
		LEFT JOIN t ON t.movieId = m.movieId
		LEFT JOIN l ON l.movieId = m.movieId
		ORDER BY m.movieId`, tags, links, r.path(MoviesFile))
}

func scanMovie(rows *sql.Rows, cat *Catalog) error {
	var (
		id             int64
		title          sql.NullString
		genres, tags   string
		imdbID, tmdbID string
	)
	if err := rows.Scan(&id, &title, &genres, &tags, &imdbID, &tmdbID); err != nil {
		return err
	}
	rec := itemindex.Record{ItemID: id, Title: title.String}
	rec.ExternalIDs = externalIDs(NamespaceIMDB, imdbID, NamespaceTMDB, tmdbID)
	cat.Records = append(cat.Records, rec)
	// MovieLens separates genres with pipes.
	cat.Docs = append(cat.Docs, joinText(strings.ReplaceAll(genres, "|", " "), tags))
	return nil
}

// booksQuery reads the books table. Only item_id and title are required;
// missing text columns read as empty.
func booksQuery(file string, cols map[string]bool) string {
	optional := func(name string) string {
		if !cols[name] {
			return "''"
		}
		return fmt.Sprintf("coalesce(CAST(%s AS VARCHAR), '')", name)
	}
	types := ""
	if cols["isbn"] {
		// Keep leading zeros.
		types = ", types = {'isbn': 'VARCHAR'}"
	}
	return fmt.Sprintf(`SELECT item_id,
		       CAST(title AS VARCHAR),
		       %s,
		       %s,
		       %s
		FROM read_csv(%s, header = true%s)
		ORDER BY item_id`, optional("authors"), optional("description"), optional("isbn"), file, types)
}

func scanBook(rows *sql.Rows, cat *Catalog) error {
	var (
		id                   int64
		title                sql.NullString
		authors, description string
		isbn                 string
	)
	if err := rows.Scan(&id, &title, &authors, &description, &isbn); err != nil {
		return err
	}
	rec := itemindex.Record{ItemID: id, Title: title.String}
	rec.ExternalIDs = externalIDs(NamespaceISBN, isbn)
	cat.Records = append(cat.Records, rec)
	cat.Docs = append(cat.Docs, joinText(title.String, authors, description))
	return nil
}

// externalIDs builds a namespace map from alternating namespace, value
// pairs, skipping empty values. It returns nil when nothing is set.
func externalIDs(pairs ...string) map[string]string {
	var out map[string]string
	for i := 0; i+1 < len(pairs); i += 2 {
		v := strings.TrimSpace(pairs[i+1])
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(pairs)/2)
		}
		out[pairs[i]] = v
	}
	return out
}

func joinText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
