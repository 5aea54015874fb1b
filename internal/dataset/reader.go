// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// DuckDB driver - reads the raw CSV tables in place
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mediarec/internal/metrics"
	"github.com/tomtom215/mediarec/internal/recommend"
)

// Table files per medium. Optional tables may be absent.
const (
	MoviesFile  = "movies.csv"
	TagsFile    = "tags.csv"
	LinksFile   = "links.csv"
	BooksFile   = "books.csv"
	RatingsFile = "ratings.csv"
)

// Reader reads the raw catalog and rating tables of one medium using an
// in-memory DuckDB connection. DuckDB's CSV scanner handles quoting, type
// detection and joins, so no table is materialized outside the query.
type Reader struct {
	db     *sql.DB
	dir    string
	medium recommend.Medium
	logger zerolog.Logger
}

// Open creates a reader for the tables in dir. It fails when a required
// table file is missing.
func Open(dir string, medium recommend.Medium, logger zerolog.Logger) (*Reader, error) {
	if _, err := recommend.ParseMedium(string(medium)); err != nil {
		return nil, err
	}
	for _, name := range requiredFiles(medium) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				return nil, recommend.NotFoundf("%s table %s in %s", medium, name, dir)
			}
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	return &Reader{
		db:     db,
		dir:    dir,
		medium: medium,
		logger: logger.With().Str("component", "dataset").Str("medium", string(medium)).Logger(),
	}, nil
}

// Close releases the DuckDB connection.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Medium returns the medium the reader was opened for.
func (r *Reader) Medium() recommend.Medium { return r.medium }

func requiredFiles(medium recommend.Medium) []string {
	if medium == recommend.MediumBooks {
		return []string{BooksFile, RatingsFile}
	}
	return []string{MoviesFile, RatingsFile}
}

// path returns the table file quoted as a SQL string literal.
func (r *Reader) path(name string) string {
	return quoteLiteral(filepath.Join(r.dir, name))
}

// exists reports whether an optional table file is present.
func (r *Reader) exists(name string) bool {
	_, err := os.Stat(filepath.Join(r.dir, name))
	return err == nil
}

// quoteLiteral renders s as a single-quoted SQL literal. Table functions
// such as read_csv take their path as a constant, not a bind parameter.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// query runs q and records how many rows the scan callback accepted.
func (r *Reader) query(ctx context.Context, table, q string, scan func(*sql.Rows) error) (int, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	n := 0
	for rows.Next() {
		if err := scan(rows); err != nil {
			return n, fmt.Errorf("scan %s row %d: %w", table, n, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return n, err
		}
		return n, fmt.Errorf("read %s: %w", table, err)
	}

	metrics.RecordDatasetRows(string(r.medium), table, n)
	r.logger.Debug().Str("table", table).Int("rows", n).Msg("table loaded")
	return n, nil
}

// columns returns the header columns of a table file.
func (r *Reader) columns(ctx context.Context, name string) (map[string]bool, error) {
	q := fmt.Sprintf("DESCRIBE SELECT * FROM read_csv(%s, header = true)", r.path(name))
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err is checked below

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, err)
	}
	dest := make([]any, len(colTypes))
	for i := range dest {
		dest[i] = new(sql.NullString)
	}

	cols := make(map[string]bool)
	for rows.Next() {
		// DESCRIBE returns column_name first.
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("describe %s: %w", name, err)
		}
		cols[strings.ToLower(dest[0].(*sql.NullString).String)] = true
	}
	return cols, rows.Err()
}
