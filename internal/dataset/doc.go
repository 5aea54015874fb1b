// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

/*
Package dataset loads the raw catalog and rating tables the offline builder
turns into artifacts.

Tables are CSV files read in place through an in-memory DuckDB connection
(github.com/duckdb/duckdb-go/v2). Each medium has its own layout:

Movies (MovieLens layout):
  - movies.csv: movieId, title, genres (pipe separated)
  - ratings.csv: userId, movieId, rating
  - tags.csv (optional): userId, movieId, tag
  - links.csv (optional): movieId, imdbId, tmdbId

Books:
  - books.csv: item_id, title and optionally authors, description, isbn
  - ratings.csv: user_id, item_id, rating

LoadCatalog returns records sorted by item id together with the content text
of every item: genres plus all tags for movies, title plus authors plus
description for books. BuildInteractions filters ratings to catalog items
and builds the users x items matrix and the user index.

Usage:

	r, err := dataset.Open("data/movies", recommend.MediumMovies, logger)
	if err != nil {
	    return err
	}
	defer r.Close()

	cat, err := r.LoadCatalog(ctx)
	ratings, err := r.LoadRatings(ctx)
	items, err := itemindex.Build(cat.Records)
	inter, err := dataset.BuildInteractions(items, ratings)
*/
package dataset
