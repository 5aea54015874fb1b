// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/itemindex"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// RatingRow is one explicit rating.
type RatingRow struct {
	UserID int64
	ItemID int64
	Value  float32
}

// LoadRatings reads the rating table in file order.
func (r *Reader) LoadRatings(ctx context.Context) ([]RatingRow, error) {
	userCol, itemCol := "userId", "movieId"
	if r.medium == recommend.MediumBooks {
		userCol, itemCol = "user_id", "item_id"
	}
	q := fmt.Sprintf(`SELECT %s, %s, CAST(rating AS FLOAT)
		FROM read_csv(%s, header = true)
		WHERE rating IS NOT NULL`, userCol, itemCol, r.path(RatingsFile))

	var out []RatingRow
	if _, err := r.query(ctx, RatingsFile, q, func(rows *sql.Rows) error {
		var row RatingRow
		if err := rows.Scan(&row.UserID, &row.ItemID, &row.Value); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Interactions is the users x items rating matrix with its user index.
// User indices are assigned in ascending user id order.
type Interactions struct {
	Matrix *linalg.CSR
	Users  *itemindex.Index

	// Dropped counts ratings of items missing from the catalog.
	Dropped int
}

// BuildInteractions keeps the ratings of indexed items and builds the
// interaction matrix. A user who rated the same item twice keeps the last
// rating. Users with no remaining ratings are not indexed.
func BuildInteractions(items *itemindex.Index, ratings []RatingRow) (*Interactions, error) {
	if items == nil || items.Len() == 0 {
		return nil, recommend.Invalidf("interactions need a non-empty item index")
	}

	type cell struct {
		user int64
		item int
	}
	last := make(map[cell]float32, len(ratings))
	order := make([]cell, 0, len(ratings))
	dropped := 0
	for _, row := range ratings {
		col, err := items.IndexOf(row.ItemID)
		if err != nil {
			dropped++
			continue
		}
		c := cell{user: row.UserID, item: col}
		if _, seen := last[c]; !seen {
			order = append(order, c)
		}
		last[c] = row.Value
	}
	if len(order) == 0 {
		return nil, recommend.Invalidf("no ratings reference catalog items (%d dropped)", dropped)
	}

	userIDs := make([]int64, 0)
	seenUser := make(map[int64]struct{})
	for _, c := range order {
		if _, ok := seenUser[c.user]; !ok {
			seenUser[c.user] = struct{}{}
			userIDs = append(userIDs, c.user)
		}
	}
	slices.Sort(userIDs)

	records := make([]itemindex.Record, len(userIDs))
	row := make(map[int64]int, len(userIDs))
	for i, id := range userIDs {
		records[i] = itemindex.Record{ItemID: id}
		row[id] = i
	}
	users, err := itemindex.Build(records)
	if err != nil {
		return nil, fmt.Errorf("user index: %w", err)
	}

	triplets := make([]linalg.Triplet, len(order))
	for i, c := range order {
		triplets[i] = linalg.Triplet{Row: row[c.user], Col: c.item, Value: last[c]}
	}
	m, err := linalg.FromTriplets(len(userIDs), items.Len(), triplets)
	if err != nil {
		return nil, fmt.Errorf("interaction matrix: %w", err)
	}

	return &Interactions{Matrix: m, Users: users, Dropped: dropped}, nil
}
