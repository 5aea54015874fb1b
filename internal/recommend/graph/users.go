// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package graph

import (
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// UserEmbeddings derives one vector per user from the item embeddings of
// the items they rated. Ratings are mean-centred per user, each rated item
// row is weighted by its centred rating, the weighted rows are averaged and
// the result is unit-normalized. Users without ratings get a zero row.
func UserEmbeddings(interactions *linalg.CSR, itemEmb *linalg.Dense) (*linalg.Dense, error) {
	if interactions == nil || itemEmb == nil {
		return nil, recommend.Invalidf("interactions and item embeddings are required")
	}
	if interactions.Cols != itemEmb.Rows {
		return nil, recommend.Invalidf("interaction matrix has %d items, embeddings have %d rows", interactions.Cols, itemEmb.Rows)
	}

	out, err := linalg.NewDense(interactions.Rows, itemEmb.Cols, nil)
	if err != nil {
		return nil, err
	}

	for u := 0; u < interactions.Rows; u++ {
		items, ratings := interactions.Row(u)
		if len(items) == 0 {
			continue
		}

		var mean float64
		for _, r := range ratings {
			mean += float64(r)
		}
		mean /= float64(len(ratings))

		row := out.Row(u)
		inv := 1 / float64(len(items))
		for j, item := range items {
			linalg.AddScaled(row, (float64(ratings[j])-mean)*inv, itemEmb.Row(item))
		}
		linalg.Normalize(row)
	}
	return out, nil
}
