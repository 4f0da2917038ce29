// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog builds the similarity index from the commerce catalog.
// The guard and the acquisition stage search this index; sync keeps it
// populated.
package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/listing-engine/internal/collab"
)

// Lister pages through the commerce catalog.
type Lister interface {
	ListProducts(ctx context.Context, sinceID int64, limit int) ([]collab.CatalogProduct, error)
}

// SyncSummary holds counts from one catalog sync run.
type SyncSummary struct {
	Indexed int
	Failed  int
}

// Total returns the number of products processed.
func (s SyncSummary) Total() int {
	return s.Indexed + s.Failed
}

// Syncer embeds every catalog product and upserts it into the index.
type Syncer struct {
	Lister     Lister
	Embeddor   collab.Embeddor
	Index      collab.VectorIndex
	Collection string
	PageSize   int
}

// Sync pages through the whole catalog. A product whose embedding fails is
// counted and skipped; a listing or upsert failure aborts, since it means
// either the catalog or the index is unreachable.
func (s *Syncer) Sync(ctx context.Context, w io.Writer) (SyncSummary, error) {
	var summary SyncSummary
	var sinceID int64

	for {
		products, err := s.Lister.ListProducts(ctx, sinceID, s.PageSize)
		if err != nil {
			return summary, fmt.Errorf("listing catalog page: %w", err)
		}
		if len(products) == 0 {
			break
		}

		var points []collab.Point
		for _, p := range products {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			// Advance the cursor even past failed products, so a page of
			// failures cannot loop forever.
			if p.NumericID > sinceID {
				sinceID = p.NumericID
			}

			vector, err := s.Embeddor.Embed(ctx, p.Title)
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", p.Title, err)
				summary.Failed++
				continue
			}
			points = append(points, collab.Point{
				ID:     p.ID,
				Vector: vector,
				Payload: map[string]any{
					"name":         p.Title,
					"vendor":       p.Vendor,
					"product_type": p.ProductType,
					"tags":         p.Tags,
					"url":          p.URL,
				},
			})
		}

		if len(points) > 0 {
			n, err := s.Index.Upsert(ctx, s.Collection, points)
			if err != nil {
				return summary, fmt.Errorf("upserting %d points: %w", len(points), err)
			}
			summary.Indexed += n
			fmt.Fprintf(w, "indexed %d products\n", n)
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, failed: %d\n", summary.Indexed, summary.Failed)
	return summary, nil
}
