// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package guard performs the idempotency existence check that runs before
// any expensive pipeline work.
package guard

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/listing-engine/internal/collab"
)

// DefaultSimilarityCutoff is the score at or above which the best index
// match counts as an existing product.
const DefaultSimilarityCutoff = 0.92

// Method identifies which check produced a hit.
type Method string

const (
	MethodExact      Method = "exact"
	MethodSimilarity Method = "similarity"
)

// Hit describes an existing product found by the guard.
type Hit struct {
	// ProductName is the existing product's name.
	ProductName string

	// Method is how the product was found: exact or similarity.
	Method Method

	// Score is the similarity score for similarity hits, 0 otherwise.
	Score float64

	// SKU is the matched SKU for exact hits, 0 otherwise.
	SKU int

	// URL is the existing product's admin URL, when the source branch
	// could resolve one.
	URL string
}

// Guard runs the exact-key and similarity existence checks.
type Guard struct {
	Commerce collab.CommerceClient
	Embeddor collab.Embeddor
	Index    collab.VectorIndex
	Cutoff   float64
}

// New returns a Guard. A non-positive cutoff selects DefaultSimilarityCutoff.
func New(commerce collab.CommerceClient, embeddor collab.Embeddor, index collab.VectorIndex, cutoff float64) *Guard {
	if cutoff <= 0 {
		cutoff = DefaultSimilarityCutoff
	}
	return &Guard{Commerce: commerce, Embeddor: embeddor, Index: index, Cutoff: cutoff}
}

// Check runs both existence checks concurrently and joins them. An exact-key
// match wins over a similarity match when both hit; exact identity is the
// stronger evidence. Returns nil only when both checks miss. A collaborator
// error in a branch is reported to w and treated as a miss for that branch:
// existence checking must never block creation. Context cancellation aborts.
//
// Each branch writes only its own locals; warnings are emitted after the
// join so w never sees concurrent writes.
func (g *Guard) Check(ctx context.Context, name string, sku int, w io.Writer) (*Hit, error) {
	var (
		exactHit, similarityHit      *Hit
		exactWarning, similarWarning string
	)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if sku == 0 {
			return nil
		}
		existing, err := g.Commerce.FindByKey(ctx, sku)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			exactWarning = fmt.Sprintf("warning: exact-key check failed: %v\n", err)
			return nil
		}
		if existing != nil {
			exactHit = &Hit{ProductName: existing.Name, Method: MethodExact, SKU: existing.SKU, URL: existing.URL}
		}
		return nil
	})

	eg.Go(func() error {
		vector, err := g.Embeddor.Embed(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			similarWarning = fmt.Sprintf("warning: similarity check embed failed: %v\n", err)
			return nil
		}
		candidates, err := g.Index.Search(ctx, vector, 1)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			similarWarning = fmt.Sprintf("warning: similarity check search failed: %v\n", err)
			return nil
		}
		if len(candidates) > 0 && candidates[0].Score >= g.Cutoff {
			similarityHit = &Hit{
				ProductName: candidates[0].Name(),
				Method:      MethodSimilarity,
				Score:       candidates[0].Score,
				URL:         candidates[0].URL(),
			}
		}
		return nil
	})

	err := eg.Wait()

	if exactWarning != "" {
		io.WriteString(w, exactWarning)
	}
	if similarWarning != "" {
		io.WriteString(w, similarWarning)
	}

	if err != nil {
		return nil, err
	}
	if exactHit != nil {
		return exactHit, nil
	}
	return similarityHit, nil
}
