// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collab defines the external collaborator contracts the pipeline
// consumes, plus HTTP implementations for each. Every collaborator is an
// interface so stages take mocks in tests and real clients in production.
package collab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/listing-engine/pkg/types"
)

// ErrNoResults is returned by a Scraper when the web search itself finds nothing.
var ErrNoResults = errors.New("search returned no results")

// EmbeddingError wraps a failure from the embedding provider. Embedding
// failures are stage-fatal: there is nothing to compare without a vector.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError wraps a failure from the text-generation provider.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// Scraper runs a web search and fetches page content for each result.
type Scraper interface {
	// SearchAndScrape searches for query and returns up to limit scraped
	// pages. Returns ErrNoResults when the search finds nothing.
	SearchAndScrape(ctx context.Context, query string, limit int) ([]types.Document, error)
}

// Embeddor turns text into a vector.
type Embeddor interface {
	// Embed returns the embedding for text. Fails with *EmbeddingError on
	// empty input or provider error.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Point is one vector with payload for index upserts.
type Point struct {
	ID      string
	Vector  []float64
	Payload map[string]any
}

// VectorIndex is the catalog similarity index.
type VectorIndex interface {
	// Search returns the top-k nearest candidates for vector.
	Search(ctx context.Context, vector []float64, k int) ([]types.Candidate, error)

	// Upsert inserts or replaces points in collection and returns the
	// number inserted.
	Upsert(ctx context.Context, collection string, points []Point) (int, error)
}

// TextGenerator is the generative-text collaborator.
type TextGenerator interface {
	// Invoke sends a system and user prompt and returns the raw text reply.
	// Fails with *GenerationError when the provider returns nothing.
	Invoke(ctx context.Context, system, user string) (string, error)

	// InvokeStructured sends the prompts and decodes the JSON reply into out.
	InvokeStructured(ctx context.Context, system, user string, out any) error
}

// DraftHandle is the commerce system's record of a created draft product.
type DraftHandle struct {
	// ExternalID is the product ID in the commerce system.
	ExternalID string

	// ExternalURL is the admin URL for the product.
	ExternalURL string

	// InventoryItemHandles holds one inventory-item handle per variant,
	// in variant order.
	InventoryItemHandles []string

	// CreatedAt is the creation timestamp reported by the commerce system.
	CreatedAt time.Time
}

// CatalogProduct is one existing product as listed from the commerce
// catalog, used to build the similarity index.
type CatalogProduct struct {
	// ID is the product's external ID as a string.
	ID string

	// NumericID is the external ID in the platform's native form, used as
	// the paging cursor.
	NumericID int64

	// Title is the product title.
	Title string

	// Vendor is the brand or manufacturer name.
	Vendor string

	// ProductType is the category label.
	ProductType string

	// Tags are the product's catalog tags.
	Tags []string

	// URL is the product's admin URL.
	URL string
}

// ExistingProduct is a product found by an exact-key lookup.
type ExistingProduct struct {
	// Name is the product title in the commerce system.
	Name string

	// SKU is the matched variant SKU.
	SKU int

	// URL is the product's admin URL.
	URL string
}

// CommerceClient is the commerce platform collaborator.
type CommerceClient interface {
	// CreateDraft creates a draft product for the listing.
	CreateDraft(ctx context.Context, listing *types.Listing) (DraftHandle, error)

	// SetInventory sets the on-hand quantity for one inventory item at one
	// location.
	SetInventory(ctx context.Context, handle, location string, quantity int) error

	// FindByKey looks up a product by variant SKU. Returns (nil, nil) when
	// no product matches.
	FindByKey(ctx context.Context, sku int) (*ExistingProduct, error)
}
