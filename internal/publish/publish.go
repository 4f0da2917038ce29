// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish submits the validated listing to the commerce system and
// reconciles per-location inventory, tolerating partial reconciliation failure.
package publish

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// Publisher runs the two publish phases.
type Publisher struct {
	Commerce collab.CommerceClient
}

// Publish creates the draft product, then sets inventory for each variant
// location that requested a quantity. Draft creation failure is fatal;
// inventory failures are counted and reported through InventoryFilled, but
// the result still carries the external URL since the product exists.
func (p *Publisher) Publish(ctx context.Context, listing *types.Listing, w io.Writer) (types.PublishResult, error) {
	handle, err := p.Commerce.CreateDraft(ctx, listing)
	if err != nil {
		return types.PublishResult{}, fmt.Errorf("creating draft: %w", err)
	}

	createdAt := handle.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result := types.PublishResult{
		ExternalID:  handle.ExternalID,
		ExternalURL: handle.ExternalURL,
		CreatedAt:   createdAt,
	}

	failures := 0
	for i, variant := range listing.Variants {
		if len(variant.Inventory) == 0 {
			continue
		}
		if i >= len(handle.InventoryItemHandles) {
			failures += len(variant.Inventory)
			fmt.Fprintf(w, "warning: no inventory item handle for variant %d, skipping its levels\n", i)
			continue
		}
		itemHandle := handle.InventoryItemHandles[i]

		for _, location := range sortedLocations(variant.Inventory) {
			outcome := types.InventoryOutcome{Handle: itemHandle, Location: location}
			if err := p.Commerce.SetInventory(ctx, itemHandle, location, variant.Inventory[location]); err != nil {
				outcome.Error = err.Error()
				failures++
				fmt.Fprintf(w, "warning: inventory set failed for item %s at %s: %v\n", itemHandle, location, err)
			}
			result.InventoryOutcomes = append(result.InventoryOutcomes, outcome)
		}
	}

	result.InventoryFilled = failures == 0
	return result, nil
}

// sortedLocations returns the location IDs in stable order.
func sortedLocations(inventory map[string]int) []string {
	locations := make([]string, 0, len(inventory))
	for loc := range inventory {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	return locations
}
