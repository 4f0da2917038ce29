// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package triage decides whether acquired page content needs condensing
// before use, and applies the condense transform with fallback.
package triage

import (
	"context"

	"github.com/pdiddy/listing-engine/internal/collab"
)

// DefaultThreshold is the character count above which content is condensed.
const DefaultThreshold = 15000

const condenseSystem = `You condense scraped web pages for a product-listing system.
Keep every product fact: name, brand, sizes, flavours, ingredients, nutritional
values, claims, and pricing context. Drop navigation, boilerplate, reviews
unrelated to the product, and repeated text. Reply with the condensed text only.`

// Triage gates the expensive condense transform by content size.
type Triage struct {
	Generator collab.TextGenerator
	Threshold int
}

// New returns a Triage with the given generator and threshold.
// A non-positive threshold selects DefaultThreshold.
func New(gen collab.TextGenerator, threshold int) *Triage {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Triage{Generator: gen, Threshold: threshold}
}

// Process returns text unchanged when it is at or under the threshold.
// Above the threshold it condenses text via the generator. When the
// transform fails, Process returns the original text together with the
// transform error so the caller can record it as a recoverable per-item
// failure; content is never lost to a flaky transform.
func (t *Triage) Process(ctx context.Context, text string) (string, error) {
	if len(text) <= t.Threshold {
		return text, nil
	}

	condensed, err := t.Generator.Invoke(ctx, condenseSystem, text)
	if err != nil {
		return text, err
	}
	if condensed == "" {
		return text, nil
	}
	return condensed, nil
}
