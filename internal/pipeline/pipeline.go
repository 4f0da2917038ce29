// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the listing stages into one run per job and
// maps any stage failure to a terminal job status.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/pdiddy/listing-engine/internal/acquire"
	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/internal/guard"
	"github.com/pdiddy/listing-engine/internal/publish"
	"github.com/pdiddy/listing-engine/internal/relevance"
	"github.com/pdiddy/listing-engine/internal/synth"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// Orchestrator wires the stage implementations into the fixed sequence:
// extract → guard → acquire → gate → synthesize → publish.
type Orchestrator struct {
	Generator   collab.TextGenerator
	Guard       *guard.Guard
	Acquirer    *acquire.Acquirer
	Gate        *relevance.Gate
	Synthesizer *synth.Synthesizer
	Publisher   *publish.Publisher
}

// NewRequestID returns a fresh correlation identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// Run executes one pipeline to a terminal status. The returned state always
// carries a terminal Status; a stage-fatal error additionally sets Err and
// is returned. Cancellation is honored between stages: the current stage is
// drained, then the run fails with the context error.
func (o *Orchestrator) Run(ctx context.Context, requestID string, req types.ListingRequest, w io.Writer) (*State, error) {
	if requestID == "" {
		requestID = NewRequestID()
	}
	state := &State{
		RequestID:   requestID,
		SourceQuery: req.Query,
		Status:      types.StatusPending,
	}

	if err := validateRequest(req); err != nil {
		return o.fail(state, err)
	}

	// Extraction: normalize the free-form request into a search term.
	term, err := o.extractSearchTerm(ctx, req.Query)
	if err != nil {
		return o.fail(state, fmt.Errorf("extracting search term: %w", err))
	}
	state.SearchTerm = term
	fmt.Fprintf(w, "search term: %q\n", term)

	if err := ctx.Err(); err != nil {
		return o.fail(state, err)
	}

	// Idempotency guard: short-circuit before any expensive work.
	hit, err := o.Guard.Check(ctx, term, firstSKU(req), w)
	if err != nil {
		return o.fail(state, fmt.Errorf("idempotency check: %w", err))
	}
	if hit != nil {
		fmt.Fprintf(w, "existing product %q found via %s check, skipping creation\n", hit.ProductName, hit.Method)
		state.ShortCircuit = hit
		state.setTerminal(types.StatusShortCircuited, "")
		return state, nil
	}

	if err := ctx.Err(); err != nil {
		return o.fail(state, err)
	}

	// Concurrent acquisition.
	acquired, err := o.Acquirer.Acquire(ctx, term, w)
	if err != nil {
		return o.fail(state, err)
	}
	state.Corpus = acquired.Corpus
	state.Candidates = acquired.Candidates
	fmt.Fprintf(w, "acquired %d pages (%d failed), %d candidate matches\n",
		len(acquired.Corpus.Successes), len(acquired.Corpus.Failures), len(acquired.Candidates))

	if err := ctx.Err(); err != nil {
		return o.fail(state, err)
	}

	// Relevance gate.
	assessment, err := o.Gate.Evaluate(ctx, term, state.Candidates, w)
	if err != nil {
		return o.fail(state, err)
	}
	state.Assessment = assessment
	state.Candidates = assessment.ResultSet
	fmt.Fprintf(w, "relevance %d%% (%d/%d): %s\n",
		assessment.Score, assessment.Matches, assessment.Total, assessment.Action)

	if err := ctx.Err(); err != nil {
		return o.fail(state, err)
	}

	// Synthesis.
	listing, err := o.Synthesizer.Synthesize(ctx, term, state.Corpus, state.Candidates, req.Variants, w)
	if err != nil {
		return o.fail(state, err)
	}
	state.Listing = listing

	if err := ctx.Err(); err != nil {
		return o.fail(state, err)
	}

	// Publish.
	result, err := o.Publisher.Publish(ctx, listing, w)
	if err != nil {
		return o.fail(state, err)
	}
	state.Publish = &result
	fmt.Fprintf(w, "published %s (inventory filled: %v)\n", result.ExternalURL, result.InventoryFilled)

	state.setTerminal(types.StatusCompleted, "")
	return state, nil
}

func (o *Orchestrator) fail(state *State, err error) (*State, error) {
	state.setTerminal(types.StatusFailed, err.Error())
	return state, err
}

func validateRequest(req types.ListingRequest) error {
	if req.Query == "" {
		return fmt.Errorf("request has no query")
	}
	if len(req.Variants) == 0 {
		return fmt.Errorf("request has no variants")
	}
	for i, v := range req.Variants {
		if len(v.Options) == 0 {
			return fmt.Errorf("variant %d has no options", i)
		}
	}
	return nil
}

// firstSKU returns the exact-lookup key: the first variant SKU, or 0 when
// the operator supplied none.
func firstSKU(req types.ListingRequest) int {
	for _, v := range req.Variants {
		if v.SKU != 0 {
			return v.SKU
		}
	}
	return 0
}

const extractSystem = `You normalize free-form product requests into concise web
search terms. Keep the brand, product name, and size; drop filler words.
Respond with JSON: {"search_term": "..."} and nothing else.`

func (o *Orchestrator) extractSearchTerm(ctx context.Context, query string) (string, error) {
	var resp struct {
		SearchTerm string `json:"search_term"`
	}
	if err := o.Generator.InvokeStructured(ctx, extractSystem, query, &resp); err != nil {
		return "", err
	}
	if resp.SearchTerm == "" {
		return "", fmt.Errorf("extraction produced an empty search term")
	}
	return resp.SearchTerm, nil
}
