// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/pdiddy/listing-engine/internal/guard"
	"github.com/pdiddy/listing-engine/internal/partial"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// State is the mutable pipeline state for one run. It is owned exclusively
// by that run; each stage writes only its own fields and reads the fields
// of earlier stages.
type State struct {
	// RequestID is the correlation identifier, immutable after creation.
	RequestID string

	// SourceQuery is the operator's free-form request, immutable.
	SourceQuery string

	// SearchTerm is the normalized query, written once by the extraction stage.
	SearchTerm string

	// Corpus is the scraped-page side of acquisition.
	Corpus partial.Result[types.Document]

	// Candidates is the candidate match set, mutated at most twice: the
	// initial fetch and at most one corrective replacement.
	Candidates []types.Candidate

	// Assessment is the relevance gate outcome.
	Assessment types.RelevanceAssessment

	// ShortCircuit is set when the idempotency guard found an existing product.
	ShortCircuit *guard.Hit

	// Listing is the validated entity, written once by synthesis.
	Listing *types.Listing

	// Publish is the publish outcome, written once by the publisher.
	Publish *types.PublishResult

	// Status is the job status, terminal once set to a terminal value.
	Status types.JobStatus

	// Err is the stage-fatal error message when Status is failed.
	Err string
}

// setTerminal records a terminal status exactly once.
func (s *State) setTerminal(status types.JobStatus, errMsg string) {
	if s.Status.Terminal() {
		return
	}
	s.Status = status
	s.Err = errMsg
}
