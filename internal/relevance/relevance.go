// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance gates the candidate match set behind a quality score,
// with a single bounded corrective requery.
package relevance

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// DefaultAcceptThreshold is the inclusive score at which a candidate set is
// accepted without correction.
const DefaultAcceptThreshold = 50

// ScoreResult is the scorer's judgment of a candidate set against a target.
type ScoreResult struct {
	// Matches counts candidates judged category-relevant to the target.
	Matches int

	// Total counts candidates assessed.
	Total int

	// Reasoning is the scorer's explanation.
	Reasoning string

	// BroaderQuery is the scorer's brand-stripped, broader corrective
	// query, used when the set is rejected.
	BroaderQuery string
}

// Scorer judges category relevance between candidates and a target
// description. Implementations delegate the judgment to an LLM; the gate
// owns the threshold and the retry bound.
type Scorer interface {
	Score(ctx context.Context, target string, candidates []types.Candidate) (ScoreResult, error)
}

// Gate applies the relevance threshold and the single corrective requery.
type Gate struct {
	Scorer    Scorer
	Embeddor  collab.Embeddor
	Index     collab.VectorIndex
	Threshold int
	TopK      int
}

// New returns a Gate. A non-positive threshold selects DefaultAcceptThreshold.
func New(scorer Scorer, embeddor collab.Embeddor, index collab.VectorIndex, threshold, topK int) *Gate {
	if threshold <= 0 {
		threshold = DefaultAcceptThreshold
	}
	if topK <= 0 {
		topK = 5
	}
	return &Gate{Scorer: scorer, Embeddor: embeddor, Index: index, Threshold: threshold, TopK: topK}
}

// Evaluate scores candidates against target. At or above the threshold the
// set is accepted unchanged. Below it, exactly one corrective requery runs
// with the scorer's broader query, and its result replaces the set
// unconditionally; old and new sets are never blended. A corrective requery
// that returns no candidates is fatal: the gate cannot self-heal twice.
func (g *Gate) Evaluate(ctx context.Context, target string, candidates []types.Candidate, w io.Writer) (types.RelevanceAssessment, error) {
	sr, err := g.Scorer.Score(ctx, target, candidates)
	if err != nil {
		return types.RelevanceAssessment{}, fmt.Errorf("scoring candidates: %w", err)
	}

	score := 0
	if sr.Total > 0 {
		score = 100 * sr.Matches / sr.Total
	}

	assessment := types.RelevanceAssessment{
		Score:     score,
		Matches:   sr.Matches,
		Total:     sr.Total,
		Reasoning: sr.Reasoning,
	}

	if score >= g.Threshold {
		assessment.Action = types.ActionAccept
		assessment.ResultSet = candidates
		return assessment, nil
	}

	broader := sr.BroaderQuery
	if broader == "" {
		broader = target
	}
	fmt.Fprintf(w, "relevance %d%% below threshold, requerying with %q\n", score, broader)

	replacement, err := g.requery(ctx, broader)
	if err != nil {
		return types.RelevanceAssessment{}, fmt.Errorf("corrective requery: %w", err)
	}
	if len(replacement) == 0 {
		return types.RelevanceAssessment{}, fmt.Errorf("corrective requery for %q returned no candidates", broader)
	}

	assessment.Action = types.ActionRequery
	assessment.ResultSet = replacement
	return assessment, nil
}

func (g *Gate) requery(ctx context.Context, query string) ([]types.Candidate, error) {
	vector, err := g.Embeddor.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return g.Index.Search(ctx, vector, g.TopK)
}
