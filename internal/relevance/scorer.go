// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/pkg/types"
)

const scorerSystem = `You judge whether catalog products belong to the same product
category as a target product. Brand, size, and flavour differences do not matter;
only the category does. Respond with a JSON object and nothing else.`

// scorerPromptTmpl renders the per-evaluation user prompt.
var scorerPromptTmpl = template.Must(template.New("scorer").Parse(`Target product: {{.Target}}

Candidates:
{{range $i, $c := .Candidates}}{{$i}}. {{$c}}
{{end}}
Count how many candidates are in the same product category as the target.
Also construct a broader search query for the target with all brand names removed.

Respond with JSON:
{"matches": <int>, "total": {{len .Candidates}}, "reasoning": "<one sentence>", "broader_query": "<brand-stripped query>"}`))

// LLMScorer delegates the category-relevance judgment to a text generator.
type LLMScorer struct {
	Generator collab.TextGenerator
}

type scorerResponse struct {
	Matches      int    `json:"matches"`
	Total        int    `json:"total"`
	Reasoning    string `json:"reasoning"`
	BroaderQuery string `json:"broader_query"`
}

// Score renders the prompt and parses the generator's structured reply.
func (s *LLMScorer) Score(ctx context.Context, target string, candidates []types.Candidate) (ScoreResult, error) {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		name := c.Name()
		if name == "" {
			name = c.ID
		}
		names = append(names, name)
	}

	var buf bytes.Buffer
	err := scorerPromptTmpl.Execute(&buf, struct {
		Target     string
		Candidates []string
	}{Target: target, Candidates: names})
	if err != nil {
		return ScoreResult{}, fmt.Errorf("rendering scorer prompt: %w", err)
	}

	var resp scorerResponse
	if err := s.Generator.InvokeStructured(ctx, scorerSystem, buf.String(), &resp); err != nil {
		return ScoreResult{}, err
	}

	total := resp.Total
	if total != len(candidates) {
		total = len(candidates)
	}
	if resp.Matches < 0 {
		resp.Matches = 0
	}
	if resp.Matches > total {
		resp.Matches = total
	}

	return ScoreResult{
		Matches:      resp.Matches,
		Total:        total,
		Reasoning:    resp.Reasoning,
		BroaderQuery: resp.BroaderQuery,
	}, nil
}
