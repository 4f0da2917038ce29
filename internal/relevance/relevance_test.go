// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/pkg/types"
)

type fixedScorer struct {
	result ScoreResult
	err    error
	calls  int
}

func (f *fixedScorer) Score(_ context.Context, _ string, _ []types.Candidate) (ScoreResult, error) {
	f.calls++
	return f.result, f.err
}

type mockEmbeddor struct {
	vector []float64
	err    error
	calls  int
	lastIn string
}

func (m *mockEmbeddor) Embed(_ context.Context, text string) ([]float64, error) {
	m.calls++
	m.lastIn = text
	return m.vector, m.err
}

type mockIndex struct {
	collab.VectorIndex
	candidates []types.Candidate
	err        error
	calls      int
}

func (m *mockIndex) Search(_ context.Context, _ []float64, _ int) ([]types.Candidate, error) {
	m.calls++
	return m.candidates, m.err
}

func candidateSet(names ...string) []types.Candidate {
	out := make([]types.Candidate, 0, len(names))
	for i, n := range names {
		out = append(out, types.Candidate{
			ID:      fmt.Sprintf("c%d", i),
			Payload: map[string]any{"name": n},
			Score:   0.8,
		})
	}
	return out
}

func TestScoreAtThresholdAccepts(t *testing.T) {
	// 1 of 2 matches: exactly 50, inclusive on the accept side.
	scorer := &fixedScorer{result: ScoreResult{Matches: 1, Total: 2}}
	embed := &mockEmbeddor{vector: []float64{0.1}}
	idx := &mockIndex{}
	g := New(scorer, embed, idx, 50, 5)

	original := candidateSet("Whey A", "Unrelated Chair")
	a, err := g.Evaluate(context.Background(), "whey protein", original, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if a.Action != types.ActionAccept {
		t.Fatalf("action = %q, want accept at score 50", a.Action)
	}
	if a.Score != 50 {
		t.Errorf("score = %d, want 50", a.Score)
	}
	if len(a.ResultSet) != 2 || a.ResultSet[0].ID != original[0].ID {
		t.Error("accepted set was modified")
	}
	if embed.calls != 0 || idx.calls != 0 {
		t.Error("requery collaborators called on accept")
	}
}

func TestBelowThresholdRequeriesOnce(t *testing.T) {
	scorer := &fixedScorer{result: ScoreResult{
		Matches: 1, Total: 3,
		BroaderQuery: "whey protein powder",
	}}
	replacement := candidateSet("Whey B", "Whey C")
	embed := &mockEmbeddor{vector: []float64{0.1}}
	idx := &mockIndex{candidates: replacement}
	g := New(scorer, embed, idx, 50, 5)

	var buf bytes.Buffer
	a, err := g.Evaluate(context.Background(), "BrandX whey", candidateSet("x", "y", "z"), &buf)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if a.Action != types.ActionRequery {
		t.Fatalf("action = %q, want requery", a.Action)
	}
	if a.Score != 33 {
		t.Errorf("score = %d, want 33", a.Score)
	}
	if embed.calls != 1 || idx.calls != 1 {
		t.Errorf("requery ran %d/%d times, want exactly once", embed.calls, idx.calls)
	}
	if embed.lastIn != "whey protein powder" {
		t.Errorf("requery used %q, want the brand-stripped query", embed.lastIn)
	}
	// Replacement is full, never blended with the old set.
	if len(a.ResultSet) != 2 || a.ResultSet[0].Name() != "Whey B" {
		t.Errorf("result set = %+v", a.ResultSet)
	}
	// The replacement set is accepted unconditionally: no second scoring.
	if scorer.calls != 1 {
		t.Errorf("scorer called %d times, want 1", scorer.calls)
	}
}

func TestEmptyRequeryIsFatal(t *testing.T) {
	scorer := &fixedScorer{result: ScoreResult{Matches: 0, Total: 3, BroaderQuery: "whey"}}
	g := New(scorer, &mockEmbeddor{vector: []float64{0.1}}, &mockIndex{}, 50, 5)

	_, err := g.Evaluate(context.Background(), "whey", candidateSet("x", "y", "z"), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected fatal error for empty corrective requery")
	}
	if !strings.Contains(err.Error(), "no candidates") {
		t.Errorf("err = %v", err)
	}
}

func TestRequeryEmbedFailureIsFatal(t *testing.T) {
	scorer := &fixedScorer{result: ScoreResult{Matches: 0, Total: 2, BroaderQuery: "whey"}}
	embed := &mockEmbeddor{err: &collab.EmbeddingError{Err: fmt.Errorf("down")}}
	g := New(scorer, embed, &mockIndex{}, 50, 5)

	if _, err := g.Evaluate(context.Background(), "whey", candidateSet("x", "y"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error when requery embed fails")
	}
}

func TestScorerErrorPropagates(t *testing.T) {
	scorer := &fixedScorer{err: &collab.GenerationError{Err: fmt.Errorf("no reply")}}
	g := New(scorer, &mockEmbeddor{}, &mockIndex{}, 50, 5)

	if _, err := g.Evaluate(context.Background(), "whey", candidateSet("x"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected scorer error to propagate")
	}
}

// structuredGenerator replies to InvokeStructured with canned JSON.
type structuredGenerator struct {
	reply      string
	lastPrompt string
}

func (s *structuredGenerator) Invoke(_ context.Context, _, _ string) (string, error) {
	return s.reply, nil
}

func (s *structuredGenerator) InvokeStructured(_ context.Context, _, user string, out any) error {
	s.lastPrompt = user
	return json.Unmarshal([]byte(s.reply), out)
}

func TestLLMScorer(t *testing.T) {
	gen := &structuredGenerator{
		reply: `{"matches": 2, "total": 3, "reasoning": "two protein powders", "broader_query": "whey protein"}`,
	}
	s := &LLMScorer{Generator: gen}

	result, err := s.Score(context.Background(), "BrandX Whey 5lb",
		candidateSet("Whey A", "Whey B", "Office Chair"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.Matches != 2 || result.Total != 3 {
		t.Errorf("result = %+v", result)
	}
	if result.BroaderQuery != "whey protein" {
		t.Errorf("broader query = %q", result.BroaderQuery)
	}
	if !strings.Contains(gen.lastPrompt, "Whey A") || !strings.Contains(gen.lastPrompt, "BrandX Whey 5lb") {
		t.Errorf("prompt missing inputs: %q", gen.lastPrompt)
	}
}

func TestLLMScorerClampsCounts(t *testing.T) {
	gen := &structuredGenerator{reply: `{"matches": 9, "total": 1, "reasoning": "", "broader_query": ""}`}
	s := &LLMScorer{Generator: gen}

	result, err := s.Score(context.Background(), "whey", candidateSet("a", "b"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.Total != 2 || result.Matches != 2 {
		t.Errorf("result = %+v, want clamped to candidate count", result)
	}
}
