// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/internal/partial"
	"github.com/pdiddy/listing-engine/internal/triage"
	"github.com/pdiddy/listing-engine/pkg/types"
)

type mockScraper struct {
	docs []types.Document
	err  error
}

func (m *mockScraper) SearchAndScrape(_ context.Context, _ string, _ int) ([]types.Document, error) {
	return m.docs, m.err
}

type mockEmbeddor struct {
	vector []float64
	err    error
}

func (m *mockEmbeddor) Embed(_ context.Context, _ string) ([]float64, error) {
	return m.vector, m.err
}

type mockIndex struct {
	collab.VectorIndex
	candidates []types.Candidate
	err        error
}

func (m *mockIndex) Search(_ context.Context, _ []float64, _ int) ([]types.Candidate, error) {
	return m.candidates, m.err
}

type mockGenerator struct {
	reply string
	err   error
}

func (m *mockGenerator) Invoke(_ context.Context, _, _ string) (string, error) {
	return m.reply, m.err
}

func (m *mockGenerator) InvokeStructured(_ context.Context, _, _ string, _ any) error {
	return fmt.Errorf("not used")
}

func newAcquirer(s *mockScraper, e *mockEmbeddor, idx *mockIndex, gen *mockGenerator, threshold int) *Acquirer {
	return &Acquirer{
		Scraper:  s,
		Embeddor: e,
		Index:    idx,
		Triage:   triage.New(gen, threshold),
		MaxPages: 10,
		TopK:     5,
	}
}

func TestAcquireJoinsBothBranches(t *testing.T) {
	s := &mockScraper{docs: []types.Document{
		{Text: "25g protein per serving", SourceURL: "http://a"},
		{Text: "", SourceURL: "http://b"},
	}}
	idx := &mockIndex{candidates: []types.Candidate{{ID: "1", Score: 0.8}}}
	a := newAcquirer(s, &mockEmbeddor{vector: []float64{0.1}}, idx, &mockGenerator{}, 1000)

	out, err := a.Acquire(context.Background(), "whey protein 5lb", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if len(out.Candidates) != 1 {
		t.Errorf("candidates = %d, want 1", len(out.Candidates))
	}
	if len(out.Corpus.Successes) != 1 || len(out.Corpus.Failures) != 1 {
		t.Fatalf("corpus = %d successes, %d failures, want 1/1",
			len(out.Corpus.Successes), len(out.Corpus.Failures))
	}
	if out.Corpus.Failures[0].Index != 1 {
		t.Errorf("failure index = %d, want 1", out.Corpus.Failures[0].Index)
	}
}

func TestAcquireEmbeddingFailureIsFatal(t *testing.T) {
	s := &mockScraper{docs: []types.Document{{Text: "content", SourceURL: "http://a"}}}
	e := &mockEmbeddor{err: &collab.EmbeddingError{Err: fmt.Errorf("provider down")}}
	a := newAcquirer(s, e, &mockIndex{}, &mockGenerator{}, 1000)

	if _, err := a.Acquire(context.Background(), "whey", &bytes.Buffer{}); err == nil {
		t.Fatal("expected fatal error on embedding failure")
	}
}

func TestAcquireScrapeNoResultsNotFatal(t *testing.T) {
	s := &mockScraper{err: collab.ErrNoResults}
	idx := &mockIndex{candidates: []types.Candidate{{ID: "1", Score: 0.8}}}
	a := newAcquirer(s, &mockEmbeddor{vector: []float64{0.1}}, idx, &mockGenerator{}, 1000)

	var buf bytes.Buffer
	out, err := a.Acquire(context.Background(), "whey", &buf)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !out.Corpus.AllFailed() {
		t.Error("corpus should be all-failed when search finds nothing")
	}
	if len(out.Corpus.Failures) != 1 || out.Corpus.Failures[0].Index != partial.WholeBatch {
		t.Errorf("failures = %+v, want one whole-batch entry", out.Corpus.Failures)
	}
	if len(out.Candidates) != 1 {
		t.Errorf("vector branch result lost: %v", out.Candidates)
	}
	if !strings.Contains(buf.String(), "found nothing") {
		t.Errorf("missing warning, got %q", buf.String())
	}
}

func TestAcquireTriageFallbackRecordsFailure(t *testing.T) {
	big := strings.Repeat("x", 200)
	s := &mockScraper{docs: []types.Document{{Text: big, SourceURL: "http://a"}}}
	idx := &mockIndex{}
	gen := &mockGenerator{err: fmt.Errorf("condense provider down")}
	a := newAcquirer(s, &mockEmbeddor{vector: []float64{0.1}}, idx, gen, 100)

	out, err := a.Acquire(context.Background(), "whey", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Page is kept with original text AND a failure entry is recorded.
	if len(out.Corpus.Successes) != 1 {
		t.Fatalf("successes = %d, want 1", len(out.Corpus.Successes))
	}
	if out.Corpus.Successes[0].Text != big {
		t.Error("original text was not preserved on transform failure")
	}
	if len(out.Corpus.Failures) != 1 || out.Corpus.Failures[0].Index != 0 {
		t.Fatalf("failures = %+v, want one entry for index 0", out.Corpus.Failures)
	}
	if !strings.Contains(out.Corpus.Failures[0].Reason, "condense failed") {
		t.Errorf("failure reason = %q", out.Corpus.Failures[0].Reason)
	}
	if out.Corpus.AllFailed() {
		t.Error("corpus with a kept page must not be all-failed")
	}
}

func TestAcquireTriageCondensesLargePage(t *testing.T) {
	big := strings.Repeat("x", 200)
	s := &mockScraper{docs: []types.Document{{Text: big, SourceURL: "http://a"}}}
	gen := &mockGenerator{reply: "condensed facts"}
	a := newAcquirer(s, &mockEmbeddor{vector: []float64{0.1}}, &mockIndex{}, gen, 100)

	out, err := a.Acquire(context.Background(), "whey", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if out.Corpus.Successes[0].Text != "condensed facts" {
		t.Errorf("text = %q", out.Corpus.Successes[0].Text)
	}
	if !out.Corpus.AllSuccess() {
		t.Errorf("failures = %+v", out.Corpus.Failures)
	}
}
