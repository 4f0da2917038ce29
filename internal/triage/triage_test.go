// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package triage

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// fakeGenerator returns a fixed reply or error and counts invocations.
type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Invoke(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeGenerator) InvokeStructured(_ context.Context, _, _ string, _ any) error {
	return fmt.Errorf("not used")
}

func TestUnderThresholdIsIdentity(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be called"}
	tr := New(gen, 100)

	in := strings.Repeat("a", 100)
	out, err := tr.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out != in {
		t.Error("content at threshold was modified")
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for small content", gen.calls)
	}
}

func TestOverThresholdCondenses(t *testing.T) {
	gen := &fakeGenerator{reply: "condensed"}
	tr := New(gen, 100)

	out, err := tr.Process(context.Background(), strings.Repeat("a", 101))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out != "condensed" {
		t.Errorf("out = %q", out)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}

func TestTransformFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("provider down")}
	tr := New(gen, 100)

	in := strings.Repeat("b", 200)
	out, err := tr.Process(context.Background(), in)
	if err == nil {
		t.Fatal("expected transform error to be reported")
	}
	if out != in {
		t.Error("fallback did not preserve original content")
	}
}

func TestEmptyCondenseFallsBack(t *testing.T) {
	gen := &fakeGenerator{reply: ""}
	tr := New(gen, 100)

	in := strings.Repeat("c", 200)
	out, err := tr.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out != in {
		t.Error("empty condense result should fall back to original")
	}
}

func TestDefaultThreshold(t *testing.T) {
	tr := New(&fakeGenerator{}, 0)
	if tr.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", tr.Threshold, DefaultThreshold)
	}
}
