// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package partial aggregates the outcomes of N independent sub-operations
// where some may fail without failing the whole batch.
package partial

// WholeBatch is the Index of a failure that sank the entire batch
// before any per-item work began.
const WholeBatch = -1

// Failure records one failed sub-operation by input index.
type Failure struct {
	// Index is the position of the failed item in the input batch, or
	// WholeBatch when the failure preceded the batch itself.
	Index int `json:"index" yaml:"index"`

	// Reason is the failure message.
	Reason string `json:"reason" yaml:"reason"`
}

// Result holds the successes and failures of a batch. A success is never
// discarded because another item failed.
type Result[T any] struct {
	Successes []T       `json:"successes" yaml:"successes"`
	Failures  []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Total returns the number of items examined.
func (r Result[T]) Total() int {
	return len(r.Successes) + len(r.Failures)
}

// AllSuccess reports whether no item failed.
func (r Result[T]) AllSuccess() bool {
	return len(r.Failures) == 0
}

// AllFailed reports whether every examined item failed. An empty batch is
// not all-failed.
func (r Result[T]) AllFailed() bool {
	return len(r.Successes) == 0 && len(r.Failures) > 0
}

// AddSuccess appends a successful item.
func (r *Result[T]) AddSuccess(v T) {
	r.Successes = append(r.Successes, v)
}

// AddFailure records a failed item by input index.
func (r *Result[T]) AddFailure(index int, reason string) {
	r.Failures = append(r.Failures, Failure{Index: index, Reason: reason})
}

// Collect applies fn to each item independently. An error from fn becomes a
// Failure entry for that index; remaining items are still processed.
func Collect[In, Out any](items []In, fn func(int, In) (Out, error)) Result[Out] {
	var r Result[Out]
	for i, item := range items {
		out, err := fn(i, item)
		if err != nil {
			r.AddFailure(i, err.Error())
			continue
		}
		r.AddSuccess(out)
	}
	return r
}
