// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus is the terminal-once-set status of a pipeline run.
type JobStatus string

const (
	StatusPending        JobStatus = "pending"
	StatusShortCircuited JobStatus = "short_circuited"
	StatusFailed         JobStatus = "failed"
	StatusCompleted      JobStatus = "completed"
)

// Terminal reports whether the status ends the job.
func (s JobStatus) Terminal() bool {
	return s == StatusShortCircuited || s == StatusFailed || s == StatusCompleted
}

// ListingRequest is the submission payload for one listing job.
type ListingRequest struct {
	// Query is the operator's free-form product request.
	Query string `json:"query" yaml:"query"`

	// Variants are the operator-authoritative variant inputs.
	Variants []VariantInput `json:"variants" yaml:"variants"`
}

// JobRecord is the flat job-status record served by the polling API.
// The endpoint reports either URL or Error once completed, never both.
type JobRecord struct {
	// RequestID is the correlation identifier assigned at submission.
	RequestID string `json:"request_id" yaml:"request_id"`

	// Status is the job status; terminal once set to a terminal value.
	Status JobStatus `json:"status" yaml:"status"`

	// Completed is true once the job reached a terminal status.
	Completed bool `json:"completed" yaml:"completed"`

	// TimeCompleted is when the job reached a terminal status.
	TimeCompleted *time.Time `json:"time_completed,omitempty" yaml:"time_completed,omitempty"`

	// URL is the external product URL on success, or empty.
	URL string `json:"url_of_job,omitempty" yaml:"url_of_job,omitempty"`

	// Error is the failure message on failure, or empty.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
