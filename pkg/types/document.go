// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document is one scraped page of product-related content.
type Document struct {
	// Text is the page body reduced to plain text, possibly condensed by triage.
	Text string `json:"text" yaml:"text"`

	// Title is the page title, when the scraper reported one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Description is the page meta description, when present.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// SourceURL is the page URL.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}

// Candidate is one similarity match from the catalog vector index.
type Candidate struct {
	// ID is the point ID in the index.
	ID string `json:"id" yaml:"id"`

	// Payload carries the stored catalog fields (name, product_type, tags, ...).
	Payload map[string]any `json:"payload" yaml:"payload"`

	// Score is the similarity score reported by the index.
	Score float64 `json:"score" yaml:"score"`
}

// Name returns the candidate's catalog name from its payload, or "".
func (c Candidate) Name() string {
	return c.payloadString("name")
}

// URL returns the candidate's admin URL from its payload, or "".
func (c Candidate) URL() string {
	return c.payloadString("url")
}

func (c Candidate) payloadString(key string) string {
	if s, ok := c.Payload[key].(string); ok {
		return s
	}
	return ""
}

// RelevanceAction is the decision taken by the relevance gate.
type RelevanceAction string

const (
	ActionAccept  RelevanceAction = "accept"
	ActionRequery RelevanceAction = "requery"
)

// RelevanceAssessment is the outcome of scoring a candidate set against a
// target description. Action is "requery" only when Score is below the
// accept threshold; the gate, not the assessment, enforces that at most one
// requery happens per pipeline run.
type RelevanceAssessment struct {
	// Score is 100 * Matches / Total, in 0..100.
	Score int `json:"score" yaml:"score"`

	// Matches counts candidates judged category-relevant to the target.
	Matches int `json:"matches" yaml:"matches"`

	// Total counts candidates assessed.
	Total int `json:"total" yaml:"total"`

	// Action is the gate decision: accept or requery.
	Action RelevanceAction `json:"action" yaml:"action"`

	// Reasoning is the scorer's explanation, kept for the job record.
	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// ResultSet is the candidate set in force after the decision.
	ResultSet []Candidate `json:"result_set" yaml:"result_set"`
}
