package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that call external APIs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "listing-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ScrapeConfig holds settings for the search-and-scrape branch of acquisition.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// SearchURL is the metasearch endpoint (SearXNG JSON API). Empty selects
	// the built-in default.
	SearchURL string `json:"search_url,omitempty" yaml:"search_url,omitempty"`

	// MaxPages caps the number of result pages fetched per query (max 10).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// TriageThreshold is the character count above which page content is
	// condensed before use (default 15000).
	TriageThreshold int `json:"triage_threshold" yaml:"triage_threshold"`
}

// IndexConfig holds settings for the catalog vector index.
type IndexConfig struct {
	HTTPConfig `yaml:",inline"`

	// Collection is the index collection holding catalog points.
	Collection string `json:"collection" yaml:"collection"`

	// TopK is the number of candidate matches to fetch (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// SimilarityCutoff is the score at or above which the idempotency guard
	// treats the best match as an existing product (default 0.92).
	SimilarityCutoff float64 `json:"similarity_cutoff" yaml:"similarity_cutoff"`
}

// RelevanceConfig holds settings for the relevance gate.
type RelevanceConfig struct {
	// AcceptThreshold is the inclusive score at which a candidate set is
	// accepted without a corrective requery (default 50).
	AcceptThreshold int `json:"accept_threshold" yaml:"accept_threshold"`
}

// CommerceConfig holds settings for the commerce platform client.
type CommerceConfig struct {
	HTTPConfig `yaml:",inline"`

	// ShopDomain is the shop's admin API domain (e.g. "example.myshopify.com").
	ShopDomain string `json:"shop_domain" yaml:"shop_domain"`

	// AccessToken authenticates admin API calls.
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`
}

// SynthesisConfig holds settings for the entity synthesis stage.
type SynthesisConfig struct {
	AIConfig `yaml:",inline"`

	// OutputDir is the directory for validated listing snapshots
	// (e.g. "output/listings/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ServerConfig holds settings for the job front door.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// QueueSize is the submission queue capacity (default 64).
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// DBPath is the path to the job-store SQLite database
	// (default "data/jobs.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape"`
	Embedding HTTPConfig      `json:"embedding" yaml:"embedding"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Relevance RelevanceConfig `json:"relevance" yaml:"relevance"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	Commerce  CommerceConfig  `json:"commerce" yaml:"commerce"`
	Server    ServerConfig    `json:"server" yaml:"server"`
}
