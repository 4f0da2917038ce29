// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/listing-engine/internal/acquire"
	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/internal/guard"
	"github.com/pdiddy/listing-engine/internal/pipeline"
	"github.com/pdiddy/listing-engine/internal/publish"
	"github.com/pdiddy/listing-engine/internal/relevance"
	"github.com/pdiddy/listing-engine/internal/synth"
	"github.com/pdiddy/listing-engine/internal/triage"
	"github.com/pdiddy/listing-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "listing-engine/0.1"
	defaultModel     = "claude-sonnet-4-5"
	defaultEmbModel  = "text-embedding-3-small"
)

// loadConfig assembles the pipeline configuration from the viper config
// file, environment, and loaded secrets.
func loadConfig() types.PipelineConfig {
	viper.SetDefault("http.timeout", defaultTimeout)
	viper.SetDefault("scrape.max_pages", 10)
	viper.SetDefault("scrape.triage_threshold", triage.DefaultThreshold)
	viper.SetDefault("index.collection", "catalog")
	viper.SetDefault("index.top_k", 5)
	viper.SetDefault("index.similarity_cutoff", guard.DefaultSimilarityCutoff)
	viper.SetDefault("relevance.accept_threshold", relevance.DefaultAcceptThreshold)
	viper.SetDefault("synthesis.model", defaultModel)
	viper.SetDefault("synthesis.output_dir", "output/listings")
	viper.SetDefault("embedding.model", defaultEmbModel)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.queue_size", 64)
	viper.SetDefault("server.db_path", "data/jobs.db")

	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: defaultUserAgent,
	}

	return types.PipelineConfig{
		Scrape: types.ScrapeConfig{
			HTTPConfig:      httpCfg,
			SearchURL:       viper.GetString("scrape.search_url"),
			MaxPages:        viper.GetInt("scrape.max_pages"),
			TriageThreshold: viper.GetInt("scrape.triage_threshold"),
		},
		Embedding: httpCfg,
		Index: types.IndexConfig{
			HTTPConfig:       httpCfg,
			Collection:       viper.GetString("index.collection"),
			TopK:             viper.GetInt("index.top_k"),
			SimilarityCutoff: viper.GetFloat64("index.similarity_cutoff"),
		},
		Relevance: types.RelevanceConfig{
			AcceptThreshold: viper.GetInt("relevance.accept_threshold"),
		},
		Synthesis: types.SynthesisConfig{
			AIConfig: types.AIConfig{
				Model:  viper.GetString("synthesis.model"),
				APIKey: secretDefault("anthropic-api-key", viper.GetString("synthesis.api_key")),
			},
			OutputDir: viper.GetString("synthesis.output_dir"),
		},
		Commerce: types.CommerceConfig{
			HTTPConfig:  httpCfg,
			ShopDomain:  viper.GetString("commerce.shop_domain"),
			AccessToken: secretDefault("shopify-access-token", viper.GetString("commerce.access_token")),
		},
		Server: types.ServerConfig{
			Addr:      viper.GetString("server.addr"),
			QueueSize: viper.GetInt("server.queue_size"),
			DBPath:    viper.GetString("server.db_path"),
		},
	}
}

// buildOrchestrator wires the HTTP collaborators and pipeline stages
// from cfg.
func buildOrchestrator(cfg types.PipelineConfig) *pipeline.Orchestrator {
	httpClient := &http.Client{Timeout: cfg.Scrape.Timeout}

	generator := &collab.ClaudeGenerator{Config: cfg.Synthesis.AIConfig, Client: httpClient}
	embeddor := &collab.OpenAIEmbeddor{
		Config: cfg.Embedding,
		Model:  viper.GetString("embedding.model"),
		APIKey: secretDefault("openai-api-key", viper.GetString("embedding.api_key")),
		Client: httpClient,
	}
	index := &collab.QdrantIndex{
		Config: cfg.Index,
		APIKey: secretDefault("qdrant-api-key", viper.GetString("index.api_key")),
		Client: httpClient,
	}
	scraper := &collab.WebScraper{Config: cfg.Scrape, Client: httpClient}
	commerce := &collab.ShopifyClient{Config: cfg.Commerce, Client: httpClient}

	return &pipeline.Orchestrator{
		Generator: generator,
		Guard:     guard.New(commerce, embeddor, index, cfg.Index.SimilarityCutoff),
		Acquirer: &acquire.Acquirer{
			Scraper:  scraper,
			Embeddor: embeddor,
			Index:    index,
			Triage:   triage.New(generator, cfg.Scrape.TriageThreshold),
			MaxPages: cfg.Scrape.MaxPages,
			TopK:     cfg.Index.TopK,
		},
		Gate: relevance.New(
			&relevance.LLMScorer{Generator: generator},
			embeddor, index,
			cfg.Relevance.AcceptThreshold, cfg.Index.TopK,
		),
		Synthesizer: &synth.Synthesizer{Generator: generator, OutputDir: cfg.Synthesis.OutputDir},
		Publisher:   &publish.Publisher{Commerce: commerce},
	}
}
