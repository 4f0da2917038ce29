// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/listing-engine/internal/httputil"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// embeddingsAPIBase is the embeddings endpoint. Declared as a var so tests
// can substitute an httptest server.
var embeddingsAPIBase = "https://api.openai.com/v1/embeddings"

// OpenAIEmbeddor calls an OpenAI-compatible embeddings API.
type OpenAIEmbeddor struct {
	Config types.HTTPConfig
	Model  string
	APIKey string
	Client *http.Client
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text.
func (e *OpenAIEmbeddor) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, &EmbeddingError{Err: fmt.Errorf("empty input")}
	}

	body, err := json.Marshal(embeddingsRequest{Model: e.Model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, embeddingsAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)
	if e.Config.UserAgent != "" {
		req.Header.Set("User-Agent", e.Config.UserAgent)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("embeddings API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &EmbeddingError{Err: fmt.Errorf("embeddings API returned %d: %s", resp.StatusCode, string(respBody))}
	}

	var er embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing embeddings response: %w", err)
	}

	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("embeddings API returned no vector")}
	}
	return er.Data[0].Embedding, nil
}
