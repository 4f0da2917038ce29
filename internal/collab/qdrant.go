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

// qdrantAPIBase is the Qdrant REST endpoint. Declared as a var so tests can
// substitute an httptest server.
var qdrantAPIBase = "http://localhost:6333"

// QdrantIndex queries a Qdrant collection over its REST API.
type QdrantIndex struct {
	Config types.IndexConfig
	APIKey string
	Client *http.Client
}

type qdrantSearchRequest struct {
	Vector      []float64 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      json.Number    `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
	Status string `json:"status"`
}

type qdrantUpsertRequest struct {
	Points []qdrantPoint `json:"points"`
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float64      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

type qdrantUpsertResponse struct {
	Status string `json:"status"`
	Result struct {
		Status string `json:"status"`
	} `json:"result"`
}

// Search returns the top-k nearest candidates in the configured collection.
func (q *QdrantIndex) Search(ctx context.Context, vector []float64, k int) ([]types.Candidate, error) {
	url := fmt.Sprintf("%s/collections/%s/points/search", qdrantAPIBase, q.Config.Collection)

	body, err := json.Marshal(qdrantSearchRequest{Vector: vector, Limit: k, WithPayload: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	var sr qdrantSearchResponse
	if err := q.post(ctx, url, body, &sr); err != nil {
		return nil, err
	}

	candidates := make([]types.Candidate, 0, len(sr.Result))
	for _, p := range sr.Result {
		candidates = append(candidates, types.Candidate{
			ID:      p.ID.String(),
			Payload: p.Payload,
			Score:   p.Score,
		})
	}
	return candidates, nil
}

// Upsert inserts or replaces points in collection and returns the count sent.
func (q *QdrantIndex) Upsert(ctx context.Context, collection string, points []Point) (int, error) {
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", qdrantAPIBase, collection)

	qPoints := make([]qdrantPoint, 0, len(points))
	for _, p := range points {
		qPoints = append(qPoints, qdrantPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}

	body, err := json.Marshal(qdrantUpsertRequest{Points: qPoints})
	if err != nil {
		return 0, fmt.Errorf("marshaling upsert request: %w", err)
	}

	var ur qdrantUpsertResponse
	if err := q.putJSON(ctx, url, body, &ur); err != nil {
		return 0, err
	}
	return len(points), nil
}

func (q *QdrantIndex) post(ctx context.Context, url string, body []byte, out any) error {
	return q.doJSON(ctx, http.MethodPost, url, body, out)
}

func (q *QdrantIndex) putJSON(ctx context.Context, url string, body []byte, out any) error {
	return q.doJSON(ctx, http.MethodPut, url, body, out)
}

func (q *QdrantIndex) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.APIKey != "" {
		req.Header.Set("api-key", q.APIKey)
	}

	client := q.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing qdrant response: %w", err)
	}
	return nil
}
