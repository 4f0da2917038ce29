// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/listing-engine/internal/httputil"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// searchAPIBase is the metasearch endpoint (SearXNG JSON API). Declared as a
// var so tests can substitute an httptest server.
var searchAPIBase = "http://localhost:8888/search"

// maxScrapeBytes caps how much of a page is read before stripping.
const maxScrapeBytes = 2 << 20

// WebScraper searches the web and fetches each result page, reducing the
// HTML to plain text. A page that cannot be fetched still yields a Document
// with its search metadata and empty text, so the caller can record it as a
// per-item failure without losing the other pages.
type WebScraper struct {
	Config types.ScrapeConfig
	Client *http.Client
}

type searchResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// SearchAndScrape searches for query and scrapes up to limit result pages.
// Returns ErrNoResults when the search itself finds nothing.
func (s *WebScraper) SearchAndScrape(ctx context.Context, query string, limit int) ([]types.Document, error) {
	if limit <= 0 || limit > 10 {
		limit = 10
	}

	results, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results.Results) == 0 {
		return nil, ErrNoResults
	}

	if len(results.Results) > limit {
		results.Results = results.Results[:limit]
	}

	docs := make([]types.Document, 0, len(results.Results))
	for _, r := range results.Results {
		doc := types.Document{
			Title:       r.Title,
			Description: r.Content,
			SourceURL:   r.URL,
		}
		text, fetchErr := s.fetchPage(ctx, r.URL)
		if fetchErr == nil {
			doc.Text = text
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *WebScraper) search(ctx context.Context, query string) (*searchResponse, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
	}
	base := s.Config.SearchURL
	if base == "" {
		base = searchAPIBase
	}
	reqURL := base + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.Config.UserAgent != "" {
		req.Header.Set("User-Agent", s.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client(), req, 0)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return &sr, nil
}

func (s *WebScraper) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if s.Config.UserAgent != "" {
		req.Header.Set("User-Agent", s.Config.UserAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}

	return StripHTML(string(body)), nil
}

func (s *WebScraper) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

var (
	scriptPattern = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
)

// StripHTML reduces an HTML page to whitespace-normalized plain text.
func StripHTML(html string) string {
	text := scriptPattern.ReplaceAllString(html, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
