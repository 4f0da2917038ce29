// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/listing-engine/pkg/types"
)

func newScraperServer(t *testing.T) (*WebScraper, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			w.Header().Set("Content-Type", "application/json")
			base := "http://" + r.Host
			fmt.Fprintf(w, `{"results": [
				{"url": "%s/page/good", "title": "Whey Review", "content": "a review"},
				{"url": "%s/page/missing", "title": "Gone Page", "content": ""}
			]}`, base, base)

		case r.URL.Path == "/page/good":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><style>p{color:red}</style></head>
				<body><h1>Whey &amp; Casein</h1><p>25g protein per serving.</p>
				<script>track()</script></body></html>`)

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	orig := searchAPIBase
	searchAPIBase = ts.URL + "/search"
	t.Cleanup(func() { searchAPIBase = orig })

	return &WebScraper{Config: types.ScrapeConfig{}, Client: ts.Client()}, ts
}

func TestSearchAndScrape(t *testing.T) {
	s, _ := newScraperServer(t)

	docs, err := s.SearchAndScrape(context.Background(), "whey protein", 10)
	if err != nil {
		t.Fatalf("SearchAndScrape: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}

	if !strings.Contains(docs[0].Text, "Whey & Casein") || !strings.Contains(docs[0].Text, "25g protein") {
		t.Errorf("stripped text = %q", docs[0].Text)
	}
	if strings.Contains(docs[0].Text, "track()") || strings.Contains(docs[0].Text, "color:red") {
		t.Errorf("script/style leaked into text: %q", docs[0].Text)
	}

	// The unfetchable page keeps its search metadata with empty text.
	if docs[1].Text != "" {
		t.Errorf("missing page text = %q, want empty", docs[1].Text)
	}
	if docs[1].Title != "Gone Page" {
		t.Errorf("missing page title = %q", docs[1].Title)
	}
}

func TestSearchNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer ts.Close()

	orig := searchAPIBase
	searchAPIBase = ts.URL
	defer func() { searchAPIBase = orig }()

	s := &WebScraper{Client: ts.Client()}
	_, err := s.SearchAndScrape(context.Background(), "nonexistent product xyz", 10)
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestStripHTML(t *testing.T) {
	in := `<div>one  <b>two</b>
	three</div>&nbsp;&quot;four&quot;`
	want := `one two three "four"`
	if got := StripHTML(in); got != want {
		t.Errorf("StripHTML = %q, want %q", got, want)
	}
}
