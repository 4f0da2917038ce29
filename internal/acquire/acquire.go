// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire gathers the raw material for one listing: scraped web
// content and catalog similarity matches, fetched concurrently.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/internal/partial"
	"github.com/pdiddy/listing-engine/internal/triage"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// Output holds the joined result of both acquisition branches.
type Output struct {
	// Corpus is the scraped-page side, with per-page failures recorded.
	Corpus partial.Result[types.Document]

	// Candidates are the top-k catalog similarity matches.
	Candidates []types.Candidate
}

// Acquirer runs the two acquisition branches.
type Acquirer struct {
	Scraper  collab.Scraper
	Embeddor collab.Embeddor
	Index    collab.VectorIndex
	Triage   *triage.Triage
	MaxPages int
	TopK     int
}

// Acquire launches the search-and-scrape branch and the embed-and-search
// branch concurrently and joins both. The branches write disjoint fields,
// so no locking is needed beyond the join.
//
// An embedding or index failure is fatal: there is nothing to synthesize
// without comparison data. A scrape-side failure, including the whole
// search finding nothing, is recorded in the corpus but is not fatal here;
// the synthesis stage decides whether usable content is strictly required.
func (a *Acquirer) Acquire(ctx context.Context, searchTerm string, w io.Writer) (Output, error) {
	var (
		wg         sync.WaitGroup
		corpus     partial.Result[types.Document]
		candidates []types.Candidate
		matchErr   error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		corpus = a.scrape(ctx, searchTerm, w)
	}()

	go func() {
		defer wg.Done()
		candidates, matchErr = a.match(ctx, searchTerm)
	}()

	wg.Wait()

	if matchErr != nil {
		return Output{}, fmt.Errorf("fetching candidate matches: %w", matchErr)
	}

	if corpus.AllFailed() {
		fmt.Fprintf(w, "warning: every scraped page failed for %q\n", searchTerm)
	}

	return Output{Corpus: corpus, Candidates: candidates}, nil
}

// scrape runs the search-and-scrape branch, passing each page through
// triage. A page with no content becomes a failure entry; a triage
// transform failure keeps the page with its original text and records an
// additional failure entry for that index.
func (a *Acquirer) scrape(ctx context.Context, searchTerm string, w io.Writer) partial.Result[types.Document] {
	var corpus partial.Result[types.Document]

	docs, err := a.Scraper.SearchAndScrape(ctx, searchTerm, a.MaxPages)
	if err != nil {
		if errors.Is(err, collab.ErrNoResults) {
			fmt.Fprintf(w, "warning: web search found nothing for %q\n", searchTerm)
		} else {
			fmt.Fprintf(w, "warning: search-and-scrape failed: %v\n", err)
		}
		corpus.AddFailure(partial.WholeBatch, err.Error())
		return corpus
	}

	type triageFailure struct {
		index int
		err   error
	}
	var triageFailures []triageFailure

	corpus = partial.Collect(docs, func(i int, doc types.Document) (types.Document, error) {
		if strings.TrimSpace(doc.Text) == "" {
			return doc, fmt.Errorf("page %s: no content", doc.SourceURL)
		}
		text, terr := a.Triage.Process(ctx, doc.Text)
		doc.Text = text
		if terr != nil {
			triageFailures = append(triageFailures, triageFailure{index: i, err: terr})
		}
		return doc, nil
	})

	for _, tf := range triageFailures {
		fmt.Fprintf(w, "warning: condense failed for page %d, keeping original: %v\n", tf.index, tf.err)
		corpus.AddFailure(tf.index, fmt.Sprintf("condense failed: %v", tf.err))
	}

	return corpus
}

// match runs the embed-and-similarity-search branch.
func (a *Acquirer) match(ctx context.Context, searchTerm string) ([]types.Candidate, error) {
	vector, err := a.Embeddor.Embed(ctx, searchTerm)
	if err != nil {
		return nil, err
	}

	k := a.TopK
	if k <= 0 {
		k = 5
	}
	return a.Index.Search(ctx, vector, k)
}
