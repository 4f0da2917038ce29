// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth merges the acquired corpus, the accepted candidate matches,
// and the operator's authoritative variant fields into one validated listing.
package synth

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/listing-engine/internal/collab"
	"github.com/pdiddy/listing-engine/internal/partial"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// maxPromptDocChars caps how much of each corpus document enters the prompt.
const maxPromptDocChars = 6000

// Synthesizer builds the validated listing.
type Synthesizer struct {
	Generator collab.TextGenerator
	OutputDir string
}

// listingDraft is the structured generation output. It carries text fields
// only: variants never come from the generator.
type listingDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Vendor      string   `json:"vendor"`
	ProductType string   `json:"product_type"`
	Tags        []string `json:"tags"`
}

// Synthesize produces the listing for one pipeline run. The corpus and the
// candidates feed the generated text; candidates contribute formatting
// conventions for product_type and tags, not content. Variant fields come
// verbatim from inputs. A validation failure is fatal: it indicates
// malformed extraction or a synthesis defect, not a transient condition.
func (s *Synthesizer) Synthesize(ctx context.Context, searchTerm string, corpus partial.Result[types.Document], candidates []types.Candidate, inputs []types.VariantInput, w io.Writer) (*types.Listing, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no variant inputs supplied")
	}

	usable := usableDocuments(corpus.Successes)
	if len(usable) == 0 && len(candidates) == 0 {
		return nil, fmt.Errorf("no usable content: every scraped page failed and no candidate matches exist")
	}

	draft, err := s.generate(ctx, searchTerm, usable, candidates)
	if err != nil {
		return nil, fmt.Errorf("generating listing text: %w", err)
	}

	variants, err := buildVariants(inputs)
	if err != nil {
		return nil, fmt.Errorf("building variants: %w", err)
	}

	listing := &types.Listing{
		Title:       draft.Title,
		Description: draft.Description,
		Vendor:      draft.Vendor,
		ProductType: draft.ProductType,
		Tags:        draft.Tags,
		LeadOption:  inputs[0].Options[0].Name,
		BabyOptions: babyOptions(variants),
		Variants:    variants,
	}

	if listing.Title == "" {
		return nil, fmt.Errorf("generator produced no title")
	}
	if err := listing.Validate(); err != nil {
		return nil, fmt.Errorf("validating listing: %w", err)
	}
	if err := verifyOperatorFields(listing, inputs); err != nil {
		return nil, fmt.Errorf("verifying operator fields: %w", err)
	}

	if s.OutputDir != "" {
		if err := s.writeSnapshot(listing); err != nil {
			fmt.Fprintf(w, "warning: listing snapshot write failed: %v\n", err)
		}
	}

	return listing, nil
}

const synthSystem = `You write product listings for an e-commerce catalog. Using only
the provided source material, produce the listing text fields. Match the
product_type and tag formatting conventions shown in the catalog examples,
but never copy their product names or content. Respond with a JSON object:
{"title": "...", "description": "<p>...</p>", "vendor": "...", "product_type": "...", "tags": ["..."]}
and nothing else. Never invent prices, SKUs, or barcodes.`

func (s *Synthesizer) generate(ctx context.Context, searchTerm string, docs []types.Document, candidates []types.Candidate) (listingDraft, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n\n", searchTerm)

	if len(candidates) > 0 {
		b.WriteString("Catalog formatting examples (conventions only):\n")
		for _, c := range candidates {
			fmt.Fprintf(&b, "- product_type: %v, tags: %v\n", c.Payload["product_type"], c.Payload["tags"])
		}
		b.WriteString("\n")
	}

	for i, d := range docs {
		text := d.Text
		if len(text) > maxPromptDocChars {
			text = text[:maxPromptDocChars]
		}
		fmt.Fprintf(&b, "Source %d (%s):\n%s\n\n", i+1, d.SourceURL, text)
	}

	var draft listingDraft
	if err := s.Generator.InvokeStructured(ctx, synthSystem, b.String(), &draft); err != nil {
		return listingDraft{}, err
	}
	return draft, nil
}

// usableDocuments filters out documents whose text is empty after triage.
func usableDocuments(docs []types.Document) []types.Document {
	out := docs[:0:0]
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			out = append(out, d)
		}
	}
	return out
}

// buildVariants maps operator inputs to variants verbatim.
func buildVariants(inputs []types.VariantInput) ([]types.Variant, error) {
	variants := make([]types.Variant, 0, len(inputs))
	for i, in := range inputs {
		if len(in.Options) == 0 || len(in.Options) > 3 {
			return nil, fmt.Errorf("variant %d: need one to three options, got %d", i, len(in.Options))
		}
		v := types.Variant{
			Option1:   in.Options[0],
			SKU:       in.SKU,
			Barcode:   in.Barcode,
			Price:     in.Price,
			CompareAt: in.CompareAt,
			Weight:    in.Weight,
			Inventory: in.Inventory,
		}
		if len(in.Options) > 1 {
			opt := in.Options[1]
			v.Option2 = &opt
		}
		if len(in.Options) > 2 {
			opt := in.Options[2]
			v.Option3 = &opt
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// babyOptions derives the second and third option names across variants.
// Nil when no variant carries a second option.
func babyOptions(variants []types.Variant) []string {
	var names []string
	for _, v := range variants {
		if v.Option2 != nil && len(names) == 0 {
			names = append(names, v.Option2.Name)
		}
		if v.Option3 != nil && len(names) == 1 {
			names = append(names, v.Option3.Name)
		}
	}
	return names
}

// verifyOperatorFields rejects any divergence between the listing's
// authoritative variant fields and the operator's inputs.
func verifyOperatorFields(listing *types.Listing, inputs []types.VariantInput) error {
	if len(listing.Variants) != len(inputs) {
		return fmt.Errorf("%d variants for %d inputs", len(listing.Variants), len(inputs))
	}
	for i, v := range listing.Variants {
		in := inputs[i]
		if v.SKU != in.SKU {
			return fmt.Errorf("variant %d: SKU %d diverged from operator value %d", i, v.SKU, in.SKU)
		}
		if v.Barcode != in.Barcode {
			return fmt.Errorf("variant %d: barcode %q diverged from operator value %q", i, v.Barcode, in.Barcode)
		}
		if v.Price != in.Price {
			return fmt.Errorf("variant %d: price %q diverged from operator value %q", i, v.Price, in.Price)
		}
	}
	return nil
}

func (s *Synthesizer) writeSnapshot(listing *types.Listing) error {
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := yaml.Marshal(listing)
	if err != nil {
		return fmt.Errorf("marshaling listing: %w", err)
	}
	name := fmt.Sprintf("%s-%d.yaml", slugify(listing.Title), time.Now().Unix())
	return os.WriteFile(filepath.Join(s.OutputDir, name), data, 0o644)
}

// slugify lowercases the title and replaces runs of non-alphanumerics with hyphens.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
