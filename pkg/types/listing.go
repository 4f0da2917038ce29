// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the listing-engine pipeline.
package types

import (
	"fmt"
	"time"
)

// OptionValue is one named product option on a variant (e.g. Size=5lb).
type OptionValue struct {
	// Name is the option name (e.g. "Size", "Flavour").
	Name string `json:"name" yaml:"name"`

	// Value is the option value for this variant (e.g. "5lb", "Chocolate").
	Value string `json:"value" yaml:"value"`
}

// Variant is one purchasable variation of a listing. Price, SKU, barcode,
// and weight are operator-authoritative: they pass through the pipeline
// verbatim and are never derived from scraped or generated content.
type Variant struct {
	// Option1 is the lead option shared by every variant of a listing.
	Option1 OptionValue `json:"option1" yaml:"option1"`

	// Option2 is the second option, present only on multi-option listings.
	Option2 *OptionValue `json:"option2,omitempty" yaml:"option2,omitempty"`

	// Option3 is the third option, present only when Option2 is present.
	Option3 *OptionValue `json:"option3,omitempty" yaml:"option3,omitempty"`

	// SKU is the operator-supplied stock keeping unit.
	SKU int `json:"sku" yaml:"sku"`

	// Barcode is the operator-supplied barcode (UPC/EAN), kept as a string
	// to preserve leading zeros.
	Barcode string `json:"barcode" yaml:"barcode"`

	// Price is the decimal price as a string (e.g. "59.95"), as commerce
	// APIs expect it.
	Price string `json:"price" yaml:"price"`

	// CompareAt is the optional pre-discount price.
	CompareAt string `json:"compare_at,omitempty" yaml:"compare_at,omitempty"`

	// Weight is the shipping weight in the shop's weight unit.
	Weight float64 `json:"weight" yaml:"weight"`

	// Inventory maps location ID to the requested on-hand quantity.
	// Nil means no inventory reconciliation is requested for this variant.
	Inventory map[string]int `json:"inventory,omitempty" yaml:"inventory,omitempty"`
}

// Listing is the validated product draft produced by the synthesis stage.
type Listing struct {
	// Title is the generated product title.
	Title string `json:"title" yaml:"title"`

	// Description is the generated product description.
	Description string `json:"description" yaml:"description"`

	// ProductType is the category label, formatted to match catalog conventions.
	ProductType string `json:"product_type" yaml:"product_type"`

	// Vendor is the brand or manufacturer name.
	Vendor string `json:"vendor" yaml:"vendor"`

	// Tags are catalog tags, formatted to match catalog conventions.
	Tags []string `json:"tags" yaml:"tags"`

	// LeadOption is the name of the first option across all variants.
	LeadOption string `json:"lead_option" yaml:"lead_option"`

	// BabyOptions lists the names of the second and third options, in order.
	// Nil iff no variant carries a second option.
	BabyOptions []string `json:"baby_options" yaml:"baby_options"`

	// Variants are the purchasable variations, built verbatim from
	// operator input.
	Variants []Variant `json:"variants" yaml:"variants"`
}

// Validate checks the option-structure invariants that must hold before
// publish: BabyOptions is nil exactly when no variant carries Option2; when
// present, its first element is the shared Option2 name (and its second the
// shared Option3 name); and the variant count covers the baby options.
func (l *Listing) Validate() error {
	if len(l.Variants) == 0 {
		return fmt.Errorf("listing has no variants")
	}

	var opt2Name, opt3Name string
	for i, v := range l.Variants {
		if v.Option1.Name == "" {
			return fmt.Errorf("variant %d: missing lead option name", i)
		}
		if v.Option1.Name != l.LeadOption {
			return fmt.Errorf("variant %d: lead option %q does not match listing lead option %q",
				i, v.Option1.Name, l.LeadOption)
		}
		if v.Option2 != nil {
			if opt2Name != "" && v.Option2.Name != opt2Name {
				return fmt.Errorf("variant %d: second option name %q conflicts with %q",
					i, v.Option2.Name, opt2Name)
			}
			opt2Name = v.Option2.Name
		}
		if v.Option3 != nil {
			if v.Option2 == nil {
				return fmt.Errorf("variant %d: third option without second option", i)
			}
			if opt3Name != "" && v.Option3.Name != opt3Name {
				return fmt.Errorf("variant %d: third option name %q conflicts with %q",
					i, v.Option3.Name, opt3Name)
			}
			opt3Name = v.Option3.Name
		}
	}

	if opt2Name == "" {
		if l.BabyOptions != nil {
			return fmt.Errorf("baby options %v set but no variant carries a second option", l.BabyOptions)
		}
		return nil
	}

	if len(l.BabyOptions) == 0 {
		return fmt.Errorf("variants carry second option %q but baby options are empty", opt2Name)
	}
	if l.BabyOptions[0] != opt2Name {
		return fmt.Errorf("first baby option %q does not match second option name %q",
			l.BabyOptions[0], opt2Name)
	}
	if opt3Name != "" {
		if len(l.BabyOptions) < 2 {
			return fmt.Errorf("variants carry third option %q but baby options list only %v",
				opt3Name, l.BabyOptions)
		}
		if l.BabyOptions[1] != opt3Name {
			return fmt.Errorf("second baby option %q does not match third option name %q",
				l.BabyOptions[1], opt3Name)
		}
	} else if len(l.BabyOptions) > 1 {
		return fmt.Errorf("baby options %v list a third option but no variant carries one", l.BabyOptions)
	}

	if len(l.Variants) < len(l.BabyOptions) {
		return fmt.Errorf("%d variants cannot cover %d baby options",
			len(l.Variants), len(l.BabyOptions))
	}

	return nil
}

// VariantInput holds the operator-authoritative fields for one variant as
// submitted with the job. The synthesizer copies these verbatim.
type VariantInput struct {
	// Options lists one to three option name/value pairs, lead option first.
	Options []OptionValue `json:"options" yaml:"options"`

	// SKU is the stock keeping unit.
	SKU int `json:"sku" yaml:"sku"`

	// Barcode is the variant barcode.
	Barcode string `json:"barcode" yaml:"barcode"`

	// Price is the decimal price as a string.
	Price string `json:"price" yaml:"price"`

	// CompareAt is the optional pre-discount price.
	CompareAt string `json:"compare_at,omitempty" yaml:"compare_at,omitempty"`

	// Weight is the shipping weight.
	Weight float64 `json:"weight" yaml:"weight"`

	// Inventory maps location ID to requested quantity.
	Inventory map[string]int `json:"inventory,omitempty" yaml:"inventory,omitempty"`
}

// InventoryOutcome records the result of one per-location inventory call.
type InventoryOutcome struct {
	// Handle is the external inventory-item handle for the variant.
	Handle string `json:"handle" yaml:"handle"`

	// Location is the location ID the quantity was set at.
	Location string `json:"location" yaml:"location"`

	// Error holds the failure message. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// PublishResult is the outcome of publishing a listing to the commerce system.
type PublishResult struct {
	// ExternalID is the commerce system's ID for the created product.
	ExternalID string `json:"external_id" yaml:"external_id"`

	// ExternalURL is the admin or storefront URL for the created product.
	ExternalURL string `json:"external_url" yaml:"external_url"`

	// CreatedAt is when the draft was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// InventoryOutcomes records every per-location inventory call attempted.
	InventoryOutcomes []InventoryOutcome `json:"inventory_outcomes,omitempty" yaml:"inventory_outcomes,omitempty"`

	// InventoryFilled is true iff every requested inventory call succeeded.
	InventoryFilled bool `json:"inventory_filled" yaml:"inventory_filled"`
}
