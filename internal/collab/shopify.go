// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/listing-engine/internal/httputil"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// shopifyAPIBase overrides the admin API base URL when non-empty. Tests set
// it to an httptest server; production derives the URL from the shop domain.
var shopifyAPIBase = ""

const shopifyAPIVersion = "2024-04"

// ShopifyClient calls the Shopify Admin REST API.
type ShopifyClient struct {
	Config types.CommerceConfig
	Client *http.Client
}

func (c *ShopifyClient) baseURL() string {
	if shopifyAPIBase != "" {
		return shopifyAPIBase
	}
	return fmt.Sprintf("https://%s/admin/api/%s", c.Config.ShopDomain, shopifyAPIVersion)
}

// Admin API JSON structures.

type shopifyProductEnvelope struct {
	Product shopifyProduct `json:"product"`
}

type shopifyProduct struct {
	ID          int64            `json:"id,omitempty"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        string           `json:"tags"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at,omitempty"`
	Options     []shopifyOption  `json:"options,omitempty"`
	Variants    []shopifyVariant `json:"variants"`
}

type shopifyOption struct {
	Name string `json:"name"`
}

type shopifyVariant struct {
	ID              int64   `json:"id,omitempty"`
	Option1         string  `json:"option1,omitempty"`
	Option2         string  `json:"option2,omitempty"`
	Option3         string  `json:"option3,omitempty"`
	SKU             string  `json:"sku"`
	Barcode         string  `json:"barcode,omitempty"`
	Price           string  `json:"price"`
	CompareAtPrice  string  `json:"compare_at_price,omitempty"`
	Weight          float64 `json:"weight,omitempty"`
	InventoryItemID int64   `json:"inventory_item_id,omitempty"`
	ProductID       int64   `json:"product_id,omitempty"`
}

type shopifyVariantsEnvelope struct {
	Variants []shopifyVariant `json:"variants"`
}

// CreateDraft creates a draft product and returns its handles.
func (c *ShopifyClient) CreateDraft(ctx context.Context, listing *types.Listing) (DraftHandle, error) {
	product := shopifyProduct{
		Title:       listing.Title,
		BodyHTML:    listing.Description,
		Vendor:      listing.Vendor,
		ProductType: listing.ProductType,
		Tags:        joinTags(listing.Tags),
		Status:      "draft",
	}

	product.Options = append(product.Options, shopifyOption{Name: listing.LeadOption})
	for _, name := range listing.BabyOptions {
		product.Options = append(product.Options, shopifyOption{Name: name})
	}

	for _, v := range listing.Variants {
		sv := shopifyVariant{
			Option1:        v.Option1.Value,
			SKU:            strconv.Itoa(v.SKU),
			Barcode:        v.Barcode,
			Price:          v.Price,
			CompareAtPrice: v.CompareAt,
			Weight:         v.Weight,
		}
		if v.Option2 != nil {
			sv.Option2 = v.Option2.Value
		}
		if v.Option3 != nil {
			sv.Option3 = v.Option3.Value
		}
		product.Variants = append(product.Variants, sv)
	}

	body, err := json.Marshal(shopifyProductEnvelope{Product: product})
	if err != nil {
		return DraftHandle{}, fmt.Errorf("marshaling product: %w", err)
	}

	var env shopifyProductEnvelope
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL()+"/products.json", body, &env); err != nil {
		return DraftHandle{}, fmt.Errorf("creating draft: %w", err)
	}

	created := env.Product
	handle := DraftHandle{
		ExternalID:  strconv.FormatInt(created.ID, 10),
		ExternalURL: c.adminURL(created.ID),
		CreatedAt:   created.CreatedAt,
	}
	for _, v := range created.Variants {
		handle.InventoryItemHandles = append(handle.InventoryItemHandles,
			strconv.FormatInt(v.InventoryItemID, 10))
	}

	if len(handle.InventoryItemHandles) != len(listing.Variants) {
		return DraftHandle{}, fmt.Errorf("draft returned %d variants for %d submitted",
			len(handle.InventoryItemHandles), len(listing.Variants))
	}
	return handle, nil
}

type inventorySetRequest struct {
	LocationID      string `json:"location_id"`
	InventoryItemID string `json:"inventory_item_id"`
	Available       int    `json:"available"`
}

// SetInventory sets the available quantity for one inventory item at one location.
func (c *ShopifyClient) SetInventory(ctx context.Context, handle, location string, quantity int) error {
	body, err := json.Marshal(inventorySetRequest{
		LocationID:      location,
		InventoryItemID: handle,
		Available:       quantity,
	})
	if err != nil {
		return fmt.Errorf("marshaling inventory request: %w", err)
	}

	var out map[string]any
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL()+"/inventory_levels/set.json", body, &out); err != nil {
		return fmt.Errorf("setting inventory for item %s at %s: %w", handle, location, err)
	}
	return nil
}

// FindByKey looks up a product by variant SKU. Returns (nil, nil) on no match.
func (c *ShopifyClient) FindByKey(ctx context.Context, sku int) (*ExistingProduct, error) {
	params := url.Values{"sku": {strconv.Itoa(sku)}}
	var env shopifyVariantsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL()+"/variants.json?"+params.Encode(), nil, &env); err != nil {
		return nil, fmt.Errorf("looking up SKU %d: %w", sku, err)
	}
	if len(env.Variants) == 0 {
		return nil, nil
	}

	variant := env.Variants[0]
	var pEnv shopifyProductEnvelope
	productURL := fmt.Sprintf("%s/products/%d.json", c.baseURL(), variant.ProductID)
	if err := c.doJSON(ctx, http.MethodGet, productURL, nil, &pEnv); err != nil {
		return nil, fmt.Errorf("loading product for SKU %d: %w", sku, err)
	}

	return &ExistingProduct{
		Name: pEnv.Product.Title,
		SKU:  sku,
		URL:  c.adminURL(variant.ProductID),
	}, nil
}

func (c *ShopifyClient) adminURL(productID int64) string {
	return fmt.Sprintf("https://%s/admin/products/%d", c.Config.ShopDomain, productID)
}

type shopifyProductsEnvelope struct {
	Products []shopifyProduct `json:"products"`
}

// ListProducts returns one page of catalog products with IDs greater than
// sinceID, oldest first. An empty page means the catalog is exhausted.
func (c *ShopifyClient) ListProducts(ctx context.Context, sinceID int64, limit int) ([]CatalogProduct, error) {
	if limit <= 0 || limit > 250 {
		limit = 250
	}
	params := url.Values{
		"limit":    {strconv.Itoa(limit)},
		"since_id": {strconv.FormatInt(sinceID, 10)},
	}

	var env shopifyProductsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL()+"/products.json?"+params.Encode(), nil, &env); err != nil {
		return nil, fmt.Errorf("listing products since %d: %w", sinceID, err)
	}

	products := make([]CatalogProduct, 0, len(env.Products))
	for _, p := range env.Products {
		products = append(products, CatalogProduct{
			ID:          strconv.FormatInt(p.ID, 10),
			NumericID:   p.ID,
			Title:       p.Title,
			Vendor:      p.Vendor,
			ProductType: p.ProductType,
			Tags:        splitTags(p.Tags),
			URL:         c.adminURL(p.ID),
		})
	}
	return products, nil
}

func (c *ShopifyClient) doJSON(ctx context.Context, method, reqURL string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.Config.AccessToken)
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("shopify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("shopify returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing shopify response: %w", err)
	}
	return nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
