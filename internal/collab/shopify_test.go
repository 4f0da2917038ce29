// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/listing-engine/pkg/types"
)

func newShopify(t *testing.T, handler http.HandlerFunc) *ShopifyClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	orig := shopifyAPIBase
	shopifyAPIBase = ts.URL
	t.Cleanup(func() { shopifyAPIBase = orig })

	return &ShopifyClient{
		Config: types.CommerceConfig{ShopDomain: "test.myshopify.com", AccessToken: "shpat-test"},
		Client: ts.Client(),
	}
}

func twoOptionListing() *types.Listing {
	return &types.Listing{
		Title:       "Gold Standard Whey",
		Description: "<p>25g protein per serving.</p>",
		Vendor:      "Optimum Nutrition",
		ProductType: "Protein Powder",
		Tags:        []string{"protein", "whey"},
		LeadOption:  "Size",
		BabyOptions: []string{"Flavour"},
		Variants: []types.Variant{
			{
				Option1: types.OptionValue{Name: "Size", Value: "5lb"},
				Option2: &types.OptionValue{Name: "Flavour", Value: "Chocolate"},
				SKU:     523525, Barcode: "321542352", Price: "59.95", Weight: 2.27,
			},
		},
	}
}

func TestCreateDraft(t *testing.T) {
	var captured shopifyProductEnvelope
	c := newShopify(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products.json", r.URL.Path)
		require.Equal(t, "shpat-test", r.Header.Get("X-Shopify-Access-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		fmt.Fprint(w, `{"product": {"id": 9001, "title": "Gold Standard Whey",
			"created_at": "2026-08-30T10:00:00Z",
			"variants": [{"id": 1, "inventory_item_id": 77001}]}}`)
	})

	handle, err := c.CreateDraft(context.Background(), twoOptionListing())
	require.NoError(t, err)

	assert.Equal(t, "9001", handle.ExternalID)
	assert.Contains(t, handle.ExternalURL, "/admin/products/9001")
	assert.Equal(t, []string{"77001"}, handle.InventoryItemHandles)

	// Draft status and operator fields pass through verbatim.
	assert.Equal(t, "draft", captured.Product.Status)
	require.Len(t, captured.Product.Variants, 1)
	assert.Equal(t, "523525", captured.Product.Variants[0].SKU)
	assert.Equal(t, "321542352", captured.Product.Variants[0].Barcode)
	assert.Equal(t, "59.95", captured.Product.Variants[0].Price)
	require.Len(t, captured.Product.Options, 2)
	assert.Equal(t, "Size", captured.Product.Options[0].Name)
	assert.Equal(t, "Flavour", captured.Product.Options[1].Name)
}

func TestCreateDraftVariantCountMismatch(t *testing.T) {
	c := newShopify(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"product": {"id": 9001, "variants": []}}`)
	})

	_, err := c.CreateDraft(context.Background(), twoOptionListing())
	require.Error(t, err)
}

func TestSetInventory(t *testing.T) {
	var captured inventorySetRequest
	c := newShopify(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inventory_levels/set.json", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"inventory_level": {}}`)
	})

	err := c.SetInventory(context.Background(), "77001", "loc-1", 40)
	require.NoError(t, err)
	assert.Equal(t, "77001", captured.InventoryItemID)
	assert.Equal(t, "loc-1", captured.LocationID)
	assert.Equal(t, 40, captured.Available)
}

func TestFindByKey(t *testing.T) {
	c := newShopify(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/variants.json":
			require.Equal(t, "523525", r.URL.Query().Get("sku"))
			fmt.Fprint(w, `{"variants": [{"id": 1, "sku": "523525", "product_id": 9001}]}`)
		case strings.HasPrefix(r.URL.Path, "/products/"):
			fmt.Fprint(w, `{"product": {"id": 9001, "title": "Gold Standard Whey"}}`)
		default:
			http.NotFound(w, r)
		}
	})

	found, err := c.FindByKey(context.Background(), 523525)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Gold Standard Whey", found.Name)
	assert.Equal(t, 523525, found.SKU)
	assert.Equal(t, "https://test.myshopify.com/admin/products/9001", found.URL)
}

func TestFindByKeyMiss(t *testing.T) {
	c := newShopify(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"variants": []}`)
	})

	found, err := c.FindByKey(context.Background(), 111)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestListProducts(t *testing.T) {
	c := newShopify(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products.json", r.URL.Path)
		require.Equal(t, "30", r.URL.Query().Get("since_id"))
		require.Equal(t, "2", r.URL.Query().Get("limit"))

		fmt.Fprint(w, `{"products": [
			{"id": 31, "title": "Whey A", "vendor": "ON", "product_type": "Protein Powder", "tags": "protein, whey"},
			{"id": 32, "title": "Whey B", "product_type": "Protein Powder", "tags": ""}
		]}`)
	})

	products, err := c.ListProducts(context.Background(), 30, 2)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "31", products[0].ID)
	assert.Equal(t, int64(31), products[0].NumericID)
	assert.Equal(t, "Whey A", products[0].Title)
	assert.Equal(t, []string{"protein", "whey"}, products[0].Tags)
	assert.Equal(t, "https://test.myshopify.com/admin/products/31", products[0].URL)
	assert.Nil(t, products[1].Tags)
}

func TestListProductsEmptyPage(t *testing.T) {
	c := newShopify(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"products": []}`)
	})

	products, err := c.ListProducts(context.Background(), 99, 250)
	require.NoError(t, err)
	assert.Empty(t, products)
}
