package storefront

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", ""},
		{
			"next only",
			`<https://shop.myshopify.com/admin/api/products.json?page_info=abc>; rel="next"`,
			"https://shop.myshopify.com/admin/api/products.json?page_info=abc",
		},
		{
			"previous and next",
			`<https://shop.myshopify.com/a?page_info=prev>; rel="previous", <https://shop.myshopify.com/a?page_info=next>; rel="next"`,
			"https://shop.myshopify.com/a?page_info=next",
		},
		{
			"previous only",
			`<https://shop.myshopify.com/a?page_info=prev>; rel="previous"`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageURL(tt.header))
		})
	}
}

func TestFlattenOrders(t *testing.T) {
	orders := []shopifyOrder{
		{
			ID:        1,
			CreatedAt: time.Date(2025, time.June, 1, 15, 30, 0, 0, time.UTC),
			LineItems: []shopifyLineItem{
				{SKU: "SKU-1", Quantity: 2},
				{SKU: "", Quantity: 5},
				{SKU: "SKU-2", Quantity: 0},
			},
		},
		{
			ID:        2,
			CreatedAt: time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC),
			LineItems: []shopifyLineItem{{SKU: "SKU-1", Quantity: 1}},
		},
	}

	sales := flattenOrders(orders)

	require.Len(t, sales, 2)
	assert.Equal(t, "SKU-1", sales[0].SKUID)
	// Timestamps collapse to the UTC day.
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), sales[0].Date)
	assert.Equal(t, 2, sales[0].UnitsSold)
	assert.Equal(t, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), sales[1].Date)
}

func TestFlattenProducts(t *testing.T) {
	asOf := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	products := []shopifyProduct{
		{
			ID:          1,
			Title:       "Classic Tee",
			ProductType: "apparel",
			Variants: []shopifyVariant{
				{ID: 11, SKU: "TEE-S", Price: "499.00", CompareAtPrice: "599.00", InventoryQuantity: 40},
				{ID: 12, SKU: "TEE-M", Price: "499.00", InventoryQuantity: 25},
				{ID: 13, SKU: "", Price: "499.00"},
				// Duplicate SKU across products keeps the first occurrence.
				{ID: 14, SKU: "TEE-S", Price: "999.00"},
			},
		},
	}
	sales := flattenOrders([]shopifyOrder{
		{CreatedAt: asOf.Add(-10 * 24 * time.Hour), LineItems: []shopifyLineItem{{SKU: "TEE-S", Quantity: 6}}},
		// Outside the 30-day window.
		{CreatedAt: asOf.Add(-40 * 24 * time.Hour), LineItems: []shopifyLineItem{{SKU: "TEE-S", Quantity: 50}}},
	})

	master := flattenProducts(products, sales, asOf)

	require.Len(t, master, 2)
	s := master[0]
	assert.Equal(t, "TEE-S", s.SKUID)
	assert.Equal(t, "Classic Tee", s.ProductName)
	assert.Equal(t, "apparel", s.Category)
	assert.InDelta(t, 499, s.SellingPrice, 1e-9)
	assert.InDelta(t, 499*defaultCOGSRatio, s.COGS, 1e-9)
	require.NotNil(t, s.MRP)
	assert.InDelta(t, 599, *s.MRP, 1e-9)
	assert.Equal(t, 40, s.CurrentStock)
	assert.Equal(t, defaultLeadTimeDays, s.LeadTimeDays)
	assert.InDelta(t, defaultAdSpend30d, s.AdSpendLast30Days, 1e-9)
	assert.InDelta(t, 6, s.UnitsSoldLast30Days, 1e-9)

	m := master[1]
	assert.Equal(t, "TEE-M", m.SKUID)
	assert.Nil(t, m.MRP)
	assert.InDelta(t, defaultAdSpend30d, m.AdSpendLast30Days, 1e-9)
	assert.Zero(t, m.UnitsSoldLast30Days)
}

func TestParsePrice(t *testing.T) {
	assert.InDelta(t, 499.5, parsePrice("499.50"), 1e-9)
	assert.InDelta(t, 12, parsePrice(" 12 "), 1e-9)
	assert.Zero(t, parsePrice(""))
	assert.Zero(t, parsePrice("free"))
}
