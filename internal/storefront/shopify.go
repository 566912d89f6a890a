// Package storefront pulls live catalog and order data from a Shopify shop
// and shapes it into the two pipeline input tables.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/merchsignal/backend/internal/domain"
)

const (
	pageSize = 250
	// Shopify REST is limited to 2 req/s per shop; stay under it.
	requestDelay  = 600 * time.Millisecond
	orderLookback = 90 * 24 * time.Hour
)

// Assumed unit economics for catalogs that do not carry cost data.
const (
	defaultCOGSRatio    = 0.6
	defaultLeadTimeDays = 7
	defaultAdSpend30d   = 5000
)

// Client is a minimal Shopify Admin REST client covering products and
// orders.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
}

func NewClient(shopDomain, accessToken, apiVersion string) *Client {
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type shopifyVariant struct {
	ID                int64  `json:"id"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	CompareAtPrice    string `json:"compare_at_price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type shopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	ProductType string           `json:"product_type"`
	Variants    []shopifyVariant `json:"variants"`
}

type shopifyLineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type shopifyOrder struct {
	ID        int64             `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	LineItems []shopifyLineItem `json:"line_items"`
}

// FetchTables downloads the full product catalog and the last 90 days of
// orders, returning the master and sales tables. asOf anchors the order
// lookback window.
func (c *Client) FetchTables(ctx context.Context, asOf time.Time) ([]domain.MasterRecord, []domain.SalesRecord, error) {
	products, err := c.fetchProducts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch products: %w", err)
	}
	orders, err := c.fetchOrders(ctx, asOf.Add(-orderLookback))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch orders: %w", err)
	}

	sales := flattenOrders(orders)
	master := flattenProducts(products, sales, asOf)
	log.Info().
		Int("products", len(products)).
		Int("orders", len(orders)).
		Int("skus", len(master)).
		Msg("storefront fetch complete")
	return master, sales, nil
}

func (c *Client) fetchProducts(ctx context.Context) ([]shopifyProduct, error) {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/products.json?limit=%d", c.shopDomain, c.apiVersion, pageSize)

	var all []shopifyProduct
	for endpoint != "" {
		var page struct {
			Products []shopifyProduct `json:"products"`
		}
		next, err := c.getPage(ctx, endpoint, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Products...)
		endpoint = next
	}
	return all, nil
}

func (c *Client) fetchOrders(ctx context.Context, since time.Time) ([]shopifyOrder, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(pageSize))
	q.Set("status", "any")
	q.Set("created_at_min", since.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/orders.json?%s", c.shopDomain, c.apiVersion, q.Encode())

	var all []shopifyOrder
	for endpoint != "" {
		var page struct {
			Orders []shopifyOrder `json:"orders"`
		}
		next, err := c.getPage(ctx, endpoint, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Orders...)
		endpoint = next
	}
	return all, nil
}

// getPage performs one GET, decodes into out and returns the next page URL
// from the Link header, empty when the listing is exhausted.
func (c *Client) getPage(ctx context.Context, endpoint string, out interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("shopify %s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	next := nextPageURL(resp.Header.Get("Link"))
	if next != "" {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(requestDelay):
		}
	}
	return next, nil
}

var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

func nextPageURL(linkHeader string) string {
	if m := linkNextRe.FindStringSubmatch(linkHeader); m != nil {
		return m[1]
	}
	return ""
}

// flattenOrders turns order line items into daily sales rows. Lines without
// a SKU are skipped.
func flattenOrders(orders []shopifyOrder) []domain.SalesRecord {
	var sales []domain.SalesRecord
	for _, o := range orders {
		day := o.CreatedAt.UTC().Truncate(24 * time.Hour)
		for _, li := range o.LineItems {
			if li.SKU == "" || li.Quantity <= 0 {
				continue
			}
			sales = append(sales, domain.SalesRecord{
				SKUID:     li.SKU,
				Date:      day,
				UnitsSold: li.Quantity,
			})
		}
	}
	return sales
}

// flattenProducts maps each variant with a SKU to one master row. Shopify
// carries no cost or lead-time data, so COGS is assumed at a fixed ratio of
// price and lead time at a platform default.
func flattenProducts(products []shopifyProduct, sales []domain.SalesRecord, asOf time.Time) []domain.MasterRecord {
	cutoff := asOf.Add(-30 * 24 * time.Hour)
	units30 := make(map[string]float64)
	for _, s := range sales {
		if !s.Date.Before(cutoff) {
			units30[s.SKUID] += float64(s.UnitsSold)
		}
	}

	seen := make(map[string]struct{})
	var master []domain.MasterRecord
	for _, p := range products {
		for _, v := range p.Variants {
			if v.SKU == "" {
				continue
			}
			if _, dup := seen[v.SKU]; dup {
				continue
			}
			seen[v.SKU] = struct{}{}

			price := parsePrice(v.Price)
			m := domain.MasterRecord{
				SKUID:               v.SKU,
				Category:            p.ProductType,
				ProductName:         p.Title,
				SellingPrice:        price,
				COGS:                price * defaultCOGSRatio,
				AdSpendLast30Days:   defaultAdSpend30d,
				UnitsSoldLast30Days: units30[v.SKU],
				CurrentStock:        v.InventoryQuantity,
				LeadTimeDays:        defaultLeadTimeDays,
			}
			if mrp := parsePrice(v.CompareAtPrice); mrp > 0 {
				m.MRP = &mrp
			}
			master = append(master, m)
		}
	}
	return master
}

func parsePrice(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	var f float64
	if _, err := fmt.Sscanf(v, "%f", &f); err != nil {
		return 0
	}
	return f
}
