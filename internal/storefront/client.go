package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/metrics"
)

const (
	pageLimit          = 250
	inventoryChunkSize = 100
	accessTokenHeader  = "X-Shopify-Access-Token"
	defaultTimeout     = 15 * time.Second
	defaultAPIVersion  = "2024-01"
	maxPages           = 1000
)

// Config describes how to reach one store's Admin API.
type Config struct {
	Domain      string
	AccessToken string
	APIVersion  string
	// Timeout bounds every individual HTTP call.
	Timeout time.Duration
	// BaseURL replaces https://{Domain} when set.
	BaseURL string
}

// APIError is returned for any non-2xx upstream response.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("storefront %s: status %d: %s", e.Endpoint, e.Status, body)
}

// Client talks to the Admin REST API of a single store.
type Client struct {
	http    *resty.Client
	base    string
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
}

// New builds a client bound to one store. sm may be nil.
func New(cfg Config, logg *logger.Logger, sm *metrics.SyncMetrics) (*Client, error) {
	if strings.TrimSpace(cfg.Domain) == "" && cfg.BaseURL == "" {
		return nil, errors.New("storefront: domain required")
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("storefront: access token required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logg == nil {
		logg = logger.Nop()
	}

	host := strings.TrimSuffix(cfg.BaseURL, "/")
	if host == "" {
		host = "https://" + cfg.Domain
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader(accessTokenHeader, cfg.AccessToken).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "marginly-backend/1.0")

	return &Client{
		http:    httpClient,
		base:    host + "/admin/api/" + cfg.APIVersion,
		timeout: cfg.Timeout,
		logg:    logg,
		metrics: sm,
	}, nil
}

// FetchOrders returns every order created at or after since, following
// cursor pagination. A nil since fetches the full history.
func (c *Client) FetchOrders(ctx context.Context, since *time.Time) ([]Order, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(pageLimit))
	if since != nil {
		query.Set("created_at_min", since.UTC().Format(time.RFC3339))
	}

	var orders []Order
	next := c.base + "/orders.json?" + query.Encode()
	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("storefront orders: exceeded %d pages", maxPages)
		}
		var body ordersPage
		link, err := c.get(ctx, "orders", next, &body)
		if err != nil {
			return nil, err
		}
		for _, o := range body.Orders {
			orders = append(orders, o.normalize())
		}
		next = nextPageURL(link)
	}
	return orders, nil
}

// FetchVariantInventoryMap maps every variant ID in the catalog to its
// inventory item ID.
func (c *Client) FetchVariantInventoryMap(ctx context.Context) (map[string]string, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageLimit))
	query.Set("fields", "id,variants")

	out := make(map[string]string)
	next := c.base + "/products.json?" + query.Encode()
	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("storefront products: exceeded %d pages", maxPages)
		}
		var body productsPage
		link, err := c.get(ctx, "products", next, &body)
		if err != nil {
			return nil, err
		}
		for _, p := range body.Products {
			for _, v := range p.Variants {
				if v.ID == "" || v.InventoryItemID == "" {
					continue
				}
				out[v.ID.String()] = v.InventoryItemID.String()
			}
		}
		next = nextPageURL(link)
	}
	return out, nil
}

// FetchInventoryCosts returns the unit cost per inventory item. Items without
// a cost map to zero. IDs are queried in chunks.
func (c *Client) FetchInventoryCosts(ctx context.Context, inventoryItemIDs []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(inventoryItemIDs))
	for start := 0; start < len(inventoryItemIDs); start += inventoryChunkSize {
		end := start + inventoryChunkSize
		if end > len(inventoryItemIDs) {
			end = len(inventoryItemIDs)
		}
		chunk := inventoryItemIDs[start:end]

		query := url.Values{}
		query.Set("ids", strings.Join(chunk, ","))
		query.Set("limit", strconv.Itoa(pageLimit))

		var body inventoryItemsPage
		if _, err := c.get(ctx, "inventory_items", c.base+"/inventory_items.json?"+query.Encode(), &body); err != nil {
			return out, err
		}
		for _, item := range body.InventoryItems {
			cost := ""
			if item.Cost != nil {
				cost = *item.Cost
			}
			out[item.ID.String()] = parseMoney(cost)
		}
	}
	return out, nil
}

// get performs one GET under its own deadline and returns the Link header.
func (c *Client) get(ctx context.Context, endpoint, target string, result any) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.http.R().
		SetContext(callCtx).
		SetResult(result).
		Get(target)
	if err != nil {
		c.metrics.ObserveUpstream("storefront_"+endpoint, "error", time.Since(started))
		return "", fmt.Errorf("storefront %s: %w", endpoint, err)
	}
	c.metrics.ObserveUpstream("storefront_"+endpoint, strconv.Itoa(resp.StatusCode()), time.Since(started))
	if resp.IsError() {
		return "", &APIError{Endpoint: endpoint, Status: resp.StatusCode(), Body: resp.String()}
	}
	return resp.Header().Get("Link"), nil
}

// nextPageURL extracts the rel="next" target from an RFC 8288 Link header.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			param = strings.ReplaceAll(strings.TrimSpace(param), " ", "")
			if param == `rel="next"` || param == "rel=next" {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}
