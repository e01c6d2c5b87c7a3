package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrProductNotFound = errors.New("product not found")

// Product is the catalog's authoritative view of a product variant.
type Product struct {
	Name  string          `json:"name"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

// Client resolves product variants against the product-service HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type searchRequest struct {
	ID      string            `json:"id"`
	Options map[string]string `json:"options,omitempty"`
}

type searchResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Result  *Product `json:"result"`
}

// Resolve looks up the current price, name and image for a product variant.
// Returns ErrProductNotFound when the catalog has no matching variant.
func (c *Client) Resolve(ctx context.Context, productID string, options map[string]string) (*Product, error) {
	body, err := json.Marshal(searchRequest{ID: productID, Options: options})
	if err != nil {
		return nil, fmt.Errorf("marshal catalog request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/searchBySizeAndID", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if sr.Result == nil {
		return nil, ErrProductNotFound
	}

	return sr.Result, nil
}
