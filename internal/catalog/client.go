package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"reservation-service/internal/models"
)

// Client talks to the external product catalog that still owns the legacy
// embedded stockQuantity field. The catalog is treated as unreliable: any
// transport or decode failure is an unknown outcome and surfaces as
// models.ErrCatalogUnavailable, which callers resolve as reservation
// failure (never assume success, never oversell).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a catalog client with a bounded request timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetStock reads the legacy stockQuantity field for a product
func (c *Client) GetStock(ctx context.Context, productID string) (int, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Catalog unreachable on stock read")
		return 0, fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Str("product_id", productID).Msg("Catalog returned error on stock read")
		return 0, fmt.Errorf("%w: status %d", models.ErrCatalogUnavailable, resp.StatusCode)
	}

	var product models.CatalogProduct
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", models.ErrCatalogUnavailable, err)
	}

	return product.StockQuantity, nil
}

// UpdateStock writes the legacy stockQuantity field for a product
func (c *Client) UpdateStock(ctx context.Context, productID string, stockQuantity int) error {
	url := fmt.Sprintf("%s/products/%s/stock", c.baseURL, productID)

	body, err := json.Marshal(map[string]int{"stockQuantity": stockQuantity})
	if err != nil {
		return fmt.Errorf("failed to marshal stock update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Catalog unreachable on stock write")
		return fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		log.Error().Int("status", resp.StatusCode).Str("product_id", productID).Msg("Catalog returned error on stock write")
		return fmt.Errorf("%w: status %d", models.ErrCatalogUnavailable, resp.StatusCode)
	}

	return nil
}
