package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"subvault/orders-service/internal/app/orders/entity"
)

var (
	ErrProductNotFound = errors.New("product not found in catalog")
)

// CatalogClient клиент для взаимодействия с Catalog Service
// Используется для снимка цены и проверки наличия при создании заказа
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient создает новый клиент для Catalog Service
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetProduct получает товар из Catalog Service
func (c *CatalogClient) GetProduct(ctx context.Context, productID string) (*entity.CatalogProduct, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from catalog: %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool                  `json:"success"`
		Data    entity.CatalogProduct `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return &envelope.Data, nil
}
