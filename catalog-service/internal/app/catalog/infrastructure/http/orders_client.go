package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
)

// OrdersClient клиент для внутреннего API статистики Orders Service
// Дашборд не ходит в чужую базу напрямую, только через этот endpoint
type OrdersClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOrdersClient создает новый клиент для Orders Service
func NewOrdersClient(baseURL string, timeoutSec int) *OrdersClient {
	return &OrdersClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

// GetOrderStats получает число заказов, выручку и последние заказы
// Таймаут фиксированный, повторов нет - ошибка поднимается наверх
func (c *OrdersClient) GetOrderStats(ctx context.Context, recentLimit int) (*entity.OrderStats, error) {
	url := fmt.Sprintf("%s/internal/stats/orders?recent_limit=%d", c.baseURL, recentLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request order stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}

	var stats entity.OrderStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode order stats: %w", err)
	}

	return &stats, nil
}
