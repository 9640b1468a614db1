package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AuthClient клиент для внутреннего API статистики Auth Service
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthClient создает новый клиент для Auth Service
func NewAuthClient(baseURL string, timeoutSec int) *AuthClient {
	return &AuthClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

// GetUserCount получает общее число зарегистрированных пользователей
func (c *AuthClient) GetUserCount(ctx context.Context) (int64, error) {
	url := c.baseURL + "/internal/stats/users"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to request user count: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode user count: %w", err)
	}

	return payload.Count, nil
}
