package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"subvault/orders-service/internal/app/orders/entity"
)

// PaymentGatewayClient клиент внешнего платежного шлюза
// Шлюз выдает адрес для перевода и присылает webhook при смене статуса
type PaymentGatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPaymentGatewayClient создает новый клиент платежного шлюза
func NewPaymentGatewayClient(baseURL, apiKey string) *PaymentGatewayClient {
	return &PaymentGatewayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type createPaymentRequest struct {
	OrderID     string  `json:"order_id"`
	PriceAmount float64 `json:"price_amount"`
	PayCurrency string  `json:"pay_currency"`
}

// CreatePayment создает платеж в шлюзе и возвращает реквизиты оплаты
func (c *PaymentGatewayClient) CreatePayment(ctx context.Context, orderID string, amount float64, payCurrency string) (*entity.GatewayPayment, error) {
	body, err := json.Marshal(createPaymentRequest{
		OrderID:     orderID,
		PriceAmount: amount,
		PayCurrency: payCurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send payment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status code from payment gateway: %d", resp.StatusCode)
	}

	var payment entity.GatewayPayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if payment.PaymentID == "" {
		return nil, fmt.Errorf("payment gateway returned empty payment id")
	}

	return &payment, nil
}
