//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"subvault/orders-service/internal/app/orders/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BaseURL адрес запущенного Orders Service
const BaseURL = "http://localhost:8082"

var client = &http.Client{Timeout: 10 * time.Second}

// userToken возвращает JWT обычного пользователя для e2e сценария
// Без токена сценарий пропускается - нужен живой Auth Service
func userToken(t *testing.T) string {
	token := os.Getenv("E2E_USER_TOKEN")
	if token == "" {
		t.Skip("E2E_USER_TOKEN is not set, skipping e2e order flow")
	}
	return token
}

// productID возвращает ID существующего товара каталога
func productID(t *testing.T) string {
	id := os.Getenv("E2E_PRODUCT_ID")
	if id == "" {
		t.Skip("E2E_PRODUCT_ID is not set, skipping e2e order flow")
	}
	return id
}

func doRequest(t *testing.T, method, path, token string, payload interface{}) *http.Response {
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, BaseURL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealthCheck(t *testing.T) {
	resp, err := client.Get(BaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFullOrderFlow(t *testing.T) {
	token := userToken(t)
	product := productID(t)

	// 1. Создаем заказ
	t.Log("Step 1: Creating order")
	resp := doRequest(t, http.MethodPost, "/orders", token, entity.CreateOrderRequest{
		Items:       []entity.OrderItemRequest{{ProductID: product, Quantity: 1}},
		PayCurrency: "BTC",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data entity.CreateOrderResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	orderID := created.Data.Order.ID.String()
	assert.Equal(t, entity.OrderStatusPending, created.Data.Order.Status)
	require.NotNil(t, created.Data.Payment)
	assert.NotEmpty(t, created.Data.Payment.PayAddress)

	// 2. Заказ виден в списке пользователя
	t.Log("Step 2: Listing user orders")
	resp = doRequest(t, http.MethodGet, "/orders", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 3. Реквизиты оплаты доступны
	t.Log("Step 3: Fetching payment details")
	resp = doRequest(t, http.MethodGet, "/orders/"+orderID+"/payment", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payment struct {
		Data entity.PaymentTransaction `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payment))
	assert.Equal(t, entity.PaymentStatusWaiting, payment.Data.Status)

	// 4. Отменяем неоплаченный заказ
	t.Log("Step 4: Cancelling pending order")
	resp = doRequest(t, http.MethodPost, "/orders/"+orderID+"/cancel", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 5. Повторная отмена отклоняется
	t.Log("Step 5: Second cancel is rejected")
	resp = doRequest(t, http.MethodPost, "/orders/"+orderID+"/cancel", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestInternalStatsAvailable(t *testing.T) {
	resp, err := client.Get(BaseURL + "/internal/stats/orders")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats entity.OrderStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.GreaterOrEqual(t, stats.TotalOrders, int64(0))
}
