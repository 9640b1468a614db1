package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"subvault/orders-service/internal/app/orders/entity"
	"subvault/orders-service/internal/app/orders/service"
	"subvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// WebhookHandler принимает callbacks платежного шлюза
// Эндпоинт не защищен JWT, вместо этого проверяется HMAC подпись тела
type WebhookHandler struct {
	orderService  service.OrderServiceInterface
	webhookSecret string
	validator     *validator.Validate
}

func NewWebhookHandler(orderService service.OrderServiceInterface, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		orderService:  orderService,
		webhookSecret: webhookSecret,
		validator:     validator.New(),
	}
}

// HandlePaymentWebhook обрабатывает POST /webhooks/payment
// Подпись: HMAC-SHA256(body, secret) hex в заголовке X-Webhook-Signature
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
		logger.Warn().Str("remote_addr", c.ClientIP()).Msg("Payment webhook with invalid signature rejected")
		respondError(c, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var req entity.PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	if err := h.orderService.HandlePaymentWebhook(c.Request.Context(), &req); err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			respondError(c, http.StatusNotFound, "Payment not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
