package handler

import (
	"errors"
	"net/http"
	"strconv"

	"subvault/orders-service/internal/app/orders/entity"
	"subvault/orders-service/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OrderHandler обрабатывает HTTP запросы для заказов
type OrderHandler struct {
	orderService service.OrderServiceInterface
	validator    *validator.Validate
}

// NewOrderHandler создает новый обработчик заказов
func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

// CreateOrder обрабатывает POST /orders
// Цены позиций берутся из Catalog Service, клиентские цены не принимаются
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusBadRequest, "One or more products not found in catalog")
		case errors.Is(err, service.ErrProductUnavailable):
			respondError(c, http.StatusConflict, "One or more products are not available for purchase")
		case errors.Is(err, service.ErrInsufficientStock):
			respondError(c, http.StatusConflict, "Insufficient stock for one or more products")
		case errors.Is(err, service.ErrPaymentGateway):
			respondError(c, http.StatusBadGateway, "Payment gateway is unavailable, please try again later")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	c.JSON(http.StatusCreated, entity.DataResponse{Success: true, Data: resp})
}

// GetUserOrders обрабатывает GET /orders
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orders, err := h.orderService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
		"total":   len(orders),
	})
}

// GetOrder обрабатывает GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		respondOrderError(c, err, "Failed to get order")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: order})
}

// GetOrderPayment обрабатывает GET /orders/:id/payment
// Возвращает реквизиты оплаты заказа
func (h *OrderHandler) GetOrderPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	payment, err := h.orderService.GetOrderPayment(c.Request.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			respondError(c, http.StatusNotFound, "Payment not found")
			return
		}
		respondOrderError(c, err, "Failed to get payment")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: payment})
}

// CancelOrder обрабатывает POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrderStatus) {
			respondError(c, http.StatusConflict, "Order can no longer be cancelled")
			return
		}
		respondOrderError(c, err, "Failed to cancel order")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: order})
}

// UpdateOrderStatus обрабатывает PATCH /admin/orders/:id
// Административный перевод заказа по статусной машине
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req entity.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrderStatus) {
			respondError(c, http.StatusBadRequest, "Invalid status transition")
			return
		}
		respondOrderError(c, err, "Failed to update order status")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: order})
}

// GetOrderStats обрабатывает GET /internal/stats/orders
// Внутренний эндпоинт для дашборда Catalog Service, отдает объект без обертки
func (h *OrderHandler) GetOrderStats(c *gin.Context) {
	recentLimit := parseIntQuery(c, "recent_limit", service.DefaultRecentOrdersLimit)

	stats, err := h.orderService.GetOrderStats(c.Request.Context(), recentLimit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get order stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// respondOrderError мапит общие ошибки сервиса заказов на HTTP статусы
func respondOrderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrUnauthorized):
		respondError(c, http.StatusForbidden, "Access denied")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{Success: false, Error: message})
}

func parseIntQuery(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return defaultValue
	}

	return value
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		first := validationErrors[0]
		return "Validation failed on field '" + first.Field() + "' (" + first.Tag() + ")"
	}
	return "Validation failed"
}

// currentUserID достает uuid пользователя, установленный Auth middleware
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	return userID, ok
}
