package service

import (
	"context"

	"subvault/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *entity.CreateOrderRequest) (*entity.CreateOrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*entity.OrderWithItems, error)
	GetOrderPayment(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*entity.PaymentTransaction, error)
	GetUserOrders(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus entity.OrderStatus) (*entity.Order, error)
	HandlePaymentWebhook(ctx context.Context, req *entity.PaymentWebhookRequest) error
	GetOrderStats(ctx context.Context, recentLimit int) (*entity.OrderStats, error)
}
