package repository

import (
	"context"
	"errors"

	"subvault/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

type OrderRepository interface {
	// Create сохраняет заказ и его позиции одной транзакцией
	Create(ctx context.Context, order *entity.Order, items []entity.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.OrderWithItems, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error
	Count(ctx context.Context) (int64, error)
	// RevenueSum считает SUM(final_amount) по заказам в указанных статусах
	RevenueSum(ctx context.Context, statuses []entity.OrderStatus) (float64, error)
	Recent(ctx context.Context, limit int) ([]entity.RecentOrder, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.PaymentTransaction) error
	GetByGatewayID(ctx context.Context, gatewayPaymentID string) (*entity.PaymentTransaction, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error
}
