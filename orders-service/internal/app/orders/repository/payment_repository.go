package repository

import (
	"context"
	"errors"

	"subvault/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository создает новый репозиторий платежей
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create сохраняет платеж в PostgreSQL
func (r *paymentRepository) Create(ctx context.Context, payment *entity.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByGatewayID находит платеж по идентификатору шлюза
// Webhook знает только идентификатор шлюза, не наш
func (r *paymentRepository) GetByGatewayID(ctx context.Context, gatewayPaymentID string) (*entity.PaymentTransaction, error) {
	var payment entity.PaymentTransaction
	result := r.db.WithContext(ctx).First(&payment, "gateway_payment_id = ?", gatewayPaymentID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, result.Error
	}

	return &payment, nil
}

// GetByOrderID находит платеж заказа
func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.PaymentTransaction, error) {
	var payment entity.PaymentTransaction
	result := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, result.Error
	}

	return &payment, nil
}

// UpdateStatus обновляет статус платежа
func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entity.PaymentTransaction{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}
