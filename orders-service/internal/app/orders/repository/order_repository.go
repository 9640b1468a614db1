package repository

import (
	"context"
	"errors"

	"subvault/orders-service/internal/app/orders/entity"
	"subvault/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create сохраняет заказ и позиции одной транзакцией
// Заказ без позиций или позиции без заказа в базе не появляются
func (r *orderRepository) Create(ctx context.Context, order *entity.Order, items []entity.OrderItem) error {
	timer := metrics.NewDbTimer("orders-service", metrics.DbOpInsert, "orders")
	defer timer.ObserveDuration()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID получает заказ по ID
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &order, nil
}

// GetWithItems получает заказ с полным списком позиций
func (r *orderRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.OrderWithItems, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &entity.OrderWithItems{
		Order: order,
		Items: order.Items,
	}, nil
}

// GetByUserID получает все заказы пользователя, новые первыми
func (r *orderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Order, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders)

	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}

// UpdateStatus переводит заказ в новый статус
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Count возвращает общее число заказов
func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&entity.Order{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// RevenueSum считает выручку одним SQL-агрегатом
// Ноль подходящих заказов дает 0, а не NULL
func (r *orderRepository) RevenueSum(ctx context.Context, statuses []entity.OrderStatus) (float64, error) {
	var revenue float64
	result := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status IN ?", statuses).
		Scan(&revenue)

	if result.Error != nil {
		return 0, result.Error
	}

	return revenue, nil
}

// Recent возвращает последние заказы для дашборда
func (r *orderRepository) Recent(ctx context.Context, limit int) ([]entity.RecentOrder, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders)

	if result.Error != nil {
		return nil, result.Error
	}

	recent := make([]entity.RecentOrder, 0, len(orders))
	for _, order := range orders {
		recent = append(recent, entity.RecentOrder{
			ID:          order.ID.String(),
			UserID:      order.UserID.String(),
			FinalAmount: order.FinalAmount,
			Status:      string(order.Status),
			CreatedAt:   order.CreatedAt,
		})
	}

	return recent, nil
}
