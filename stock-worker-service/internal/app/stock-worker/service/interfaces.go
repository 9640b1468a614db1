package service

import (
	"context"

	"subvault/stock-worker-service/internal/app/stock-worker/entity"
)

// StockProcessingServiceInterface - обработка событий заказов и сверка остатков
type StockProcessingServiceInterface interface {
	// ProcessOrderEvent обрабатывает одно событие из топика order_events
	ProcessOrderEvent(ctx context.Context, event *entity.OrderEvent) error

	// Reconcile выравнивает статусы товаров с их фактическими остатками
	Reconcile(ctx context.Context) (*entity.ReconciliationResult, error)
}
