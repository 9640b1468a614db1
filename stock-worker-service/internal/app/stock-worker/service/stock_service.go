package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"subvault/pkg/logger"
	"subvault/pkg/metrics"
	"subvault/stock-worker-service/internal/app/stock-worker/entity"
	"subvault/stock-worker-service/internal/app/stock-worker/repository"
)

// StockProcessingService списывает остатки по оплаченным заказам
// и периодически сверяет stock_quantity со статусом товара
type StockProcessingService struct {
	stockRepo repository.StockRepository
}

func NewStockProcessingService(stockRepo repository.StockRepository) *StockProcessingService {
	return &StockProcessingService{stockRepo: stockRepo}
}

// ProcessOrderEvent обрабатывает событие заказа из Kafka.
// Списание происходит только по ORDER_PAID: оплата подтверждена шлюзом,
// позиции заказа зафиксированы.
func (s *StockProcessingService) ProcessOrderEvent(ctx context.Context, event *entity.OrderEvent) error {
	switch event.EventType {
	case entity.EventTypeOrderPaid:
		return s.processOrderPaid(ctx, event)
	case entity.EventTypeOrderCreated, entity.EventTypeOrderStatusChanged:
		// Создание заказа и прочие смены статуса остатки не трогают
		logger.Debug().
			Str("event_type", event.EventType).
			Str("order_id", event.OrderID).
			Msg("Skipping event")
		return nil
	default:
		logger.Warn().
			Str("event_type", event.EventType).
			Str("order_id", event.OrderID).
			Msg("Unknown event type, skipping")
		return nil
	}
}

func (s *StockProcessingService) processOrderPaid(ctx context.Context, event *entity.OrderEvent) error {
	logger.Info().
		Str("order_id", event.OrderID).
		Int("items", len(event.Items)).
		Msg("Processing ORDER_PAID event")

	for _, item := range event.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			// Битый ID не станет валидным при повторной доставке
			metrics.WorkerStockDecrements.WithLabelValues("failed").Inc()
			logger.Error().
				Str("order_id", event.OrderID).
				Str("product_id", item.ProductID).
				Msg("Invalid product ID in order event, skipping item")
			continue
		}

		remaining, err := s.stockRepo.DecrementStock(ctx, productID, item.Quantity)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				metrics.WorkerStockDecrements.WithLabelValues("failed").Inc()
				logger.Error().
					Str("order_id", event.OrderID).
					Str("product_id", item.ProductID).
					Msg("Product not found, skipping item")
				continue
			}
			// Временная ошибка БД: сообщение не коммитим, Kafka доставит повторно
			metrics.WorkerStockDecrements.WithLabelValues("failed").Inc()
			return fmt.Errorf("failed to decrement stock for product %s: %w", item.ProductID, err)
		}

		metrics.WorkerStockDecrements.WithLabelValues("success").Inc()
		logger.Info().
			Str("order_id", event.OrderID).
			Str("product_id", item.ProductID).
			Int("quantity", item.Quantity).
			Int("remaining", remaining).
			Msg("Stock decremented")

		if remaining == 0 {
			if err := s.stockRepo.MarkOutOfStock(ctx, productID); err != nil {
				// Статус догонит ближайшая сверка
				logger.Warn().
					Err(err).
					Str("product_id", item.ProductID).
					Msg("Failed to mark product out of stock")
			}
		}
	}

	return nil
}

// Reconcile выравнивает расхождения между остатком и статусом:
// активные товары с нулевым остатком гасятся, out_of_stock с
// положительным остатком возвращаются в продажу
func (s *StockProcessingService) Reconcile(ctx context.Context) (*entity.ReconciliationResult, error) {
	depleted, err := s.stockRepo.ReconcileDepleted(ctx)
	if err != nil {
		metrics.WorkerReconciliations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to reconcile depleted products: %w", err)
	}

	restocked, err := s.stockRepo.ReconcileRestocked(ctx)
	if err != nil {
		metrics.WorkerReconciliations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to reconcile restocked products: %w", err)
	}

	metrics.WorkerReconciliations.WithLabelValues("success").Inc()

	result := &entity.ReconciliationResult{
		Depleted:  depleted,
		Restocked: restocked,
		RunAt:     time.Now(),
	}

	logger.Info().
		Int64("depleted", result.Depleted).
		Int64("restocked", result.Restocked).
		Msg("Stock reconciliation completed")

	return result, nil
}
