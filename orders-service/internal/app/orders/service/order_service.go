package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"subvault/orders-service/internal/app/orders/entity"
	"subvault/orders-service/internal/app/orders/infrastructure"
	infrahttp "subvault/orders-service/internal/app/orders/infrastructure/http"
	"subvault/orders-service/internal/app/orders/repository"
	"subvault/pkg/logger"
	"subvault/pkg/metrics"

	"github.com/google/uuid"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found in catalog")
	ErrProductUnavailable = errors.New("product is not available for purchase")
	ErrInsufficientStock  = errors.New("insufficient product stock")
	ErrInvalidOrderStatus = errors.New("invalid order status transition")
	ErrUnauthorized       = errors.New("unauthorized access to order")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentGateway     = errors.New("payment gateway unavailable")
)

// Лимит recent-заказов для внутренней статистики по умолчанию
const DefaultRecentOrdersLimit = 5

// OrderService обрабатывает бизнес-логику заказов
// Координирует репозитории, Catalog Service, платежный шлюз и Kafka
type OrderService struct {
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	catalogClient infrastructure.CatalogServiceClient
	gatewayClient infrastructure.PaymentGatewayClient
	kafkaProducer infrastructure.MessagePublisher
}

// NewOrderService создает новый сервис заказов с внедрением зависимостей
func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	catalogClient infrastructure.CatalogServiceClient,
	gatewayClient infrastructure.PaymentGatewayClient,
	kafkaProducer infrastructure.MessagePublisher,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		catalogClient: catalogClient,
		gatewayClient: gatewayClient,
		kafkaProducer: kafkaProducer,
	}
}

// CreateOrder создает новый заказ
// 1. Проверяет каждый товар в Catalog Service: существует, активен, есть остаток
// 2. Снимает снапшот цен: unit_price = discounted_price на момент покупки
// 3. Сохраняет заказ с позициями одной транзакцией
// 4. Создает платеж в шлюзе и сохраняет PaymentTransaction
// 5. Отправляет событие ORDER_CREATED в Kafka
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *entity.CreateOrderRequest) (*entity.CreateOrderResponse, error) {
	var totalAmount, discountAmount float64
	orderID := uuid.New()
	orderItems := make([]entity.OrderItem, 0, len(req.Items))

	for _, itemReq := range req.Items {
		product, err := s.catalogClient.GetProduct(ctx, itemReq.ProductID)
		if err != nil {
			if errors.Is(err, infrahttp.ErrProductNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to get product from catalog: %w", err)
		}

		if product.Status != "active" {
			return nil, ErrProductUnavailable
		}
		if product.StockQuantity < itemReq.Quantity {
			return nil, ErrInsufficientStock
		}

		// Цена фиксируется на момент заказа, дальнейшие изменения
		// каталога на заказ не влияют
		orderItems = append(orderItems, entity.OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     itemReq.Quantity,
			UnitPrice:    product.DiscountedPrice,
			DurationDays: product.DurationDays,
		})

		totalAmount += product.OriginalPrice * float64(itemReq.Quantity)
		discountAmount += (product.OriginalPrice - product.DiscountedPrice) * float64(itemReq.Quantity)
	}

	order := &entity.Order{
		ID:             orderID,
		UserID:         userID,
		TotalAmount:    roundMoney(totalAmount),
		DiscountAmount: roundMoney(discountAmount),
		FinalAmount:    roundMoney(totalAmount - discountAmount),
		Currency:       "USD",
		Status:         entity.OrderStatusPending,
		CreatedAt:      time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order, orderItems); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	payment, err := s.createPayment(ctx, order, req.PayCurrency)
	if err != nil {
		// Заказ остается pending без платежа, оплатить его уже нельзя
		logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("Failed to create gateway payment")
		return nil, ErrPaymentGateway
	}

	metrics.OrdersCreated.Inc()
	metrics.OrdersAmount.Add(order.FinalAmount)

	s.publishOrderEvent(ctx, "ORDER_CREATED", order, orderItems)

	return &entity.CreateOrderResponse{
		Order:   entity.OrderWithItems{Order: *order, Items: orderItems},
		Payment: payment,
	}, nil
}

// createPayment регистрирует платеж в шлюзе и сохраняет локальную транзакцию
func (s *OrderService) createPayment(ctx context.Context, order *entity.Order, payCurrency string) (*entity.PaymentTransaction, error) {
	gatewayPayment, err := s.gatewayClient.CreatePayment(ctx, order.ID.String(), order.FinalAmount, payCurrency)
	if err != nil {
		return nil, fmt.Errorf("gateway create payment: %w", err)
	}

	payment := &entity.PaymentTransaction{
		ID:               uuid.New(),
		OrderID:          order.ID,
		GatewayPaymentID: gatewayPayment.PaymentID,
		PayAddress:       gatewayPayment.PayAddress,
		PayAmount:        gatewayPayment.PayAmount,
		PayCurrency:      gatewayPayment.PayCurrency,
		Status:           gatewayPayment.Status,
		CreatedAt:        time.Now(),
	}
	if payment.Status == "" {
		payment.Status = entity.PaymentStatusWaiting
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("save payment transaction: %w", err)
	}

	return payment, nil
}

// GetOrder получает заказ по ID с проверкой доступа
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*entity.OrderWithItems, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	return order, nil
}

// GetOrderPayment возвращает платеж по заказу с проверкой доступа
func (s *OrderService) GetOrderPayment(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*entity.PaymentTransaction, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// GetUserOrders получает все заказы пользователя
func (s *OrderService) GetUserOrders(ctx context.Context, userID uuid.UUID) ([]entity.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user orders: %w", err)
	}

	return orders, nil
}

// CancelOrder отменяет заказ владельца
// Отменить можно только неоплаченный или еще не выдаваемый заказ
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	return s.transitionOrder(ctx, order, entity.OrderStatusCancelled)
}

// UpdateOrderStatus переводит заказ в новый статус (административная операция)
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus entity.OrderStatus) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return s.transitionOrder(ctx, order, newStatus)
}

// HandlePaymentWebhook обрабатывает callback платежного шлюза
// Статус заказа и статус платежа связаны явными переходами:
//
//	confirmed        -> заказ confirmed (средства получены, можно выдавать)
//	finished         -> заказ completed
//	failed / expired -> заказ cancelled
//	waiting / confirming не меняют заказ
//
// Повторная доставка того же статуса игнорируется
func (s *OrderService) HandlePaymentWebhook(ctx context.Context, req *entity.PaymentWebhookRequest) error {
	payment, err := s.paymentRepo.GetByGatewayID(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.Status == req.PaymentStatus {
		return nil
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, req.PaymentStatus); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	metrics.PaymentsByStatus.WithLabelValues(string(req.PaymentStatus)).Inc()

	var targetStatus entity.OrderStatus
	switch req.PaymentStatus {
	case entity.PaymentStatusConfirmed:
		targetStatus = entity.OrderStatusConfirmed
	case entity.PaymentStatusFinished:
		targetStatus = entity.OrderStatusCompleted
	case entity.PaymentStatusFailed, entity.PaymentStatusExpired:
		targetStatus = entity.OrderStatusCancelled
	default:
		// waiting / confirming - промежуточные статусы сети
		return nil
	}

	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get order for payment: %w", err)
	}

	// finished может прийти без промежуточного confirmed,
	// тогда заказ проходит подтверждение и завершение подряд
	if targetStatus == entity.OrderStatusCompleted && order.Status == entity.OrderStatusPending {
		order, err = s.transitionOrder(ctx, order, entity.OrderStatusConfirmed)
		if err != nil {
			return err
		}
	}

	if _, err := s.transitionOrder(ctx, order, targetStatus); err != nil {
		if errors.Is(err, ErrInvalidOrderStatus) {
			// Заказ уже в финальном статусе, повторный webhook не ошибка
			logger.Warn().
				Str("order_id", order.ID.String()).
				Str("order_status", string(order.Status)).
				Str("payment_status", string(req.PaymentStatus)).
				Msg("Webhook ignored: order status transition not allowed")
			return nil
		}
		return err
	}

	return nil
}

// GetOrderStats возвращает агрегаты для дашборда каталога
// Выручка считается только по заказам completed/confirmed
func (s *OrderService) GetOrderStats(ctx context.Context, recentLimit int) (*entity.OrderStats, error) {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentOrdersLimit
	}

	total, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	revenue, err := s.orderRepo.RevenueSum(ctx, entity.RevenueStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	recent, err := s.orderRepo.Recent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}

	return &entity.OrderStats{
		TotalOrders:  total,
		TotalRevenue: revenue,
		RecentOrders: recent,
	}, nil
}

// transitionOrder проверяет допустимость перехода, сохраняет новый статус
// и отправляет событие: ORDER_PAID при подтверждении оплаты (его потребляет
// stock-worker для списания остатков), ORDER_STATUS_CHANGED для остальных
func (s *OrderService) transitionOrder(ctx context.Context, order *entity.Order, newStatus entity.OrderStatus) (*entity.Order, error) {
	if !isValidStatusTransition(order.Status, newStatus) {
		return nil, ErrInvalidOrderStatus
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, newStatus); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = newStatus

	eventType := "ORDER_STATUS_CHANGED"
	var eventItems []entity.OrderItem
	if newStatus == entity.OrderStatusConfirmed {
		eventType = "ORDER_PAID"
		if withItems, err := s.orderRepo.GetWithItems(ctx, order.ID); err == nil {
			eventItems = withItems.Items
		}
	}

	s.publishOrderEvent(ctx, eventType, order, eventItems)

	return order, nil
}

// publishOrderEvent отправляет событие заказа в Kafka
// Ошибки Kafka логируются, но не прерывают операцию
func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, order *entity.Order, items []entity.OrderItem) {
	event := entity.OrderEvent{
		EventType:   eventType,
		OrderID:     order.ID.String(),
		UserID:      order.UserID.String(),
		FinalAmount: order.FinalAmount,
		Status:      order.Status,
		Timestamp:   time.Now(),
	}

	for _, item := range items {
		event.Items = append(event.Items, entity.OrderEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to marshal order event")
		return
	}

	// Ключ = OrderID, события одного заказа попадают в одну партицию
	if err := s.kafkaProducer.PublishMessage(ctx, event.OrderID, eventData); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish order event")
	}
}

// isValidStatusTransition проверяет допустимость смены статуса заказа
func isValidStatusTransition(from, to entity.OrderStatus) bool {
	validTransitions := map[entity.OrderStatus][]entity.OrderStatus{
		entity.OrderStatusPending: {
			entity.OrderStatusConfirmed,
			entity.OrderStatusCancelled,
		},
		entity.OrderStatusConfirmed: {
			entity.OrderStatusProcessing,
			entity.OrderStatusCompleted,
			entity.OrderStatusCancelled,
		},
		entity.OrderStatusProcessing: {
			entity.OrderStatusCompleted,
		},
		entity.OrderStatusCompleted: {}, // Финальный статус
		entity.OrderStatusCancelled: {}, // Финальный статус
	}

	allowedStatuses, exists := validTransitions[from]
	if !exists {
		return false
	}

	for _, status := range allowedStatuses {
		if status == to {
			return true
		}
	}

	return false
}

// roundMoney округляет сумму до центов
func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
