package entity

import "time"

// ProductStatus дублирует статусы каталога: воркер пишет напрямую
// в коллекцию products Catalog Service
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
	ProductStatusInactive   ProductStatus = "inactive"
)

const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderPaid          = "ORDER_PAID"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// OrderEvent - событие из топика order_events, формат задает Orders Service
type OrderEvent struct {
	EventType   string           `json:"event_type"`
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	FinalAmount float64          `json:"final_amount"`
	Status      string           `json:"status"`
	Items       []OrderEventItem `json:"items,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// OrderEventItem - позиция заказа в событии. ProductID - hex ObjectID каталога
type OrderEventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ReconciliationResult - итог одного прогона сверки остатков и статусов
type ReconciliationResult struct {
	Depleted  int64 // Товары с нулевым остатком, переведенные в out_of_stock
	Restocked int64 // Товары с положительным остатком, возвращенные в active
	RunAt     time.Time
}
