package entity

import (
	"time"

	"github.com/google/uuid"
)

// Order представляет заказ на подписку
type Order struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"` // ID пользователя из Auth Service
	TotalAmount    float64     `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	DiscountAmount float64     `json:"discount_amount" gorm:"type:decimal(10,2);not null;default:0"`
	FinalAmount    float64     `json:"final_amount" gorm:"type:decimal(10,2);not null"` // Сумма к оплате = total - discount
	Currency       string      `json:"currency" gorm:"type:varchar(10);not null;default:'USD'"`
	Status         OrderStatus `json:"status" gorm:"type:varchar(50);not null;default:'pending';index"`
	CreatedAt      time.Time   `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
	Items          []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Order) TableName() string {
	return "orders"
}

// OrderStatus представляет статусы заказа
// confirmed - оплата от шлюза получена, заказ считается выручкой
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Ожидает оплаты
	OrderStatusConfirmed  OrderStatus = "confirmed"  // Оплата подтверждена
	OrderStatusProcessing OrderStatus = "processing" // Выдача учетных данных
	OrderStatusCompleted  OrderStatus = "completed"  // Выполнен
	OrderStatusCancelled  OrderStatus = "cancelled"  // Отменен
)

// RevenueStatuses - статусы, попадающие в сумму выручки дашборда
var RevenueStatuses = []OrderStatus{OrderStatusCompleted, OrderStatusConfirmed}

// OrderItem представляет позицию заказа
// UnitPrice - цена каталога на момент покупки, последующие изменения
// каталога на заказ не влияют
type OrderItem struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID    string    `json:"product_id" gorm:"type:varchar(24);not null"` // ID товара в Catalog Service
	ProductName  string    `json:"product_name" gorm:"type:varchar(200);not null"`
	Quantity     int       `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice    float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	DurationDays int       `json:"duration_days" gorm:"not null;default:0"`
}

// TableName указывает имя таблицы для GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderWithItems содержит заказ с полным списком позиций
type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

// PaymentStatus представляет статусы платежа в шлюзе
type PaymentStatus string

const (
	PaymentStatusWaiting    PaymentStatus = "waiting"    // Ожидает перевода
	PaymentStatusConfirming PaymentStatus = "confirming" // Транзакция в сети
	PaymentStatusConfirmed  PaymentStatus = "confirmed"  // Средства получены
	PaymentStatusFinished   PaymentStatus = "finished"   // Платеж завершен
	PaymentStatusFailed     PaymentStatus = "failed"     // Платеж не прошел
	PaymentStatusExpired    PaymentStatus = "expired"    // Срок оплаты истек
)

// PaymentTransaction представляет платеж по заказу
type PaymentTransaction struct {
	ID               uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID     `json:"order_id" gorm:"type:uuid;not null;index"`
	GatewayPaymentID string        `json:"gateway_payment_id" gorm:"type:varchar(100);not null;uniqueIndex"`
	PayAddress       string        `json:"pay_address" gorm:"type:varchar(200)"`
	PayAmount        float64       `json:"pay_amount" gorm:"type:decimal(18,8);not null"`
	PayCurrency      string        `json:"pay_currency" gorm:"type:varchar(10);not null"`
	Status           PaymentStatus `json:"status" gorm:"type:varchar(50);not null;default:'waiting'"`
	CreatedAt        time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// OrderEvent представляет событие заказа для Kafka
// ORDER_PAID потребляет stock-worker для списания остатков каталога
type OrderEvent struct {
	EventType   string           `json:"event_type"` // ORDER_CREATED, ORDER_PAID, ORDER_STATUS_CHANGED
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	FinalAmount float64          `json:"final_amount"`
	Status      OrderStatus      `json:"status"`
	Items       []OrderEventItem `json:"items,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// OrderEventItem - позиция заказа в событии, достаточная для списания остатка
type OrderEventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CatalogProduct представляет товар из Catalog Service
type CatalogProduct struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountedPrice float64 `json:"discounted_price"`
	StockQuantity   int     `json:"stock_quantity"`
	Status          string  `json:"status"`
	DurationDays    int     `json:"duration_days"`
}

// GatewayPayment представляет платеж, созданный в платежном шлюзе
type GatewayPayment struct {
	PaymentID   string        `json:"payment_id"`
	PayAddress  string        `json:"pay_address"`
	PayAmount   float64       `json:"pay_amount"`
	PayCurrency string        `json:"pay_currency"`
	Status      PaymentStatus `json:"payment_status"`
}

// OrderStats - агрегаты для дашборда Catalog Service
// Выручка считается только по заказам confirmed/completed
type OrderStats struct {
	TotalOrders  int64         `json:"total_orders"`
	TotalRevenue float64       `json:"total_revenue"`
	RecentOrders []RecentOrder `json:"recent_orders"`
}

// RecentOrder - краткая сводка заказа для дашборда
type RecentOrder struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FinalAmount float64   `json:"final_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
