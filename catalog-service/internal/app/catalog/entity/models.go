package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus представляет статус товара в каталоге
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"       // Доступен к покупке
	ProductStatusOutOfStock ProductStatus = "out_of_stock" // Закончился на складе
	ProductStatusInactive   ProductStatus = "inactive"     // Скрыт из витрины
)

// Product представляет товар каталога - подписку или аккаунт премиум-сервиса
type Product struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Slug             string             `json:"slug" bson:"slug"` // URL-идентификатор, уникальный
	Description      string             `json:"description" bson:"description"`
	ShortDescription string             `json:"short_description" bson:"short_description"`
	Category         string             `json:"category" bson:"category"`
	Subcategory      string             `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Keywords         []string           `json:"keywords,omitempty" bson:"keywords,omitempty"`

	// Цены: discount_percentage всегда выводится из двух цен, никогда не задается напрямую
	OriginalPrice      float64 `json:"original_price" bson:"original_price"`
	DiscountedPrice    float64 `json:"discounted_price" bson:"discounted_price"`
	DiscountPercentage int     `json:"discount_percentage" bson:"discount_percentage"`

	StockQuantity int           `json:"stock_quantity" bson:"stock_quantity"`
	Status        ProductStatus `json:"status" bson:"status"`

	// Витринные флаги, выставляются администратором независимо от продаж
	IsFeatured   bool `json:"is_featured" bson:"is_featured"`
	IsBestseller bool `json:"is_bestseller" bson:"is_bestseller"`

	// Агрегаты отзывов: пишутся только рейтинговым агрегатором
	Rating       float64 `json:"rating" bson:"rating"`
	TotalReviews int     `json:"total_reviews" bson:"total_reviews"`

	ImageURL     string `json:"image_url,omitempty" bson:"image_url,omitempty"`
	DurationDays int    `json:"duration_days,omitempty" bson:"duration_days,omitempty"` // Срок действия подписки

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Review представляет отзыв пользователя на товар
// В агрегаты рейтинга попадают только отзывы с is_approved == true
type Review struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID  primitive.ObjectID `json:"product_id" bson:"product_id"`
	UserID     string             `json:"user_id" bson:"user_id"` // UUID пользователя из Auth Service
	UserName   string             `json:"user_name" bson:"user_name"`
	Rating     int                `json:"rating" bson:"rating"` // Оценка от 1 до 5
	Title      string             `json:"title" bson:"title"`
	Text       string             `json:"text" bson:"text"`
	IsApproved bool               `json:"is_approved" bson:"is_approved"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// RatingSummary - результат пересчета рейтинга по одобренным отзывам
type RatingSummary struct {
	Rating       float64 `bson:"rating"`
	TotalReviews int     `bson:"total_reviews"`
}

// StockOverview - сводка по остаткам, считается одним проходом группировки
type StockOverview struct {
	TotalProducts int64 `json:"total_products" bson:"total_products"`
	InStock       int64 `json:"in_stock" bson:"in_stock"`
	OutOfStock    int64 `json:"out_of_stock" bson:"out_of_stock"`
	LowStock      int64 `json:"low_stock" bson:"low_stock"`
	TotalUnits    int64 `json:"total_units" bson:"total_units"`
}

// LowStockProduct - облегченная проекция товара для отчета о пополнении
type LowStockProduct struct {
	ID              primitive.ObjectID `json:"id" bson:"_id"`
	Name            string             `json:"name" bson:"name"`
	Slug            string             `json:"slug" bson:"slug"`
	StockQuantity   int                `json:"stock_quantity" bson:"stock_quantity"`
	Category        string             `json:"category" bson:"category"`
	DiscountedPrice float64            `json:"discounted_price" bson:"discounted_price"`
	ImageURL        string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

// BulkStockResult - результат массового обновления остатков
// ModifiedCount - сколько документов реально изменено, не сколько затронуто фильтром
type BulkStockResult struct {
	MatchedCount  int64 `json:"matched_count"`
	ModifiedCount int64 `json:"modified_count"`
}

// OrderStats - статистика заказов из Orders Service для дашборда
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

// DashboardStats - сводный дашборд администратора
type DashboardStats struct {
	TotalProducts int64         `json:"total_products"`
	TotalOrders   int64         `json:"total_orders"`
	TotalUsers    int64         `json:"total_users"`
	TotalRevenue  float64       `json:"total_revenue"`
	RecentOrders  []RecentOrder `json:"recent_orders"`
}

// ProductEvent представляет событие изменения товара для Kafka
type ProductEvent struct {
	EventType string    `json:"event_type"` // PRODUCT_CREATED, PRODUCT_UPDATED, PRODUCT_DELETED
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// ReviewEvent представляет событие одобрения отзыва для Kafka
type ReviewEvent struct {
	EventType string    `json:"event_type"` // REVIEW_APPROVED
	ReviewID  string    `json:"review_id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
