package util

import (
	"context"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
)

// ListCache интерфейс кеша подборок товаров (featured, bestsellers)
// Используется для dependency injection и упрощения тестирования
type ListCache interface {
	GetList(ctx context.Context, key string) ([]entity.Product, error)
	SetList(ctx context.Context, key string, products []entity.Product, ttl time.Duration) error
	InvalidateLists(ctx context.Context) error
	Close() error
}

// MessagePublisher интерфейс для отправки событий в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
