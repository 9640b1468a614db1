package infrastructure

import (
	"context"

	"subvault/catalog-service/internal/app/catalog/entity"
)

// OrdersStatsClient интерфейс клиента статистики Orders Service
// Используется агрегатором дашборда, в тестах подменяется моком
type OrdersStatsClient interface {
	GetOrderStats(ctx context.Context, recentLimit int) (*entity.OrderStats, error)
}

// UsersStatsClient интерфейс клиента статистики Auth Service
type UsersStatsClient interface {
	GetUserCount(ctx context.Context) (int64, error)
}
