package service

import (
	"context"
	"errors"
	"fmt"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/infrastructure"
	"subvault/catalog-service/internal/app/catalog/repository"
	"subvault/pkg/metrics"
)

var (
	ErrInvalidBulkAction = errors.New("unknown bulk stock action")
)

const (
	// Остаток, ниже которого товар попадает в отчет о пополнении
	DefaultLowStockThreshold = 10
	// Сколько последних заказов показывает дашборд
	recentOrdersLimit = 5
)

// Массовые операции над остатками
const (
	BulkActionMarkOutOfStock = "mark_out_of_stock"
	BulkActionResetStock     = "reset_stock"
)

// DashboardService считает операционные сводки по каталогу и заказам
// Кросс-сервисные данные (заказы, пользователи) берутся через внутренние
// HTTP endpoints, в чужие базы сервис не ходит
type DashboardService struct {
	productRepo repository.ProductRepository
	ordersStats infrastructure.OrdersStatsClient
	usersStats  infrastructure.UsersStatsClient
}

// NewDashboardService создает новый сервис дашборда с внедрением зависимостей
func NewDashboardService(
	productRepo repository.ProductRepository,
	ordersStats infrastructure.OrdersStatsClient,
	usersStats infrastructure.UsersStatsClient,
) *DashboardService {
	return &DashboardService{
		productRepo: productRepo,
		ordersStats: ordersStats,
		usersStats:  usersStats,
	}
}

// StockOverview возвращает сводку остатков, одна группировка по каталогу
func (s *DashboardService) StockOverview(ctx context.Context, lowStockThreshold int) (*entity.StockOverview, error) {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}

	overview, err := s.productRepo.StockOverview(ctx, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock overview: %w", err)
	}

	return overview, nil
}

// LowStockProducts возвращает товары с остатком 0 < qty <= threshold
func (s *DashboardService) LowStockProducts(ctx context.Context, threshold int) ([]entity.LowStockProduct, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	products, err := s.productRepo.LowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}

	return products, nil
}

// BulkStockUpdate выполняет массовую операцию над остатками
// Возвращает фактическое число измененных документов
// Операция не атомарна между документами и может примениться частично
func (s *DashboardService) BulkStockUpdate(ctx context.Context, action string, defaultStock int) (*entity.BulkStockResult, error) {
	var result *entity.BulkStockResult
	var err error

	switch action {
	case BulkActionMarkOutOfStock:
		result, err = s.productRepo.MarkAllOutOfStock(ctx)
	case BulkActionResetStock:
		if defaultStock <= 0 {
			defaultStock = DefaultStockQuantity
		}
		result, err = s.productRepo.ResetAllStock(ctx, defaultStock)
	default:
		return nil, ErrInvalidBulkAction
	}

	if err != nil {
		return nil, fmt.Errorf("failed to bulk update stock: %w", err)
	}

	metrics.CatalogBulkStockUpdates.WithLabelValues(action).Inc()

	return result, nil
}

// DashboardStats собирает сводный дашборд: каталог, заказы, пользователи
// Выручка считается Orders Service только по заказам completed/confirmed
func (s *DashboardService) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	totalProducts, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	orderStats, err := s.ordersStats.GetOrderStats(ctx, recentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}

	totalUsers, err := s.usersStats.GetUserCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user count: %w", err)
	}

	return &entity.DashboardStats{
		TotalProducts: totalProducts,
		TotalOrders:   orderStats.TotalOrders,
		TotalUsers:    totalUsers,
		TotalRevenue:  orderStats.TotalRevenue,
		RecentOrders:  orderStats.RecentOrders,
	}, nil
}
