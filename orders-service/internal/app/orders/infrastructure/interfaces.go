package infrastructure

import (
	"context"

	"subvault/orders-service/internal/app/orders/entity"
)

type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// CatalogServiceClient получает актуальные данные товаров при создании заказа
// Цена всегда берется из каталога, клиентская цена не принимается
type CatalogServiceClient interface {
	GetProduct(ctx context.Context, productID string) (*entity.CatalogProduct, error)
}

// PaymentGatewayClient создает платежи во внешнем платежном шлюзе
type PaymentGatewayClient interface {
	CreatePayment(ctx context.Context, orderID string, amount float64, payCurrency string) (*entity.GatewayPayment, error)
}
