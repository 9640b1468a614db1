package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// StockRepository - прямой доступ к коллекции products Catalog Service
type StockRepository interface {
	// DecrementStock атомарно списывает quantity единиц и возвращает остаток.
	// Если остатка не хватает, обнуляет stock_quantity (ниже нуля не уходим).
	DecrementStock(ctx context.Context, productID primitive.ObjectID, quantity int) (int, error)

	// MarkOutOfStock переводит товар в out_of_stock, если остаток исчерпан
	MarkOutOfStock(ctx context.Context, productID primitive.ObjectID) error

	// ReconcileDepleted переводит в out_of_stock все активные товары с нулевым
	// остатком, возвращает число измененных документов
	ReconcileDepleted(ctx context.Context) (int64, error)

	// ReconcileRestocked возвращает в active все out_of_stock товары с
	// положительным остатком, возвращает число измененных документов
	ReconcileRestocked(ctx context.Context) (int64, error)
}
