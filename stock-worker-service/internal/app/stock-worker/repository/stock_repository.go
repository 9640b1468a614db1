package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subvault/pkg/metrics"
	"subvault/stock-worker-service/internal/app/stock-worker/entity"
)

type stockRepository struct {
	collection *mongo.Collection
}

// NewStockRepository создает репозиторий поверх коллекции products каталога
func NewStockRepository(db *mongo.Database) StockRepository {
	return &stockRepository{collection: db.Collection("products")}
}

func (r *stockRepository) DecrementStock(ctx context.Context, productID primitive.ObjectID, quantity int) (int, error) {
	timer := metrics.NewDbTimer("stock-worker-service", metrics.DbOpUpdate, "products")
	defer timer.ObserveDuration()

	after := options.After

	// Списываем только если остатка хватает: stock_quantity ниже нуля не опускается
	var updated struct {
		StockQuantity int `bson:"stock_quantity"`
	}
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": productID, "stock_quantity": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"stock_quantity": -quantity},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&updated)

	if err == nil {
		return updated.StockQuantity, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	// Остатка меньше запрошенного - обнуляем и сразу гасим статус
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{
			"stock_quantity": 0,
			"status":         entity.ProductStatusOutOfStock,
			"updated_at":     time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&updated)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deplete stock: %w", err)
	}

	return updated.StockQuantity, nil
}

func (r *stockRepository) MarkOutOfStock(ctx context.Context, productID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":            productID,
			"stock_quantity": bson.M{"$lte": 0},
			"status":         entity.ProductStatusActive,
		},
		bson.M{"$set": bson.M{
			"status":     entity.ProductStatusOutOfStock,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark product out of stock: %w", err)
	}
	return nil
}

func (r *stockRepository) ReconcileDepleted(ctx context.Context) (int64, error) {
	timer := metrics.NewDbTimer("stock-worker-service", metrics.DbOpUpdate, "products")
	defer timer.ObserveDuration()

	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"stock_quantity": bson.M{"$lte": 0},
			"status":         entity.ProductStatusActive,
		},
		bson.M{"$set": bson.M{
			"stock_quantity": 0,
			"status":         entity.ProductStatusOutOfStock,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile depleted products: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *stockRepository) ReconcileRestocked(ctx context.Context) (int64, error) {
	timer := metrics.NewDbTimer("stock-worker-service", metrics.DbOpUpdate, "products")
	defer timer.ObserveDuration()

	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"stock_quantity": bson.M{"$gt": 0},
			"status":         entity.ProductStatusOutOfStock,
		},
		bson.M{"$set": bson.M{
			"status":     entity.ProductStatusActive,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile restocked products: %w", err)
	}

	return result.ModifiedCount, nil
}
