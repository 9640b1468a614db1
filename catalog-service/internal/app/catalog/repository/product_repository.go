package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productRepository struct {
	collection *mongo.Collection
}

// NewProductRepository создает новый репозиторий товаров
// Создает уникальный индекс по slug и индексы под фильтры каталога
func NewProductRepository(db *mongo.Database) ProductRepository {
	collection := db.Collection("products")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			// Уникальность slug обеспечивается на уровне хранилища,
			// конфликт поднимается как ErrSlugExists
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("category_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "stock_quantity", Value: 1}},
			Options: options.Index().SetName("stock_idx"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Индексы могут уже существовать, работу не прерываем
		fmt.Printf("Warning: failed to create product indexes: %v\n", err)
	}

	return &productRepository{collection: collection}
}

// Create создает новый товар в MongoDB
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpInsert, "products")
	defer timer.ObserveDuration()

	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid
	}

	return nil
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Product, error) {
	var product entity.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// GetBySlug получает товар по slug
// Фильтрацию по статусу для непривилегированных вызовов делает service layer
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	var product entity.Product
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by slug: %w", err)
	}

	return &product, nil
}

// List возвращает страницу каталога и общее число совпадений
// Подсчет и выборка страницы используют один и тот же предикат filter.Query(),
// страница отличается только сортировкой, skip и limit
func (r *productRepository) List(ctx context.Context, filter *ProductFilter) ([]entity.Product, int64, error) {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpFind, "products")
	defer timer.ObserveDuration()

	filter.Normalize()
	query := filter.Query()

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, filter.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]entity.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, total, nil
}

// Update перезаписывает изменяемые поля товара одним $set
// Остаток и статус пишутся одной операцией и остаются согласованными
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpUpdate, "products")
	defer timer.ObserveDuration()

	product.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":                product.Name,
			"description":         product.Description,
			"short_description":   product.ShortDescription,
			"category":            product.Category,
			"subcategory":         product.Subcategory,
			"keywords":            product.Keywords,
			"original_price":      product.OriginalPrice,
			"discounted_price":    product.DiscountedPrice,
			"discount_percentage": product.DiscountPercentage,
			"stock_quantity":      product.StockQuantity,
			"status":              product.Status,
			"is_featured":         product.IsFeatured,
			"is_bestseller":       product.IsBestseller,
			"image_url":           product.ImageURL,
			"duration_days":       product.DurationDays,
			"updated_at":          product.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete удаляет товар без tombstone, операция необратима
func (r *productRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpDelete, "products")
	defer timer.ObserveDuration()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}

// GetFeatured получает активные товары с флагом is_featured
func (r *productRepository) GetFeatured(ctx context.Context, limit int) ([]entity.Product, error) {
	return r.findByFlag(ctx, "is_featured", limit)
}

// GetBestsellers получает активные товары с флагом is_bestseller
func (r *productRepository) GetBestsellers(ctx context.Context, limit int) ([]entity.Product, error) {
	return r.findByFlag(ctx, "is_bestseller", limit)
}

func (r *productRepository) findByFlag(ctx context.Context, flag string, limit int) ([]entity.Product, error) {
	filter := bson.M{flag: true, "status": entity.ProductStatusActive}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by %s: %w", flag, err)
	}
	defer cursor.Close(ctx)

	products := make([]entity.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, nil
}

// UpdateRating записывает агрегаты рейтинга одной операцией
// Эти поля принадлежат рейтинговому агрегатору и больше нигде не пишутся
func (r *productRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, rating float64, totalReviews int) error {
	update := bson.M{
		"$set": bson.M{
			"rating":        rating,
			"total_reviews": totalReviews,
			"updated_at":    time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Count возвращает общее число товаров в каталоге
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// StockOverview считает сводку по остаткам одним проходом $group
func (r *productRepository) StockOverview(ctx context.Context, lowStockThreshold int) (*entity.StockOverview, error) {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpAggregate, "products")
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total_products": bson.M{"$sum": 1},
			"in_stock": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$gt": bson.A{"$stock_quantity", 0}}, 1, 0},
			}},
			"out_of_stock": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$stock_quantity", 0}}, 1, 0},
			}},
			"low_stock": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$and": bson.A{
					bson.M{"$gt": bson.A{"$stock_quantity", 0}},
					bson.M{"$lte": bson.A{"$stock_quantity", lowStockThreshold}},
				}}, 1, 0},
			}},
			"total_units": bson.M{"$sum": "$stock_quantity"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stock overview: %w", err)
	}
	defer cursor.Close(ctx)

	var results []entity.StockOverview
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode stock overview: %w", err)
	}

	// Пустой каталог - корректная нулевая сводка, не ошибка
	if len(results) == 0 {
		return &entity.StockOverview{}, nil
	}

	return &results[0], nil
}

// LowStock возвращает товары с остатком 0 < qty <= threshold
// Проекция минимальная, чтобы отчет оставался легковесным
func (r *productRepository) LowStock(ctx context.Context, threshold int) ([]entity.LowStockProduct, error) {
	filter := bson.M{
		"stock_quantity": bson.M{"$gt": 0, "$lte": threshold},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "stock_quantity", Value: 1}}).
		SetProjection(bson.M{
			"_id":              1,
			"name":             1,
			"slug":             1,
			"stock_quantity":   1,
			"category":         1,
			"discounted_price": 1,
			"image_url":        1,
		})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find low stock products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]entity.LowStockProduct, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode low stock products: %w", err)
	}

	return products, nil
}

// MarkAllOutOfStock обнуляет остатки всего каталога
// UpdateMany не атомарен между документами, при прерывании применится частично
func (r *productRepository) MarkAllOutOfStock(ctx context.Context) (*entity.BulkStockResult, error) {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpUpdate, "products")
	defer timer.ObserveDuration()

	update := bson.M{
		"$set": bson.M{
			"stock_quantity": 0,
			"status":         entity.ProductStatusOutOfStock,
			"updated_at":     time.Now(),
		},
	}

	result, err := r.collection.UpdateMany(ctx, bson.M{}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to mark all out of stock: %w", err)
	}

	return &entity.BulkStockResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}

// ResetAllStock выставляет всем товарам заданный остаток и статус active
func (r *productRepository) ResetAllStock(ctx context.Context, defaultStock int) (*entity.BulkStockResult, error) {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpUpdate, "products")
	defer timer.ObserveDuration()

	update := bson.M{
		"$set": bson.M{
			"stock_quantity": defaultStock,
			"status":         entity.ProductStatusActive,
			"updated_at":     time.Now(),
		},
	}

	result, err := r.collection.UpdateMany(ctx, bson.M{}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to reset all stock: %w", err)
	}

	return &entity.BulkStockResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}
