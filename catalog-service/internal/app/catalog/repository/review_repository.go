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

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов
// Создает индекс по product_id + is_approved под выборки агрегатора
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "product_id", Value: 1},
			{Key: "is_approved", Value: 1},
		},
		Options: options.Index().SetName("product_approved_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Индекс может уже существовать, работу не прерываем
		fmt.Printf("Warning: failed to create index on reviews: %v\n", err)
	}

	return &reviewRepository{collection: collection}
}

// Create создает новый отзыв в MongoDB
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpInsert, "reviews")
	defer timer.ObserveDuration()

	review.CreatedAt = time.Now()
	review.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Review, error) {
	var review entity.Review
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// GetByProductID получает отзывы товара, новые первыми
// approvedOnly ограничивает выборку одобренными отзывами (публичная витрина)
func (r *reviewRepository) GetByProductID(ctx context.Context, productID primitive.ObjectID, approvedOnly bool, limit int) ([]entity.Review, error) {
	filter := bson.M{"product_id": productID}
	if approvedOnly {
		filter["is_approved"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]entity.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// SetApproval переключает флаг модерации и возвращает обновленный отзыв
func (r *reviewRepository) SetApproval(ctx context.Context, id primitive.ObjectID, approved bool) (*entity.Review, error) {
	update := bson.M{
		"$set": bson.M{
			"is_approved": approved,
			"updated_at":  time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var review entity.Review
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to set review approval: %w", err)
	}

	return &review, nil
}

// Delete удаляет отзыв из MongoDB
func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// AggregateRating считает средний рейтинг и число одобренных отзывов товара
// Ноль одобренных отзывов - корректный нулевой результат, не ошибка
func (r *reviewRepository) AggregateRating(ctx context.Context, productID primitive.ObjectID) (*entity.RatingSummary, error) {
	timer := metrics.NewDbTimer("catalog-service", metrics.DbOpAggregate, "reviews")
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"product_id":  productID,
			"is_approved": true,
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"rating":        bson.M{"$avg": "$rating"},
			"total_reviews": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rating: %w", err)
	}
	defer cursor.Close(ctx)

	var results []entity.RatingSummary
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode rating summary: %w", err)
	}

	if len(results) == 0 {
		return &entity.RatingSummary{}, nil
	}

	return &results[0], nil
}
