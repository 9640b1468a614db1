package repository

import (
	"context"
	"errors"

	"subvault/catalog-service/internal/app/catalog/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrSlugExists      = errors.New("slug already exists")
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Product, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Product, error)
	List(ctx context.Context, filter *ProductFilter) ([]entity.Product, int64, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetFeatured(ctx context.Context, limit int) ([]entity.Product, error)
	GetBestsellers(ctx context.Context, limit int) ([]entity.Product, error)
	UpdateRating(ctx context.Context, id primitive.ObjectID, rating float64, totalReviews int) error
	Count(ctx context.Context) (int64, error)
	StockOverview(ctx context.Context, lowStockThreshold int) (*entity.StockOverview, error)
	LowStock(ctx context.Context, threshold int) ([]entity.LowStockProduct, error)
	MarkAllOutOfStock(ctx context.Context) (*entity.BulkStockResult, error)
	ResetAllStock(ctx context.Context, defaultStock int) (*entity.BulkStockResult, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Review, error)
	GetByProductID(ctx context.Context, productID primitive.ObjectID, approvedOnly bool, limit int) ([]entity.Review, error)
	SetApproval(ctx context.Context, id primitive.ObjectID, approved bool) (*entity.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AggregateRating(ctx context.Context, productID primitive.ObjectID) (*entity.RatingSummary, error)
}
