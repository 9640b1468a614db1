package service

import (
	"context"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogServiceInterface interface {
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*entity.Product, error)
	GetProductBySlug(ctx context.Context, slug string, privileged bool) (*entity.Product, error)
	ListProducts(ctx context.Context, filter *repository.ProductFilter) ([]entity.Product, int64, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, req *entity.UpdateProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	GetFeatured(ctx context.Context, limit int) ([]entity.Product, error)
	GetBestsellers(ctx context.Context, limit int) ([]entity.Product, error)
	GetProductReviews(ctx context.Context, productID primitive.ObjectID, limit int) ([]entity.Review, error)
}

type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, userID string, req *entity.CreateReviewRequest) (*entity.Review, error)
	ApproveReview(ctx context.Context, id primitive.ObjectID) (*entity.Review, error)
	UnapproveReview(ctx context.Context, id primitive.ObjectID) (*entity.Review, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
	GetProductReviewsAdmin(ctx context.Context, productID primitive.ObjectID, limit int) ([]entity.Review, error)
}

type DashboardServiceInterface interface {
	StockOverview(ctx context.Context, lowStockThreshold int) (*entity.StockOverview, error)
	LowStockProducts(ctx context.Context, threshold int) ([]entity.LowStockProduct, error)
	BulkStockUpdate(ctx context.Context, action string, defaultStock int) (*entity.BulkStockResult, error)
	DashboardStats(ctx context.Context) (*entity.DashboardStats, error)
}
