package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/repository"
	"subvault/catalog-service/internal/app/catalog/repository/mocks"
	"subvault/catalog-service/internal/app/catalog/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func newCatalogServiceForTest() (*CatalogService, *mocks.MockProductRepository, *mocks.MockReviewRepository, *mocks.MockListCache, *mocks.MockMessagePublisher) {
	productRepo := new(mocks.MockProductRepository)
	reviewRepo := new(mocks.MockReviewRepository)
	listCache := new(mocks.MockListCache)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	svc := NewCatalogService(productRepo, reviewRepo, listCache, kafkaProducer)
	return svc, productRepo, reviewRepo, listCache, kafkaProducer
}

func TestCreateProduct_Success(t *testing.T) {
	svc, productRepo, _, listCache, kafkaProducer := newCatalogServiceForTest()

	ctx := context.Background()
	req := &entity.CreateProductRequest{
		Name:            "Netflix Premium 4K",
		Category:        "streaming",
		OriginalPrice:   1000,
		DiscountedPrice: 750,
	}

	productRepo.On("Create", ctx, mock.AnythingOfType("*entity.Product")).Return(nil).Run(func(args mock.Arguments) {
		product := args.Get(1).(*entity.Product)
		product.ID = primitive.NewObjectID()
	})
	listCache.On("InvalidateLists", ctx).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	product, err := svc.CreateProduct(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, "netflix-premium-4k", product.Slug)
	assert.Equal(t, 25, product.DiscountPercentage)
	assert.Equal(t, DefaultStockQuantity, product.StockQuantity)
	assert.Equal(t, entity.ProductStatusActive, product.Status)
	productRepo.AssertExpectations(t)
}

func TestCreateProduct_ZeroStockIsOutOfStock(t *testing.T) {
	svc, productRepo, _, listCache, kafkaProducer := newCatalogServiceForTest()

	ctx := context.Background()
	req := &entity.CreateProductRequest{
		Name:            "Spotify Family",
		OriginalPrice:   500,
		DiscountedPrice: 400,
		StockQuantity:   intPtr(0),
	}

	productRepo.On("Create", ctx, mock.Anything).Return(nil)
	listCache.On("InvalidateLists", ctx).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	product, err := svc.CreateProduct(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, 0, product.StockQuantity)
	assert.Equal(t, entity.ProductStatusOutOfStock, product.Status)
}

func TestCreateProduct_InvalidPrices(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	req := &entity.CreateProductRequest{
		Name:            "Bad Deal",
		OriginalPrice:   100,
		DiscountedPrice: 150,
	}

	product, err := svc.CreateProduct(ctx, req)

	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Nil(t, product)
	productRepo.AssertNotCalled(t, "Create")
}

func TestCreateProduct_SlugConflict(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	req := &entity.CreateProductRequest{
		Name:            "Netflix Premium",
		OriginalPrice:   1000,
		DiscountedPrice: 900,
	}

	productRepo.On("Create", ctx, mock.Anything).Return(repository.ErrSlugExists)

	product, err := svc.CreateProduct(ctx, req)

	assert.ErrorIs(t, err, ErrSlugConflict)
	assert.Nil(t, product)
}

func TestCreateProduct_SideEffectErrorsIgnored(t *testing.T) {
	svc, productRepo, _, listCache, kafkaProducer := newCatalogServiceForTest()

	ctx := context.Background()
	req := &entity.CreateProductRequest{
		Name:            "Disney Plus",
		OriginalPrice:   600,
		DiscountedPrice: 450,
	}

	productRepo.On("Create", ctx, mock.Anything).Return(nil)
	listCache.On("InvalidateLists", ctx).Return(errors.New("redis down"))
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	product, err := svc.CreateProduct(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, product)
}

func TestGetProductBySlug_HidesInactiveFromPublic(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	product := &entity.Product{
		ID:     primitive.NewObjectID(),
		Slug:   "hidden-offer",
		Status: entity.ProductStatusInactive,
	}

	productRepo.On("GetBySlug", ctx, "hidden-offer").Return(product, nil)

	result, err := svc.GetProductBySlug(ctx, "hidden-offer", false)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, result)
}

func TestGetProductBySlug_PrivilegedSeesInactive(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	product := &entity.Product{
		ID:     primitive.NewObjectID(),
		Slug:   "hidden-offer",
		Status: entity.ProductStatusInactive,
	}

	productRepo.On("GetBySlug", ctx, "hidden-offer").Return(product, nil)

	result, err := svc.GetProductBySlug(ctx, "hidden-offer", true)

	assert.NoError(t, err)
	assert.Equal(t, product, result)
}

func TestGetProductBySlug_OutOfStockVisibleToPublic(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	product := &entity.Product{
		ID:     primitive.NewObjectID(),
		Slug:   "sold-out",
		Status: entity.ProductStatusOutOfStock,
	}

	productRepo.On("GetBySlug", ctx, "sold-out").Return(product, nil)

	result, err := svc.GetProductBySlug(ctx, "sold-out", false)

	assert.NoError(t, err)
	assert.Equal(t, product, result)
}

func TestListProducts_Success(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	filter := &repository.ProductFilter{Category: "streaming", Page: 1, PerPage: 20}
	products := []entity.Product{
		{ID: primitive.NewObjectID(), Name: "Netflix"},
		{ID: primitive.NewObjectID(), Name: "Hulu"},
	}

	productRepo.On("List", ctx, filter).Return(products, int64(42), nil)

	result, total, err := svc.ListProducts(ctx, filter)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, int64(42), total)
}

func TestUpdateProduct_PriceChangeRecomputesDiscount(t *testing.T) {
	svc, productRepo, _, listCache, kafkaProducer := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()
	existing := &entity.Product{
		ID:                 id,
		Name:               "Netflix Premium",
		OriginalPrice:      1000,
		DiscountedPrice:    750,
		DiscountPercentage: 25,
		StockQuantity:      50,
		Status:             entity.ProductStatusActive,
	}

	productRepo.On("GetByID", ctx, id).Return(existing, nil)
	productRepo.On("Update", ctx, mock.AnythingOfType("*entity.Product")).Return(nil)
	listCache.On("InvalidateLists", ctx).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.UpdateProduct(ctx, id, &entity.UpdateProductRequest{
		DiscountedPrice: floatPtr(500),
	})

	assert.NoError(t, err)
	assert.Equal(t, 500.0, result.DiscountedPrice)
	assert.Equal(t, 50, result.DiscountPercentage)
	// Изменение цены публикуется как событие
	kafkaProducer.AssertCalled(t, "PublishMessage", ctx, mock.Anything, mock.Anything)
}

func TestUpdateProduct_InvalidPriceCombinationRejected(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()
	existing := &entity.Product{
		ID:              id,
		OriginalPrice:   1000,
		DiscountedPrice: 750,
	}

	productRepo.On("GetByID", ctx, id).Return(existing, nil)

	result, err := svc.UpdateProduct(ctx, id, &entity.UpdateProductRequest{
		DiscountedPrice: floatPtr(1500),
	})

	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Nil(t, result)
	productRepo.AssertNotCalled(t, "Update")
}

func TestUpdateProduct_StockZeroFlipsStatus(t *testing.T) {
	svc, productRepo, _, listCache, _ := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()
	existing := &entity.Product{
		ID:              id,
		OriginalPrice:   500,
		DiscountedPrice: 400,
		StockQuantity:   10,
		Status:          entity.ProductStatusActive,
	}

	productRepo.On("GetByID", ctx, id).Return(existing, nil)
	productRepo.On("Update", ctx, mock.Anything).Return(nil)
	listCache.On("InvalidateLists", ctx).Return(nil)

	result, err := svc.UpdateProduct(ctx, id, &entity.UpdateProductRequest{
		StockQuantity: intPtr(0),
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.ProductStatusOutOfStock, result.Status)
}

func TestUpdateProduct_RestockReactivates(t *testing.T) {
	svc, productRepo, _, listCache, _ := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()
	existing := &entity.Product{
		ID:              id,
		OriginalPrice:   500,
		DiscountedPrice: 400,
		StockQuantity:   0,
		Status:          entity.ProductStatusOutOfStock,
	}

	productRepo.On("GetByID", ctx, id).Return(existing, nil)
	productRepo.On("Update", ctx, mock.Anything).Return(nil)
	listCache.On("InvalidateLists", ctx).Return(nil)

	result, err := svc.UpdateProduct(ctx, id, &entity.UpdateProductRequest{
		StockQuantity: intPtr(30),
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.ProductStatusActive, result.Status)
	assert.Equal(t, 30, result.StockQuantity)
}

func TestUpdateProduct_ExplicitStatusWins(t *testing.T) {
	svc, productRepo, _, listCache, _ := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()
	existing := &entity.Product{
		ID:              id,
		OriginalPrice:   500,
		DiscountedPrice: 400,
		StockQuantity:   0,
		Status:          entity.ProductStatusOutOfStock,
	}
	inactive := entity.ProductStatusInactive

	productRepo.On("GetByID", ctx, id).Return(existing, nil)
	productRepo.On("Update", ctx, mock.Anything).Return(nil)
	listCache.On("InvalidateLists", ctx).Return(nil)

	result, err := svc.UpdateProduct(ctx, id, &entity.UpdateProductRequest{
		StockQuantity: intPtr(30),
		Status:        &inactive,
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.ProductStatusInactive, result.Status)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	svc, productRepo, _, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()

	productRepo.On("GetByID", ctx, id).Return(nil, repository.ErrProductNotFound)

	result, err := svc.UpdateProduct(ctx, id, &entity.UpdateProductRequest{Name: strPtr("New Name")})

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, result)
}

func TestDeleteProduct_Success(t *testing.T) {
	svc, productRepo, _, listCache, kafkaProducer := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()
	product := &entity.Product{ID: id, Name: "Old Offer"}

	productRepo.On("GetByID", ctx, id).Return(product, nil)
	productRepo.On("Delete", ctx, id).Return(nil)
	listCache.On("InvalidateLists", ctx).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(nil)

	err := svc.DeleteProduct(ctx, id)

	assert.NoError(t, err)
	productRepo.AssertExpectations(t)
}

func TestGetFeatured_CacheHit(t *testing.T) {
	svc, productRepo, _, listCache, _ := newCatalogServiceForTest()

	ctx := context.Background()
	cached := []entity.Product{
		{ID: primitive.NewObjectID(), Name: "Netflix"},
		{ID: primitive.NewObjectID(), Name: "Spotify"},
		{ID: primitive.NewObjectID(), Name: "Disney"},
	}

	listCache.On("GetList", ctx, util.FeaturedCacheKey).Return(cached, nil)

	result, err := svc.GetFeatured(ctx, 2)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	productRepo.AssertNotCalled(t, "GetFeatured")
}

func TestGetFeatured_CacheMissFallsThrough(t *testing.T) {
	svc, productRepo, _, listCache, _ := newCatalogServiceForTest()

	ctx := context.Background()
	products := []entity.Product{{ID: primitive.NewObjectID(), Name: "Netflix"}}

	listCache.On("GetList", ctx, util.FeaturedCacheKey).Return(nil, nil)
	productRepo.On("GetFeatured", ctx, collectionCacheSize).Return(products, nil)
	listCache.On("SetList", ctx, util.FeaturedCacheKey, products, listCacheTTL).Return(nil)

	result, err := svc.GetFeatured(ctx, 0)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	listCache.AssertExpectations(t)
}

// inMemoryListCache хранит подборки как настоящий кеш, в отличие от mock
type inMemoryListCache struct {
	lists map[string][]entity.Product
}

func newInMemoryListCache() *inMemoryListCache {
	return &inMemoryListCache{lists: make(map[string][]entity.Product)}
}

func (c *inMemoryListCache) GetList(ctx context.Context, key string) ([]entity.Product, error) {
	return c.lists[key], nil
}

func (c *inMemoryListCache) SetList(ctx context.Context, key string, products []entity.Product, ttl time.Duration) error {
	c.lists[key] = products
	return nil
}

func (c *inMemoryListCache) InvalidateLists(ctx context.Context) error {
	c.lists = make(map[string][]entity.Product)
	return nil
}

func (c *inMemoryListCache) Close() error { return nil }

func TestGetFeatured_SmallLimitDoesNotPoisonCache(t *testing.T) {
	// Arrange
	productRepo := new(mocks.MockProductRepository)
	reviewRepo := new(mocks.MockReviewRepository)
	kafkaProducer := new(mocks.MockMessagePublisher)
	listCache := newInMemoryListCache()
	svc := NewCatalogService(productRepo, reviewRepo, listCache, kafkaProducer)

	ctx := context.Background()
	featured := make([]entity.Product, 8)
	for i := range featured {
		featured[i] = entity.Product{ID: primitive.NewObjectID(), Name: fmt.Sprintf("Product %d", i)}
	}

	// Репозиторий всегда запрашивается с запасом, не по клиентскому лимиту
	productRepo.On("GetFeatured", ctx, collectionCacheSize).Return(featured, nil)

	// Act: первый клиент с маленьким лимитом наполняет кеш
	first, err := svc.GetFeatured(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	// Assert: второй клиент с большим лимитом получает полную подборку
	second, err := svc.GetFeatured(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, second, 8)

	// Репозиторий дергался только на промахе
	productRepo.AssertNumberOfCalls(t, "GetFeatured", 1)
}

func TestGetBestsellers_CacheErrorFallsThrough(t *testing.T) {
	svc, productRepo, _, listCache, _ := newCatalogServiceForTest()

	ctx := context.Background()
	products := []entity.Product{{ID: primitive.NewObjectID(), Name: "Spotify"}}

	listCache.On("GetList", ctx, util.BestsellersCacheKey).Return(nil, errors.New("redis down"))
	productRepo.On("GetBestsellers", ctx, collectionCacheSize).Return(products, nil)
	listCache.On("SetList", ctx, util.BestsellersCacheKey, products, listCacheTTL).Return(errors.New("redis down"))

	result, err := svc.GetBestsellers(ctx, 5)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestGetProductReviews_ProductNotFound(t *testing.T) {
	svc, productRepo, reviewRepo, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()

	productRepo.On("GetByID", ctx, id).Return(nil, repository.ErrProductNotFound)

	result, err := svc.GetProductReviews(ctx, id, 10)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, result)
	reviewRepo.AssertNotCalled(t, "GetByProductID")
}

func TestGetProductReviews_OnlyApproved(t *testing.T) {
	svc, productRepo, reviewRepo, _, _ := newCatalogServiceForTest()

	ctx := context.Background()
	id := primitive.NewObjectID()
	product := &entity.Product{ID: id}
	reviews := []entity.Review{{ID: primitive.NewObjectID(), ProductID: id, IsApproved: true}}

	productRepo.On("GetByID", ctx, id).Return(product, nil)
	reviewRepo.On("GetByProductID", ctx, id, true, 10).Return(reviews, nil)

	result, err := svc.GetProductReviews(ctx, id, 10)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	reviewRepo.AssertCalled(t, "GetByProductID", ctx, id, true, 10)
}
