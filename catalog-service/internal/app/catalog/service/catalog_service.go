package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/repository"
	"subvault/catalog-service/internal/app/catalog/util"
	"subvault/pkg/logger"
	"subvault/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound = errors.New("product not found")
	ErrSlugConflict    = errors.New("product with this slug already exists")
)

const (
	// Остаток нового товара, если администратор его не указал
	DefaultStockQuantity = 100
	// Лимит подборок featured/bestsellers по умолчанию
	DefaultCollectionLimit = 8
	// Сколько товаров подборки кешируется: запрашиваем с запасом,
	// чтобы один ключ обслуживал любые клиентские лимиты
	collectionCacheSize = 50

	listCacheTTL = 5 * time.Minute
)

// CatalogService обрабатывает бизнес-логику каталога подписок
// Координирует репозитории, Redis кеш подборок и Kafka producer
type CatalogService struct {
	productRepo   repository.ProductRepository
	reviewRepo    repository.ReviewRepository
	listCache     util.ListCache
	kafkaProducer util.MessagePublisher
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	listCache util.ListCache,
	kafkaProducer util.MessagePublisher,
) *CatalogService {
	return &CatalogService{
		productRepo:   productRepo,
		reviewRepo:    reviewRepo,
		listCache:     listCache,
		kafkaProducer: kafkaProducer,
	}
}

// CreateProduct создает новый товар
// Валидирует цены, выводит скидку и slug, статус следует из начального остатка
func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	discount, err := DiscountPercentage(req.OriginalPrice, req.DiscountedPrice)
	if err != nil {
		return nil, err
	}

	stock := DefaultStockQuantity
	if req.StockQuantity != nil {
		stock = *req.StockQuantity
	}

	status := entity.ProductStatusActive
	if stock == 0 {
		status = entity.ProductStatusOutOfStock
	}

	product := &entity.Product{
		Name:               req.Name,
		Slug:               Slugify(req.Name),
		Description:        req.Description,
		ShortDescription:   req.ShortDescription,
		Category:           req.Category,
		Subcategory:        req.Subcategory,
		Keywords:           req.Keywords,
		OriginalPrice:      req.OriginalPrice,
		DiscountedPrice:    req.DiscountedPrice,
		DiscountPercentage: discount,
		StockQuantity:      stock,
		Status:             status,
		IsFeatured:         req.IsFeatured,
		IsBestseller:       req.IsBestseller,
		ImageURL:           req.ImageURL,
		DurationDays:       req.DurationDays,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	metrics.CatalogProductsCreated.Inc()

	s.invalidateListCache(ctx)
	s.publishProductEvent(ctx, "PRODUCT_CREATED", product)

	return product, nil
}

// GetProduct получает товар по ID
func (s *CatalogService) GetProduct(ctx context.Context, id primitive.ObjectID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// GetProductBySlug получает товар по slug
// Непривилегированным вызовам скрытые товары не отдаются,
// чтобы slug не позволял перебирать неактивные позиции
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string, privileged bool) (*entity.Product, error) {
	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by slug: %w", err)
	}

	if !privileged && product.Status == entity.ProductStatusInactive {
		return nil, ErrProductNotFound
	}

	return product, nil
}

// ListProducts возвращает страницу каталога и общее число совпадений
// total считается тем же предикатом, что и содержимое страницы
func (s *CatalogService) ListProducts(ctx context.Context, filter *repository.ProductFilter) ([]entity.Product, int64, error) {
	if filter.Search != "" {
		metrics.CatalogSearches.Inc()
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct применяет частичное обновление товара
// Если затронута любая из цен, процент скидки пересчитывается
// в той же операции записи - товар не может остаться с устаревшей скидкой
func (s *CatalogService) UpdateProduct(ctx context.Context, id primitive.ObjectID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	oldPrice := product.DiscountedPrice

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.ShortDescription != nil {
		product.ShortDescription = *req.ShortDescription
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Subcategory != nil {
		product.Subcategory = *req.Subcategory
	}
	if req.Keywords != nil {
		product.Keywords = req.Keywords
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.DurationDays != nil {
		product.DurationDays = *req.DurationDays
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.IsBestseller != nil {
		product.IsBestseller = *req.IsBestseller
	}

	priceTouched := req.OriginalPrice != nil || req.DiscountedPrice != nil
	if req.OriginalPrice != nil {
		product.OriginalPrice = *req.OriginalPrice
	}
	if req.DiscountedPrice != nil {
		product.DiscountedPrice = *req.DiscountedPrice
	}
	if priceTouched {
		discount, err := DiscountPercentage(product.OriginalPrice, product.DiscountedPrice)
		if err != nil {
			return nil, err
		}
		product.DiscountPercentage = discount
	}

	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.Status != nil {
		product.Status = *req.Status
	} else if req.StockQuantity != nil {
		// Статус следует за остатком, если администратор не задал его явно
		if product.StockQuantity == 0 {
			product.Status = entity.ProductStatusOutOfStock
		} else if product.Status == entity.ProductStatusOutOfStock {
			product.Status = entity.ProductStatusActive
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidateListCache(ctx)

	if product.DiscountedPrice != oldPrice {
		s.publishProductEvent(ctx, "PRODUCT_UPDATED", product)
	}

	return product, nil
}

// DeleteProduct удаляет товар без tombstone
func (s *CatalogService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.invalidateListCache(ctx)
	s.publishProductEvent(ctx, "PRODUCT_DELETED", product)

	return nil
}

// GetFeatured получает подборку featured товаров с кешированием в Redis
func (s *CatalogService) GetFeatured(ctx context.Context, limit int) ([]entity.Product, error) {
	return s.getCollection(ctx, util.FeaturedCacheKey, limit, s.productRepo.GetFeatured)
}

// GetBestsellers получает подборку bestseller товаров с кешированием в Redis
func (s *CatalogService) GetBestsellers(ctx context.Context, limit int) ([]entity.Product, error) {
	return s.getCollection(ctx, util.BestsellersCacheKey, limit, s.productRepo.GetBestsellers)
}

func (s *CatalogService) getCollection(
	ctx context.Context,
	cacheKey string,
	limit int,
	fetch func(context.Context, int) ([]entity.Product, error),
) ([]entity.Product, error) {
	if limit <= 0 {
		limit = DefaultCollectionLimit
	}

	// Кешируется полная подборка, лимит применяется после чтения
	cached, err := s.listCache.GetList(ctx, cacheKey)
	if err == nil && cached != nil {
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	// Промах: забираем подборку целиком, а не по клиентскому лимиту,
	// иначе под общим ключом осядет усеченный список
	products, err := fetch(ctx, collectionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get product collection: %w", err)
	}

	if err := s.listCache.SetList(ctx, cacheKey, products, listCacheTTL); err != nil {
		// Данные получены из БД, проблемы с кешем не критичны
		logger.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache product collection")
	}

	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// GetProductReviews получает одобренные отзывы товара, новые первыми
func (s *CatalogService) GetProductReviews(ctx context.Context, productID primitive.ObjectID, limit int) ([]entity.Review, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	reviews, err := s.reviewRepo.GetByProductID(ctx, productID, true, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// invalidateListCache сбрасывает кеш подборок после мутации каталога
func (s *CatalogService) invalidateListCache(ctx context.Context) {
	if err := s.listCache.InvalidateLists(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate product list cache")
	}
}

// publishProductEvent отправляет событие о товаре в Kafka
// Key - ProductID для сохранения порядка событий одного товара
func (s *CatalogService) publishProductEvent(ctx context.Context, eventType string, product *entity.Product) {
	event := entity.ProductEvent{
		EventType: eventType,
		ProductID: product.ID.Hex(),
		Name:      product.Name,
		Price:     product.DiscountedPrice,
		Category:  product.Category,
		Timestamp: time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal product event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID, eventData); err != nil {
		// Товар уже записан, проблемы с Kafka не критичны для основной операции
		logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish product event")
	}
}
