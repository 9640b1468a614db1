package handler

import (
	"errors"
	"net/http"
	"strconv"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/repository"
	"subvault/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogHandler обрабатывает публичные HTTP запросы каталога
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	reviewService  service.ReviewServiceInterface
	validator      *validator.Validate
}

// NewCatalogHandler создает новый обработчик каталога
func NewCatalogHandler(catalogService service.CatalogServiceInterface, reviewService service.ReviewServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		reviewService:  reviewService,
		validator:      validator.New(),
	}
}

// ListProducts обрабатывает GET /products
// Все параметры фильтра опциональны, пагинация имеет значения по умолчанию
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := parseProductFilter(c)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondProductPage(c, products, total, filter)
}

// SearchProducts обрабатывает GET /products/search?q&limit
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondError(c, http.StatusBadRequest, "Search query is required")
		return
	}

	filter := &repository.ProductFilter{
		Search:  query,
		Page:    1,
		PerPage: parseIntQuery(c, "limit", repository.DefaultPerPage),
	}

	products, _, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to search products")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: products})
}

// GetProduct обрабатывает GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: product})
}

// GetProductBySlug обрабатывает GET /products/slug/:slug
// Скрытые товары не отдаются непривилегированным вызовам
func (h *CatalogHandler) GetProductBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		respondError(c, http.StatusBadRequest, "Slug is required")
		return
	}

	privileged := isAdmin(c)

	product, err := h.catalogService.GetProductBySlug(c.Request.Context(), slug, privileged)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: product})
}

// GetFeatured обрабатывает GET /products/featured?limit
func (h *CatalogHandler) GetFeatured(c *gin.Context) {
	limit := parseIntQuery(c, "limit", service.DefaultCollectionLimit)

	products, err := h.catalogService.GetFeatured(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get featured products")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: products})
}

// GetBestsellers обрабатывает GET /products/bestsellers?limit
func (h *CatalogHandler) GetBestsellers(c *gin.Context) {
	limit := parseIntQuery(c, "limit", service.DefaultCollectionLimit)

	products, err := h.catalogService.GetBestsellers(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get bestsellers")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: products})
}

// GetProductReviews обрабатывает GET /products/:id/reviews?limit
// Отдаются только одобренные отзывы, новые первыми
func (h *CatalogHandler) GetProductReviews(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit := parseIntQuery(c, "limit", 0)

	reviews, err := h.catalogService.GetProductReviews(c.Request.Context(), id, limit)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get reviews")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: reviews})
}

// CreateReview обрабатывает POST /products/reviews
// Отзыв попадает в рейтинг только после модерации (или auto-approve)
func (h *CatalogHandler) CreateReview(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userIDStr, ok := userID.(string)
	if !ok {
		respondError(c, http.StatusInternalServerError, "Invalid user ID")
		return
	}

	var req entity.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userIDStr, &req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, entity.DataResponse{Success: true, Data: review})
}

// === Helpers ===

// parseProductFilter разбирает параметры запроса в фильтр каталога
func parseProductFilter(c *gin.Context) *repository.ProductFilter {
	filter := &repository.ProductFilter{
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		Search:      c.Query("search"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
		Page:        parseIntQuery(c, "page", 1),
		PerPage:     parseIntQuery(c, "per_page", repository.DefaultPerPage),
	}

	filter.MinPrice = parseFloatQuery(c, "min_price")
	filter.MaxPrice = parseFloatQuery(c, "max_price")
	filter.MinRating = parseFloatQuery(c, "rating")

	return filter
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseFloatQuery(c *gin.Context, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// respondProductPage отдает страницу каталога с метаданными пагинации
// Страница за пределами выборки - успешный пустой список, не ошибка
func respondProductPage(c *gin.Context, products []entity.Product, total int64, filter *repository.ProductFilter) {
	totalPages := int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage))

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Success:    true,
		Data:       products,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{Success: false, Error: message})
}

func isAdmin(c *gin.Context) bool {
	roleName, exists := c.Get("role_name")
	if !exists {
		return false
	}
	role, ok := roleName.(string)
	return ok && role == "admin"
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
