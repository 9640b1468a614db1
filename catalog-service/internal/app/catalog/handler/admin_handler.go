package handler

import (
	"errors"
	"net/http"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler обрабатывает административные запросы каталога
type AdminHandler struct {
	catalogService   service.CatalogServiceInterface
	reviewService    service.ReviewServiceInterface
	dashboardService service.DashboardServiceInterface
	validator        *validator.Validate
}

// NewAdminHandler создает новый административный обработчик
func NewAdminHandler(
	catalogService service.CatalogServiceInterface,
	reviewService service.ReviewServiceInterface,
	dashboardService service.DashboardServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		catalogService:   catalogService,
		reviewService:    reviewService,
		dashboardService: dashboardService,
		validator:        validator.New(),
	}
}

// CreateProduct обрабатывает POST /admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPrice):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSlugConflict):
			respondError(c, http.StatusConflict, "Product with this name already exists")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	c.JSON(http.StatusCreated, entity.DataResponse{Success: true, Data: product})
}

// ListAllProducts обрабатывает GET /admin/products
// В отличие от публичного списка отдает и скрытые товары
func (h *AdminHandler) ListAllProducts(c *gin.Context) {
	filter := parseProductFilter(c)
	filter.IncludeInactive = true

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondProductPage(c, products, total, filter)
}

// UpdateProduct обрабатывает PUT /admin/products/:id
// Непереданные поля не трогаются
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req entity.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrInvalidPrice):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: product})
}

// DeleteProduct обрабатывает DELETE /admin/products/:id
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: gin.H{"message": "Product deleted"}})
}

// StockOverview обрабатывает GET /admin/stock/overview?low_stock_threshold
func (h *AdminHandler) StockOverview(c *gin.Context) {
	threshold := parseIntQuery(c, "low_stock_threshold", service.DefaultLowStockThreshold)

	overview, err := h.dashboardService.StockOverview(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get stock overview")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: overview})
}

// LowStockProducts обрабатывает GET /admin/stock/low?threshold
func (h *AdminHandler) LowStockProducts(c *gin.Context) {
	threshold := parseIntQuery(c, "threshold", service.DefaultLowStockThreshold)

	products, err := h.dashboardService.LowStockProducts(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get low stock products")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: products})
}

// BulkStockUpdate обрабатывает POST /admin/stock/bulk
func (h *AdminHandler) BulkStockUpdate(c *gin.Context) {
	var req entity.BulkStockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	defaultStock := 0
	if req.DefaultStock != nil {
		defaultStock = *req.DefaultStock
	}

	result, err := h.dashboardService.BulkStockUpdate(c.Request.Context(), req.Action, defaultStock)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBulkAction) {
			respondError(c, http.StatusBadRequest, "Unknown bulk stock action")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to update stock")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: result})
}

// DashboardStats обрабатывает GET /admin/dashboard
func (h *AdminHandler) DashboardStats(c *gin.Context) {
	stats, err := h.dashboardService.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get dashboard stats")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: stats})
}

// GetProductReviewsAdmin обрабатывает GET /admin/products/:id/reviews?limit
// Возвращает все отзывы товара, включая неодобренные
func (h *AdminHandler) GetProductReviewsAdmin(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit := parseIntQuery(c, "limit", 0)

	reviews, err := h.reviewService.GetProductReviewsAdmin(c.Request.Context(), id, limit)
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

// ApproveReview обрабатывает POST /admin/reviews/:id/approve
// После одобрения рейтинг товара пересчитывается синхронно
func (h *AdminHandler) ApproveReview(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid review ID")
		return
	}

	review, err := h.reviewService.ApproveReview(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			respondError(c, http.StatusNotFound, "Review not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to approve review")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: review})
}

// UnapproveReview обрабатывает POST /admin/reviews/:id/unapprove
func (h *AdminHandler) UnapproveReview(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid review ID")
		return
	}

	review, err := h.reviewService.UnapproveReview(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			respondError(c, http.StatusNotFound, "Review not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to unapprove review")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: review})
}

// DeleteReview обрабатывает DELETE /admin/reviews/:id
func (h *AdminHandler) DeleteReview(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			respondError(c, http.StatusNotFound, "Review not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to delete review")
		return
	}

	c.JSON(http.StatusOK, entity.DataResponse{Success: true, Data: gin.H{"message": "Review deleted"}})
}
