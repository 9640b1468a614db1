package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subvault/pkg/logger"
	"subvault/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(catalogHandler *CatalogHandler, adminHandler *AdminHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("catalog-service"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "catalog-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Публичные эндпоинты каталога (токен опционален, админ видит скрытое)
	products := router.Group("/products")
	products.Use(authMiddleware.AuthenticateOptional())
	{
		products.GET("", catalogHandler.ListProducts)
		products.GET("/search", catalogHandler.SearchProducts)
		products.GET("/featured", catalogHandler.GetFeatured)
		products.GET("/bestsellers", catalogHandler.GetBestsellers)
		products.GET("/slug/:slug", catalogHandler.GetProductBySlug)
		products.GET("/:id", catalogHandler.GetProduct)
		products.GET("/:id/reviews", catalogHandler.GetProductReviews)

		// Отзыв может оставить только авторизованный пользователь
		products.POST("/reviews", authMiddleware.Authenticate(), catalogHandler.CreateReview)
	}

	// Admin эндпоинты - только для администраторов
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole("admin"))
	{
		admin.GET("/products", adminHandler.ListAllProducts)
		admin.POST("/products", adminHandler.CreateProduct)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.DELETE("/products/:id", adminHandler.DeleteProduct)
		admin.GET("/products/:id/reviews", adminHandler.GetProductReviewsAdmin)

		admin.POST("/reviews/:id/approve", adminHandler.ApproveReview)
		admin.POST("/reviews/:id/unapprove", adminHandler.UnapproveReview)
		admin.DELETE("/reviews/:id", adminHandler.DeleteReview)

		admin.GET("/stock/overview", adminHandler.StockOverview)
		admin.GET("/stock/low", adminHandler.LowStockProducts)
		admin.POST("/stock/bulk", adminHandler.BulkStockUpdate)

		admin.GET("/dashboard", adminHandler.DashboardStats)
	}

	return router
}
