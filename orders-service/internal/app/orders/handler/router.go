package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subvault/pkg/logger"
	"subvault/pkg/metrics"
)

// SetupRoutes настраивает все маршруты Orders Service
func SetupRoutes(orderHandler *OrderHandler, webhookHandler *WebhookHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("orders-service"))

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
			"service": "orders-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Callback платежного шлюза - без JWT, защищен HMAC подписью
	router.POST("/webhooks/payment", webhookHandler.HandlePaymentWebhook)

	// Внутренняя статистика для дашборда Catalog Service
	router.GET("/internal/stats/orders", orderHandler.GetOrderStats)

	// Заказы пользователя - требуют аутентификации
	orders := router.Group("/orders")
	orders.Use(authMiddleware.Authenticate())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.GetUserOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/payment", orderHandler.GetOrderPayment)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
	}

	// Административный перевод статусов заказа
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole("admin"))
	{
		admin.PATCH("/orders/:id", orderHandler.UpdateOrderStatus)
	}

	return router
}
