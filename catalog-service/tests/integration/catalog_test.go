//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/handler"
	"subvault/catalog-service/internal/app/catalog/repository"
	"subvault/catalog-service/internal/app/catalog/service"
	"subvault/catalog-service/internal/app/catalog/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MockKafkaProducer struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockKafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	return nil
}

func (m *MockKafkaProducer) Close() error { return nil }

type mockStatsClients struct{}

func (m *mockStatsClients) GetOrderStats(ctx context.Context, recentLimit int) (*entity.OrderStats, error) {
	return &entity.OrderStats{}, nil
}

func (m *mockStatsClients) GetUserCount(ctx context.Context) (int64, error) {
	return 0, nil
}

// CatalogIntegrationTestSuite интеграционные тесты каталога
// Требует запущенный MongoDB, Redis поднимается встроенный
type CatalogIntegrationTestSuite struct {
	suite.Suite
	client        *mongo.Client
	db            *mongo.Database
	miniRedis     *miniredis.Miniredis
	redisClient   *util.RedisClient
	router        *gin.Engine
	kafkaProducer *MockKafkaProducer
}

func TestCatalogIntegrationSuite(t *testing.T) {
	suite.Run(t, new(CatalogIntegrationTestSuite))
}

func (s *CatalogIntegrationTestSuite) SetupSuite() {
	mongoURI := getEnv("TEST_MONGODB_URI", "mongodb://localhost:27018")
	dbName := getEnv("TEST_MONGODB_DATABASE", "catalog_test_db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	s.client, err = mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)

	s.db = s.client.Database(dbName)

	s.miniRedis, err = miniredis.Run()
	s.Require().NoError(err)

	s.redisClient, err = util.NewRedisClient(s.miniRedis.Addr(), "", 0)
	s.Require().NoError(err)

	productRepo := repository.NewProductRepository(s.db)
	reviewRepo := repository.NewReviewRepository(s.db)
	s.kafkaProducer = &MockKafkaProducer{Messages: make([][]byte, 0)}

	catalogService := service.NewCatalogService(productRepo, reviewRepo, s.redisClient, s.kafkaProducer)
	reviewService := service.NewReviewService(reviewRepo, productRepo, s.kafkaProducer, false)
	dashboardService := service.NewDashboardService(productRepo, &mockStatsClients{}, &mockStatsClients{})

	gin.SetMode(gin.TestMode)

	catalogHandler := handler.NewCatalogHandler(catalogService, reviewService)
	adminHandler := handler.NewAdminHandler(catalogService, reviewService, dashboardService)

	adminAuth := func(c *gin.Context) {
		c.Set("user_id", "admin-user")
		c.Set("role_name", "admin")
		c.Next()
	}
	userAuth := func(c *gin.Context) {
		c.Set("user_id", "test-user")
		c.Next()
	}

	s.router = gin.New()
	products := s.router.Group("/products")
	{
		products.GET("", catalogHandler.ListProducts)
		products.GET("/search", catalogHandler.SearchProducts)
		products.GET("/featured", catalogHandler.GetFeatured)
		products.GET("/slug/:slug", catalogHandler.GetProductBySlug)
		products.GET("/:id", catalogHandler.GetProduct)
		products.GET("/:id/reviews", catalogHandler.GetProductReviews)
		products.POST("/reviews", userAuth, catalogHandler.CreateReview)
	}
	admin := s.router.Group("/admin", adminAuth)
	{
		admin.POST("/products", adminHandler.CreateProduct)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.POST("/reviews/:id/approve", adminHandler.ApproveReview)
		admin.GET("/stock/overview", adminHandler.StockOverview)
		admin.POST("/stock/bulk", adminHandler.BulkStockUpdate)
	}
}

func (s *CatalogIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	s.db.Collection("products").DeleteMany(ctx, map[string]interface{}{})
	s.db.Collection("reviews").DeleteMany(ctx, map[string]interface{}{})
	s.miniRedis.FlushAll()
	s.kafkaProducer.Messages = make([][]byte, 0)
}

func (s *CatalogIntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	s.db.Drop(ctx)
	s.client.Disconnect(ctx)
	s.redisClient.Close()
	s.miniRedis.Close()
}

func (s *CatalogIntegrationTestSuite) createProduct(name string, originalPrice, discountedPrice float64) entity.Product {
	body, _ := json.Marshal(entity.CreateProductRequest{
		Name:            name,
		Description:     "Integration test subscription offer",
		Category:        "streaming",
		OriginalPrice:   originalPrice,
		DiscountedPrice: discountedPrice,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusCreated, w.Code)

	var response struct {
		Data entity.Product `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response.Data
}

func (s *CatalogIntegrationTestSuite) TestCreateProduct_DerivesDiscountAndSlug() {
	product := s.createProduct("Netflix Premium 4K", 1000, 750)

	s.Equal("netflix-premium-4k", product.Slug)
	s.Equal(25, product.DiscountPercentage)
	s.Equal(100, product.StockQuantity)
	s.Equal(entity.ProductStatusActive, product.Status)
}

func (s *CatalogIntegrationTestSuite) TestCreateProduct_DuplicateSlugConflicts() {
	s.createProduct("Netflix Premium", 1000, 900)

	body, _ := json.Marshal(entity.CreateProductRequest{
		Name:            "Netflix Premium",
		Description:     "Second offer with the same name",
		Category:        "streaming",
		OriginalPrice:   800,
		DiscountedPrice: 700,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *CatalogIntegrationTestSuite) TestListProducts_TotalMatchesPredicate() {
	s.createProduct("Netflix Premium", 1000, 900)
	s.createProduct("Spotify Family", 500, 400)
	s.createProduct("Disney Plus", 600, 450)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?per_page=2&page=1", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var response entity.ProductListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Len(response.Data, 2)
	s.Equal(int64(3), response.Total)
	s.Equal(2, response.TotalPages)
}

func (s *CatalogIntegrationTestSuite) TestListProducts_PriceRangeBothBounds() {
	s.createProduct("Cheap Offer", 300, 200)
	s.createProduct("Mid Offer", 700, 500)
	s.createProduct("Expensive Offer", 2000, 1500)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?min_price=300&max_price=1000", nil)
	s.router.ServeHTTP(w, req)

	var response entity.ProductListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(int64(1), response.Total)
	s.Equal("Mid Offer", response.Data[0].Name)
}

func (s *CatalogIntegrationTestSuite) TestSearch_CaseInsensitive() {
	s.createProduct("Netflix Premium", 1000, 900)
	s.createProduct("Spotify Family", 500, 400)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?search=NETFLIX", nil)
	s.router.ServeHTTP(w, req)

	var response entity.ProductListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(int64(1), response.Total)
	s.Equal("Netflix Premium", response.Data[0].Name)
}

func (s *CatalogIntegrationTestSuite) TestReviewModeration_RatingRollup() {
	product := s.createProduct("Netflix Premium", 1000, 900)

	// Отзыв создается неодобренным
	reviewBody, _ := json.Marshal(entity.CreateReviewRequest{
		ProductID: product.ID.Hex(),
		UserName:  "alex",
		Rating:    5,
		Text:      "Excellent deal",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/reviews", bytes.NewBuffer(reviewBody))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusCreated, w.Code)

	var created struct {
		Data entity.Review `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.False(created.Data.IsApproved)

	// Публичная выдача отзывов пуста до модерации
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/products/"+product.ID.Hex()+"/reviews", nil)
	s.router.ServeHTTP(w, req)
	var reviews struct {
		Data []entity.Review `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &reviews))
	s.Empty(reviews.Data)

	// Одобрение пересчитывает агрегат товара
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/reviews/"+created.Data.ID.Hex()+"/approve", nil)
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/products/"+product.ID.Hex(), nil)
	s.router.ServeHTTP(w, req)
	var updated struct {
		Data entity.Product `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	s.Equal(5.0, updated.Data.Rating)
	s.Equal(1, updated.Data.TotalReviews)
}

func (s *CatalogIntegrationTestSuite) TestBulkStock_MarkOutOfStock() {
	s.createProduct("Netflix Premium", 1000, 900)
	s.createProduct("Spotify Family", 500, 400)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/stock/bulk", bytes.NewBufferString(`{"action":"mark_out_of_stock"}`))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var response struct {
		Data entity.BulkStockResult `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(int64(2), response.Data.ModifiedCount)

	// Публичный каталог больше не отдает эти товары
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	s.router.ServeHTTP(w, req)
	var list entity.ProductListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Equal(int64(0), list.Total)
}

func (s *CatalogIntegrationTestSuite) TestStockOverview_Grouping() {
	s.createProduct("Netflix Premium", 1000, 900)
	s.createProduct("Spotify Family", 500, 400)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/stock/overview", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var response struct {
		Data entity.StockOverview `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(int64(2), response.Data.TotalProducts)
	s.Equal(int64(2), response.Data.InStock)
	s.Equal(int64(200), response.Data.TotalUnits)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
