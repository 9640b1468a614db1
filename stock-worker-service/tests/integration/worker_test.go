//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"subvault/stock-worker-service/internal/app/stock-worker/entity"
	"subvault/stock-worker-service/internal/app/stock-worker/repository"
	"subvault/stock-worker-service/internal/app/stock-worker/service"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StockWorkerIntegrationTestSuite интеграционные тесты воркера остатков
// Требует запущенный MongoDB
type StockWorkerIntegrationTestSuite struct {
	suite.Suite
	client     *mongo.Client
	db         *mongo.Database
	stockRepo  repository.StockRepository
	stockSvc   service.StockProcessingServiceInterface
	collection *mongo.Collection
}

func TestStockWorkerIntegrationSuite(t *testing.T) {
	suite.Run(t, new(StockWorkerIntegrationTestSuite))
}

func (s *StockWorkerIntegrationTestSuite) SetupSuite() {
	mongoURI := getEnv("TEST_MONGODB_URI", "mongodb://localhost:27018")
	dbName := getEnv("TEST_MONGODB_DATABASE", "catalog_test_db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	s.client, err = mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)
	s.Require().NoError(s.client.Ping(ctx, nil))

	s.db = s.client.Database(dbName)
	s.collection = s.db.Collection("products")

	s.stockRepo = repository.NewStockRepository(s.db)
	s.stockSvc = service.NewStockProcessingService(s.stockRepo)
}

func (s *StockWorkerIntegrationTestSuite) SetupTest() {
	_, err := s.collection.DeleteMany(context.Background(), bson.M{})
	s.Require().NoError(err)
}

func (s *StockWorkerIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Disconnect(context.Background())
	}
}

// seedProduct вставляет товар с нужным остатком и статусом
func (s *StockWorkerIntegrationTestSuite) seedProduct(stock int, status entity.ProductStatus) primitive.ObjectID {
	id := primitive.NewObjectID()
	_, err := s.collection.InsertOne(context.Background(), bson.M{
		"_id":            id,
		"name":           "Test Subscription",
		"stock_quantity": stock,
		"status":         status,
		"created_at":     time.Now(),
		"updated_at":     time.Now(),
	})
	s.Require().NoError(err)
	return id
}

func (s *StockWorkerIntegrationTestSuite) getProduct(id primitive.ObjectID) (int, entity.ProductStatus) {
	var doc struct {
		StockQuantity int                  `bson:"stock_quantity"`
		Status        entity.ProductStatus `bson:"status"`
	}
	err := s.collection.FindOne(context.Background(), bson.M{"_id": id}).Decode(&doc)
	s.Require().NoError(err)
	return doc.StockQuantity, doc.Status
}

func paidEvent(items ...entity.OrderEventItem) *entity.OrderEvent {
	return &entity.OrderEvent{
		EventType:   entity.EventTypeOrderPaid,
		OrderID:     "11111111-2222-3333-4444-555555555555",
		UserID:      "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		FinalAmount: 19.99,
		Status:      "confirmed",
		Items:       items,
		Timestamp:   time.Now(),
	}
}

// ===================== Integration Tests =====================

func (s *StockWorkerIntegrationTestSuite) TestOrderPaid_DecrementsStock() {
	ctx := context.Background()
	id := s.seedProduct(10, entity.ProductStatusActive)

	err := s.stockSvc.ProcessOrderEvent(ctx, paidEvent(entity.OrderEventItem{ProductID: id.Hex(), Quantity: 3}))
	s.Require().NoError(err)

	stock, status := s.getProduct(id)
	s.Equal(7, stock)
	s.Equal(entity.ProductStatusActive, status)
}

func (s *StockWorkerIntegrationTestSuite) TestOrderPaid_DepletesAndMarksOutOfStock() {
	ctx := context.Background()
	id := s.seedProduct(2, entity.ProductStatusActive)

	err := s.stockSvc.ProcessOrderEvent(ctx, paidEvent(entity.OrderEventItem{ProductID: id.Hex(), Quantity: 2}))
	s.Require().NoError(err)

	stock, status := s.getProduct(id)
	s.Equal(0, stock)
	s.Equal(entity.ProductStatusOutOfStock, status)
}

func (s *StockWorkerIntegrationTestSuite) TestOrderPaid_InsufficientStock_FloorsAtZero() {
	ctx := context.Background()
	id := s.seedProduct(1, entity.ProductStatusActive)

	// Заказ на 5 при остатке 1: остаток не уходит в минус
	err := s.stockSvc.ProcessOrderEvent(ctx, paidEvent(entity.OrderEventItem{ProductID: id.Hex(), Quantity: 5}))
	s.Require().NoError(err)

	stock, status := s.getProduct(id)
	s.Equal(0, stock)
	s.Equal(entity.ProductStatusOutOfStock, status)
}

func (s *StockWorkerIntegrationTestSuite) TestOrderPaid_UnknownProduct_DoesNotFail() {
	ctx := context.Background()
	known := s.seedProduct(5, entity.ProductStatusActive)

	event := paidEvent(
		entity.OrderEventItem{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
		entity.OrderEventItem{ProductID: known.Hex(), Quantity: 1},
	)

	// Удаленный товар пропускается, остальные позиции обрабатываются
	err := s.stockSvc.ProcessOrderEvent(ctx, event)
	s.Require().NoError(err)

	stock, _ := s.getProduct(known)
	s.Equal(4, stock)
}

func (s *StockWorkerIntegrationTestSuite) TestReconcile_FixesInconsistentStatuses() {
	ctx := context.Background()

	depleted := s.seedProduct(0, entity.ProductStatusActive)
	restocked := s.seedProduct(15, entity.ProductStatusOutOfStock)
	untouched := s.seedProduct(3, entity.ProductStatusActive)
	inactive := s.seedProduct(0, entity.ProductStatusInactive)

	result, err := s.stockSvc.Reconcile(ctx)
	s.Require().NoError(err)

	s.Equal(int64(1), result.Depleted)
	s.Equal(int64(1), result.Restocked)

	_, status := s.getProduct(depleted)
	s.Equal(entity.ProductStatusOutOfStock, status)

	_, status = s.getProduct(restocked)
	s.Equal(entity.ProductStatusActive, status)

	_, status = s.getProduct(untouched)
	s.Equal(entity.ProductStatusActive, status)

	// Снятые с продажи товары сверка не трогает
	_, status = s.getProduct(inactive)
	s.Equal(entity.ProductStatusInactive, status)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
