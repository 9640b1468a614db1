package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"subvault/stock-worker-service/internal/app/stock-worker/entity"
	"subvault/stock-worker-service/internal/app/stock-worker/repository"
	"subvault/stock-worker-service/internal/app/stock-worker/repository/mocks"
)

func paidEvent(items ...entity.OrderEventItem) *entity.OrderEvent {
	return &entity.OrderEvent{
		EventType:   entity.EventTypeOrderPaid,
		OrderID:     "7b1b0f3e-0000-0000-0000-000000000001",
		UserID:      "7b1b0f3e-0000-0000-0000-000000000002",
		FinalAmount: 199.99,
		Status:      "confirmed",
		Items:       items,
		Timestamp:   time.Now(),
	}
}

func TestProcessOrderEvent_OrderPaidDecrementsEachItem(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	firstID := primitive.NewObjectID()
	secondID := primitive.NewObjectID()

	stockRepo.On("DecrementStock", ctx, firstID, 2).Return(5, nil)
	stockRepo.On("DecrementStock", ctx, secondID, 1).Return(3, nil)

	event := paidEvent(
		entity.OrderEventItem{ProductID: firstID.Hex(), Quantity: 2},
		entity.OrderEventItem{ProductID: secondID.Hex(), Quantity: 1},
	)

	err := svc.ProcessOrderEvent(ctx, event)

	require.NoError(t, err)
	stockRepo.AssertExpectations(t)
	stockRepo.AssertNotCalled(t, "MarkOutOfStock", mock.Anything, mock.Anything)
}

func TestProcessOrderEvent_DepletedProductMarkedOutOfStock(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	productID := primitive.NewObjectID()
	stockRepo.On("DecrementStock", ctx, productID, 3).Return(0, nil)
	stockRepo.On("MarkOutOfStock", ctx, productID).Return(nil)

	err := svc.ProcessOrderEvent(ctx, paidEvent(
		entity.OrderEventItem{ProductID: productID.Hex(), Quantity: 3},
	))

	require.NoError(t, err)
	stockRepo.AssertCalled(t, "MarkOutOfStock", ctx, productID)
}

func TestProcessOrderEvent_OrderCreatedSkipped(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	event := paidEvent(entity.OrderEventItem{ProductID: primitive.NewObjectID().Hex(), Quantity: 1})
	event.EventType = entity.EventTypeOrderCreated

	err := svc.ProcessOrderEvent(ctx, event)

	require.NoError(t, err)
	stockRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessOrderEvent_UnknownEventTypeSkipped(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	event := paidEvent()
	event.EventType = "SOMETHING_ELSE"

	err := svc.ProcessOrderEvent(ctx, event)

	require.NoError(t, err)
	stockRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessOrderEvent_InvalidProductIDSkipsItem(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	validID := primitive.NewObjectID()
	stockRepo.On("DecrementStock", ctx, validID, 1).Return(4, nil)

	// Битый ID пропускается, валидная позиция обрабатывается
	err := svc.ProcessOrderEvent(ctx, paidEvent(
		entity.OrderEventItem{ProductID: "not-a-hex-id", Quantity: 2},
		entity.OrderEventItem{ProductID: validID.Hex(), Quantity: 1},
	))

	require.NoError(t, err)
	stockRepo.AssertNumberOfCalls(t, "DecrementStock", 1)
}

func TestProcessOrderEvent_ProductNotFoundSkipsItem(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	missingID := primitive.NewObjectID()
	stockRepo.On("DecrementStock", ctx, missingID, 1).Return(0, repository.ErrProductNotFound)

	err := svc.ProcessOrderEvent(ctx, paidEvent(
		entity.OrderEventItem{ProductID: missingID.Hex(), Quantity: 1},
	))

	// Удаленный товар не должен блокировать коммит сообщения
	require.NoError(t, err)
	stockRepo.AssertNotCalled(t, "MarkOutOfStock", mock.Anything, mock.Anything)
}

func TestProcessOrderEvent_TransientErrorPropagates(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	productID := primitive.NewObjectID()
	stockRepo.On("DecrementStock", ctx, productID, 1).Return(0, errors.New("connection reset"))

	err := svc.ProcessOrderEvent(ctx, paidEvent(
		entity.OrderEventItem{ProductID: productID.Hex(), Quantity: 1},
	))

	// Временная ошибка возвращается наверх: сообщение будет доставлено повторно
	assert.Error(t, err)
}

func TestReconcile_Success(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	stockRepo.On("ReconcileDepleted", ctx).Return(int64(3), nil)
	stockRepo.On("ReconcileRestocked", ctx).Return(int64(1), nil)

	result, err := svc.Reconcile(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Depleted)
	assert.Equal(t, int64(1), result.Restocked)
	assert.WithinDuration(t, time.Now(), result.RunAt, time.Minute)
}

func TestReconcile_DepletedQueryFails(t *testing.T) {
	ctx := context.Background()
	stockRepo := new(mocks.MockStockRepository)
	svc := NewStockProcessingService(stockRepo)

	stockRepo.On("ReconcileDepleted", ctx).Return(int64(0), errors.New("server selection timeout"))

	result, err := svc.Reconcile(ctx)

	assert.Nil(t, result)
	assert.Error(t, err)
	stockRepo.AssertNotCalled(t, "ReconcileRestocked", mock.Anything)
}
