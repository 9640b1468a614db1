package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) DecrementStock(ctx context.Context, productID primitive.ObjectID, quantity int) (int, error) {
	args := m.Called(ctx, productID, quantity)
	return args.Int(0), args.Error(1)
}

func (m *MockStockRepository) MarkOutOfStock(ctx context.Context, productID primitive.ObjectID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockStockRepository) ReconcileDepleted(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) ReconcileRestocked(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
