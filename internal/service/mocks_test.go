package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/payment"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (model.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *mockVerifier) Refresh(ctx context.Context, refreshToken string) (model.RefreshedToken, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(model.RefreshedToken), args.Error(1)
}

type mockCharger struct {
	mock.Mock
}

func (m *mockCharger) Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.ChargeResult), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, order model.OrderRequest) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListByUser(ctx context.Context, userID model.UserID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}
