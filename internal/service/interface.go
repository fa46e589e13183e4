package service

import (
	"context"

	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/payment"
)

// TokenVerifier определяет контракт сервиса аутентификации, нужный шлюзу для проверки сессии
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (model.RefreshedToken, error)
}

// PaymentCharger определяет контракт платёжного шлюза (в проде это payment.Breaker)
type PaymentCharger interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error)
}

// OrderRecorder определяет контракт для записи заказа (HTTP-клиент или продюсер кафки)
type OrderRecorder interface {
	Record(ctx context.Context, order model.OrderRequest) error
}

// OrderLister определяет контракт для чтения истории заказов
type OrderLister interface {
	ListByUser(ctx context.Context, userID model.UserID) ([]model.Order, error)
}
