package orders

import (
	"context"

	"github.com/asquebay/shop-gateway/internal/model"
)

// OrderRepository определяет контракт для хранилища заказов (память или postgres)
type OrderRepository interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByUser(ctx context.Context, userID model.UserID) ([]model.Order, error)
}

// OrderCache определяет контракт для in-memory кэша истории заказов
type OrderCache interface {
	Append(order model.Order)
	GetByUser(userID model.UserID) ([]model.Order, bool)
	SetUser(userID model.UserID, orders []model.Order)
	LoadAll(orders []model.Order)
}
