package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/asquebay/shop-gateway/internal/model"
)

// OrderStore: хранилище заказов в памяти; id выдаются по порядку с 1
// данные живут, пока живёт процесс
type OrderStore struct {
	mu     sync.RWMutex
	orders []model.Order
	nextID int64
}

// NewOrderStore создаёт пустое хранилище
func NewOrderStore() *OrderStore {
	return &OrderStore{nextID: 1}
}

// CreateOrder присваивает заказу id и сохраняет его
func (s *OrderStore) CreateOrder(_ context.Context, req model.OrderRequest) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := req.ToOrder(s.nextID)
	order.Items = slices.Clone(order.Items)
	s.nextID++
	s.orders = append(s.orders, order)
	return order, nil
}

// GetAllOrders возвращает все заказы в порядке создания
func (s *OrderStore) GetAllOrders(_ context.Context) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.orders), nil
}

// GetOrdersByUser возвращает заказы пользователя в порядке создания
func (s *OrderStore) GetOrdersByUser(_ context.Context, userID model.UserID) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	return result, nil
}
