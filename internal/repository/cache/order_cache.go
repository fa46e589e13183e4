package cache

import (
	"slices"
	"sync"

	"github.com/asquebay/shop-gateway/internal/model"
)

// OrderCache: потокобезопасный in-memory кэш истории заказов по пользователям
type OrderCache struct {
	// RWMutex, а не sync.Map: значением служит срез, который дополняется
	mu     sync.RWMutex
	byUser map[model.UserID][]model.Order
}

// NewOrderCache создаёт новый экземпляр кэша
func NewOrderCache() *OrderCache {
	return &OrderCache{byUser: make(map[model.UserID][]model.Order)}
}

// Append дописывает заказ в историю пользователя, только если она уже в кэше
// отсутствующую историю не заводим, следующее чтение возьмёт её из хранилища
func (c *OrderCache) Append(order model.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if orders, ok := c.byUser[order.UserID]; ok {
		c.byUser[order.UserID] = append(orders, order)
	}
}

// GetByUser извлекает историю пользователя из кэша
// возвращает копию и true, если пользователь есть в кэше, иначе nil и false
func (c *OrderCache) GetByUser(userID model.UserID) ([]model.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	orders, ok := c.byUser[userID]
	if !ok {
		return nil, false
	}
	return slices.Clone(orders), true
}

// SetUser заменяет историю пользователя целиком
func (c *OrderCache) SetUser(userID model.UserID, orders []model.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byUser[userID] = slices.Clone(orders)
}

// LoadAll загружает в кэш срез заказов, сгруппировав их по пользователям
// используется для первоначального заполнения кэша при старте сервиса
func (c *OrderCache) LoadAll(orders []model.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byUser = make(map[model.UserID][]model.Order)
	for _, order := range orders {
		c.byUser[order.UserID] = append(c.byUser[order.UserID], order)
	}
}
