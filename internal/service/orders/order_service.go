package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/asquebay/shop-gateway/internal/model"
)

// ErrInvalidOrder: заказ не прошёл валидацию
var ErrInvalidOrder = errors.New("invalid order")

// OrderService инкапсулирует бизнес-логику работы с заказами
type OrderService struct {
	repo  OrderRepository
	cache OrderCache
	log   *slog.Logger

	// создания берут RLock, заполнение кэша из хранилища берёт Lock,
	// чтобы заказ не потерялся между чтением истории и её записью в кэш
	fillMu sync.RWMutex
}

// NewOrderService создаёт новый экземпляр сервиса заказов
func NewOrderService(repo OrderRepository, cache OrderCache, log *slog.Logger) *OrderService {
	return &OrderService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// CreateOrder проверяет и сохраняет новый заказ
// сначала он сохраняет заказ в хранилище, и только в случае успеха обновляет кэш
func (s *OrderService) CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	const op = "service.OrderService.CreateOrder"
	log := s.log.With(slog.String("op", op), slog.String("transaction_id", req.TransactionID))

	if err := req.Validate(); err != nil {
		log.Info("order rejected", slog.String("error", err.Error()))
		return model.Order{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidOrder, err)
	}

	s.fillMu.RLock()
	defer s.fillMu.RUnlock()

	// 1. Сохраняем в хранилище. Это основной источник правды
	order, err := s.repo.CreateOrder(ctx, req)
	if err != nil {
		log.Error("failed to save order to repository", slog.String("error", err.Error()))
		return model.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	// 2. Если сохранилось успешно, обновляем кэш
	s.cache.Append(order)
	log.Info("order created", slog.Int64("order_id", order.ID), slog.String("user_id", order.UserID.String()))

	return order, nil
}

// ListByUser возвращает историю пользователя
// сначала ищет в кэше, и только если там нет, обращается к хранилищу
func (s *OrderService) ListByUser(ctx context.Context, userID model.UserID) ([]model.Order, error) {
	const op = "service.OrderService.ListByUser"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID.String()))

	if orders, found := s.cache.GetByUser(userID); found {
		log.Debug("orders found in cache")
		return orders, nil
	}

	log.Debug("orders not found in cache, will check repository")

	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	// пока ждали блокировку, историю мог заполнить другой запрос
	if orders, found := s.cache.GetByUser(userID); found {
		return orders, nil
	}

	orders, err := s.repo.GetOrdersByUser(ctx, userID)
	if err != nil {
		log.Error("failed to get orders from repository", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.SetUser(userID, orders)
	return orders, nil
}

// RestoreCache восстанавливает состояние кэша из хранилища при старте
func (s *OrderService) RestoreCache(ctx context.Context) error {
	const op = "service.OrderService.RestoreCache"
	log := s.log.With(slog.String("op", op))

	log.Info("starting cache restoration from repository")

	orders, err := s.repo.GetAllOrders(ctx)
	if err != nil {
		log.Error("failed to get all orders from repository", slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cache.LoadAll(orders)

	log.Info("cache restored successfully", slog.Int("orders_count", len(orders)))
	return nil
}
