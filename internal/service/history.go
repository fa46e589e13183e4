package service

import (
	"context"
	"log/slog"

	"github.com/asquebay/shop-gateway/internal/model"
)

// HistoryService отдаёт историю заказов пользователя сессии
type HistoryService struct {
	orders OrderLister
	auth   TokenVerifier
	log    *slog.Logger
}

// NewHistoryService создаёт новый экземпляр сервиса истории
func NewHistoryService(orders OrderLister, auth TokenVerifier, log *slog.Logger) *HistoryService {
	return &HistoryService{
		orders: orders,
		auth:   auth,
		log:    log,
	}
}

// Orders возвращает заказы пользователя; любые ошибки логируются и дают пустой список
func (s *HistoryService) Orders(ctx context.Context, sess *model.Session) []model.Order {
	const op = "service.HistoryService.Orders"
	log := s.log.With(slog.String("op", op), slog.String("session_id", sess.ID))

	resolveUser(ctx, s.auth, sess, log)
	if !sess.HasUser() {
		return []model.Order{}
	}

	orders, err := s.orders.ListByUser(ctx, sess.UserID)
	if err != nil {
		log.Error("failed to load order history", slog.String("error", err.Error()))
		return []model.Order{}
	}
	return orders
}
