package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/asquebay/shop-gateway/internal/cart"
	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/payment"
)

// Outcome: чем закончилась попытка оформления
type Outcome int

const (
	// OutcomeEmptyCart: корзина пуста, ничего не делали
	OutcomeEmptyCart Outcome = iota
	// OutcomeSucceeded: оплата прошла, корзина очищена
	OutcomeSucceeded
)

// CheckoutResult: итог успешного (или пустого) оформления
type CheckoutResult struct {
	Outcome      Outcome
	Confirmation *model.Confirmation
}

// CheckoutService проводит оплату корзины, запись заказа и очистку корзины
type CheckoutService struct {
	articles cart.ArticleSource
	payments PaymentCharger
	orders   OrderRecorder
	auth     TokenVerifier
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewCheckoutService создаёт новый экземпляр сервиса оформления заказа
func NewCheckoutService(
	articles cart.ArticleSource,
	payments PaymentCharger,
	orders OrderRecorder,
	auth TokenVerifier,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		articles: articles,
		payments: payments,
		orders:   orders,
		auth:     auth,
		log:      log,
		tracer:   otel.Tracer("github.com/asquebay/shop-gateway/service"),
		now:      time.Now,
	}
}

// Checkout оформляет корзину сессии
// ошибка оплаты (payment.ErrCircuitOpen или payment.ErrPaymentFailed) оставляет корзину как есть,
// ошибка записи заказа только логируется
func (s *CheckoutService) Checkout(ctx context.Context, sess *model.Session) (CheckoutResult, error) {
	const op = "service.CheckoutService.Checkout"
	log := s.log.With(slog.String("op", op), slog.String("session_id", sess.ID))

	ctx, span := s.tracer.Start(ctx, "checkout")
	defer span.End()

	// 1. Снимок корзины; пустая корзина не считается ошибкой
	ledger := cart.NewLedger(s.articles, &sess.Cart)
	items, total := ledger.Snapshot()
	if len(items) == 0 {
		return CheckoutResult{Outcome: OutcomeEmptyCart}, nil
	}
	span.SetAttributes(attribute.String("checkout.total", total.String()), attribute.Int("checkout.lines", len(items)))

	// 2. Оплата через breaker
	charge, err := s.payments.Charge(ctx, payment.ChargeRequest{Total: total, ItemCount: len(items)})
	if err != nil {
		log.Error("payment failed, cart preserved",
			slog.String("error", err.Error()),
			slog.String("total", total.String()),
		)
		span.SetStatus(codes.Error, "payment failed")
		return CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}
	paidAt := s.now().UTC()
	log = log.With(slog.String("transaction_id", charge.TransactionID))

	// 3. Если пользователь не определён, одна попытка узнать его по токену
	resolveUser(ctx, s.auth, sess, log)

	// 4. Запись заказа: best effort, ошибка не ломает оформление
	order := model.OrderRequest{
		Items:         items,
		Total:         &total,
		TransactionID: charge.TransactionID,
		DateTime:      paidAt,
	}
	if sess.HasUser() {
		uid := sess.UserID
		order.UserID = &uid
	}
	if err := s.orders.Record(ctx, order); err != nil {
		log.Error("failed to record order, checkout still reported as successful",
			slog.String("error", err.Error()),
		)
		span.AddEvent("order recording failed")
	}

	// 5. Фиксация: очищаем корзину и запоминаем подтверждение для следующей страницы
	confirmation := &model.Confirmation{
		Items:         items,
		Total:         total,
		TransactionID: charge.TransactionID,
	}
	ledger.Clear()
	sess.LastOrder = confirmation

	log.Info("checkout completed", slog.String("total", total.String()))
	return CheckoutResult{Outcome: OutcomeSucceeded, Confirmation: confirmation}, nil
}

// resolveUser один раз спрашивает сервис аутентификации, если user_id в сессии нет
// неудача не фатальна: заказ уйдёт с user_id = null
func resolveUser(ctx context.Context, auth TokenVerifier, sess *model.Session, log *slog.Logger) {
	if sess.HasUser() || sess.AccessToken == "" {
		return
	}
	identity, err := auth.Verify(ctx, sess.AccessToken)
	if err != nil {
		log.Warn("could not resolve user id", slog.String("error", err.Error()))
		return
	}
	sess.SetIdentity(identity)
}
