package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/asquebay/shop-gateway/internal/model"
)

var (
	// ErrCircuitOpen: breaker отклонил вызов, до провайдера запрос не дошёл
	ErrCircuitOpen = errors.New("payment circuit is open")
	// ErrPaymentFailed: провайдер вернул ошибку; такие ошибки считаются breaker-ом
	ErrPaymentFailed = errors.New("payment failed")
)

// ChargeRequest: что списываем
type ChargeRequest struct {
	Total     model.Money
	ItemCount int
}

// ChargeResult: результат успешного списания
type ChargeResult struct {
	TransactionID string
}

// Provider: внешний платёжный шлюз
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// Phase: фаза breaker-а
type Phase string

const (
	PhaseClosed   Phase = "closed"
	PhaseOpen     Phase = "open"
	PhaseHalfOpen Phase = "half-open"
)

// CircuitState: снимок состояния breaker-а
type CircuitState struct {
	Phase               Phase      `json:"phase"`
	ConsecutiveFailures uint32     `json:"consecutive_failures"`
	OpenedAt            *time.Time `json:"opened_at"`
}

// BreakerSettings задаёт порог срабатывания и время в open
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenDuration     time.Duration
}

// Breaker оборачивает Provider в circuit breaker
// состояние общее для всех запросов процесса
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[ChargeResult]
	log      *slog.Logger
	tracer   trace.Tracer

	transitions metric.Int64Counter
	rejections  metric.Int64Counter

	mu       sync.Mutex
	openedAt *time.Time
}

// NewBreaker создаёт breaker вокруг провайдера
func NewBreaker(provider Provider, st BreakerSettings, log *slog.Logger) *Breaker {
	if st.Name == "" {
		st.Name = "bank_api_breaker"
	}

	meter := otel.Meter("github.com/asquebay/shop-gateway/payment")
	b := &Breaker{
		provider:    provider,
		log:         log.With(slog.String("component", "payment_breaker"), slog.String("breaker", st.Name)),
		tracer:      otel.Tracer("github.com/asquebay/shop-gateway/payment"),
		transitions: int64Counter(meter, "payment.breaker.transitions", "circuit breaker phase transitions"),
		rejections:  int64Counter(meter, "payment.breaker.rejections", "charges rejected without calling the provider"),
	}

	threshold := st.FailureThreshold
	b.cb = gobreaker.NewCircuitBreaker[ChargeResult](gobreaker.Settings{
		Name: st.Name,
		// в half-open пропускается ровно один пробный вызов
		MaxRequests: 1,
		// в closed счётчики не сбрасываются по времени, только успехом
		Interval: 0,
		Timeout:  st.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: b.onStateChange,
	})

	return b
}

// Charge списывает деньги через провайдера, если breaker это разрешает
func (b *Breaker) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	const op = "payment.Breaker.Charge"

	ctx, span := b.tracer.Start(ctx, "payment.charge")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.total", req.Total.String()),
		attribute.Int("payment.item_count", req.ItemCount),
	)

	res, err := b.cb.Execute(func() (ChargeResult, error) {
		return b.provider.Charge(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.rejections.Add(ctx, 1)
			span.SetStatus(codes.Error, "circuit open")
			return ChargeResult{}, fmt.Errorf("%s: %w", op, ErrCircuitOpen)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "charge failed")
		return ChargeResult{}, fmt.Errorf("%s: %w: %w", op, ErrPaymentFailed, err)
	}

	span.SetAttributes(attribute.String("payment.transaction_id", res.TransactionID))
	return res, nil
}

// State возвращает текущий снимок состояния
// истёкший open при чтении переходит в half-open
func (b *Breaker) State() CircuitState {
	// gobreaker вызывает onStateChange под своим мьютексом,
	// поэтому b.mu берём только после того, как он отпущен
	phase := toPhase(b.cb.State())
	counts := b.cb.Counts()

	b.mu.Lock()
	defer b.mu.Unlock()

	st := CircuitState{
		Phase:               phase,
		ConsecutiveFailures: counts.ConsecutiveFailures,
	}
	if b.openedAt != nil {
		t := *b.openedAt
		st.OpenedAt = &t
	}
	return st
}

func (b *Breaker) onStateChange(name string, from, to gobreaker.State) {
	b.mu.Lock()
	switch to {
	case gobreaker.StateOpen:
		now := time.Now().UTC()
		b.openedAt = &now
	case gobreaker.StateClosed:
		b.openedAt = nil
	}
	b.mu.Unlock()

	b.transitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))

	if to == gobreaker.StateOpen {
		b.log.Warn("circuit breaker opened", slog.String("from", from.String()))
		return
	}
	b.log.Info("circuit breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
}

func toPhase(s gobreaker.State) Phase {
	switch s {
	case gobreaker.StateOpen:
		return PhaseOpen
	case gobreaker.StateHalfOpen:
		return PhaseHalfOpen
	default:
		return PhaseClosed
	}
}

func int64Counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}
