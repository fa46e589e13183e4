package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrBankUnavailable: смоделированный отказ банка
var ErrBankUnavailable = errors.New("bank did not respond (simulated)")

// BankSettings задаёт задержку и вероятность отказа симулятора
type BankSettings struct {
	FailureRate float64
	MinLatency  time.Duration
	MaxLatency  time.Duration
}

// SimulatedBank: ненадёжный платёжный провайдер с внесёнными задержками и отказами
type SimulatedBank struct {
	settings BankSettings
	rand     func() float64
	sleep    func(time.Duration)
	now      func() time.Time
}

// BankOption переопределяет источники случайности и времени
type BankOption func(*SimulatedBank)

// WithRand подставляет генератор чисел из [0, 1)
func WithRand(f func() float64) BankOption {
	return func(b *SimulatedBank) { b.rand = f }
}

// WithSleep подставляет функцию ожидания
func WithSleep(f func(time.Duration)) BankOption {
	return func(b *SimulatedBank) { b.sleep = f }
}

// WithClock подставляет часы
func WithClock(f func() time.Time) BankOption {
	return func(b *SimulatedBank) { b.now = f }
}

// NewSimulatedBank создаёт симулятор банка
func NewSimulatedBank(st BankSettings, opts ...BankOption) *SimulatedBank {
	b := &SimulatedBank{
		settings: st,
		rand:     rand.Float64,
		sleep:    time.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Charge ждёт случайную задержку и с заданной вероятностью падает
// контекст не прерывает ожидание: банк отвечает или не отвечает сам
func (b *SimulatedBank) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	const op = "payment.SimulatedBank.Charge"

	b.sleep(b.latency())

	if b.rand() < b.settings.FailureRate {
		return ChargeResult{}, fmt.Errorf("%s: total %s: %w", op, req.Total, ErrBankUnavailable)
	}

	return ChargeResult{TransactionID: fmt.Sprintf("tx-%d", b.now().Unix())}, nil
}

func (b *SimulatedBank) latency() time.Duration {
	spread := b.settings.MaxLatency - b.settings.MinLatency
	if spread <= 0 {
		return b.settings.MinLatency
	}
	return b.settings.MinLatency + time.Duration(b.rand()*float64(spread))
}
