package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asquebay/shop-gateway/internal/lib/logger"
	"github.com/asquebay/shop-gateway/internal/model"
)

var errScripted = errors.New("scripted failure")

// scriptedProvider возвращает заранее заданные результаты по очереди,
// после конца сценария отвечает успехом
type scriptedProvider struct {
	mu      sync.Mutex
	script  []bool
	calls   atomic.Int32
	delay   time.Duration
	started chan struct{}
}

func newScripted(outcomes ...bool) *scriptedProvider {
	return &scriptedProvider{script: outcomes}
}

func (p *scriptedProvider) Charge(_ context.Context, _ ChargeRequest) (ChargeResult, error) {
	n := p.calls.Add(1)
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	ok := true
	if len(p.script) > 0 {
		ok = p.script[0]
		p.script = p.script[1:]
	}
	p.mu.Unlock()

	if !ok {
		return ChargeResult{}, errScripted
	}
	return ChargeResult{TransactionID: fmt.Sprintf("tx-%d", n)}, nil
}

func newTestBreaker(p Provider, open time.Duration) *Breaker {
	return NewBreaker(p, BreakerSettings{Name: "test", FailureThreshold: 3, OpenDuration: open}, logger.Discard())
}

var req = ChargeRequest{Total: model.NewMoney("159.80"), ItemCount: 1}

func TestBreaker_TripsAfterThreeConsecutiveFailures(t *testing.T) {
	p := newScripted(false, false, false)
	b := newTestBreaker(p, time.Hour)

	for i := 0; i < 3; i++ {
		_, err := b.Charge(context.Background(), req)
		require.ErrorIs(t, err, ErrPaymentFailed)
		require.ErrorIs(t, err, errScripted)
	}

	st := b.State()
	assert.Equal(t, PhaseOpen, st.Phase)
	require.NotNil(t, st.OpenedAt)

	for i := 0; i < 5; i++ {
		_, err := b.Charge(context.Background(), req)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.NotErrorIs(t, err, ErrPaymentFailed)
	}
	assert.Equal(t, int32(3), p.calls.Load(), "rejected calls must not reach the provider")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	p := newScripted(false, false, true, false, false)
	b := newTestBreaker(p, time.Hour)

	for i := 0; i < 2; i++ {
		_, _ = b.Charge(context.Background(), req)
	}
	assert.Equal(t, uint32(2), b.State().ConsecutiveFailures)

	res, err := b.Charge(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, res.TransactionID)
	assert.Equal(t, uint32(0), b.State().ConsecutiveFailures)

	for i := 0; i < 2; i++ {
		_, _ = b.Charge(context.Background(), req)
	}
	assert.Equal(t, PhaseClosed, b.State().Phase)
}

func TestBreaker_HalfOpenTrialSuccessCloses(t *testing.T) {
	p := newScripted(false, false, false, true)
	b := newTestBreaker(p, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, _ = b.Charge(context.Background(), req)
	}
	require.Equal(t, PhaseOpen, b.State().Phase)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, PhaseHalfOpen, b.State().Phase)

	_, err := b.Charge(context.Background(), req)
	require.NoError(t, err)

	st := b.State()
	assert.Equal(t, PhaseClosed, st.Phase)
	assert.Equal(t, uint32(0), st.ConsecutiveFailures)
	assert.Nil(t, st.OpenedAt)
	assert.Equal(t, int32(4), p.calls.Load())
}

func TestBreaker_HalfOpenTrialFailureReopens(t *testing.T) {
	p := newScripted(false, false, false, false)
	b := newTestBreaker(p, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, _ = b.Charge(context.Background(), req)
	}
	firstOpen := b.State().OpenedAt
	require.NotNil(t, firstOpen)

	time.Sleep(80 * time.Millisecond)

	_, err := b.Charge(context.Background(), req)
	require.ErrorIs(t, err, ErrPaymentFailed)

	st := b.State()
	assert.Equal(t, PhaseOpen, st.Phase)
	require.NotNil(t, st.OpenedAt)
	assert.True(t, st.OpenedAt.After(*firstOpen), "open timer must restart")

	_, err = b.Charge(context.Background(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(4), p.calls.Load())
}

func TestBreaker_HalfOpenLetsExactlyOneCallThrough(t *testing.T) {
	p := newScripted(false, false, false, true)
	b := newTestBreaker(p, 30*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, _ = b.Charge(context.Background(), req)
	}
	time.Sleep(50 * time.Millisecond)

	// пробный вызов висит, пока остальные пытаются пройти
	p.delay = 100 * time.Millisecond
	p.started = make(chan struct{}, 10)

	trialDone := make(chan error, 1)
	go func() {
		_, err := b.Charge(context.Background(), req)
		trialDone <- err
	}()
	<-p.started

	var wg sync.WaitGroup
	var rejected atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Charge(context.Background(), req); errors.Is(err, ErrCircuitOpen) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, <-trialDone)
	assert.Equal(t, int32(8), rejected.Load())
	assert.Equal(t, int32(4), p.calls.Load())
	assert.Equal(t, PhaseClosed, b.State().Phase)
}

func TestBreaker_ConcurrentFailuresTransitionOnce(t *testing.T) {
	p := newScripted(make([]bool, 20)...)
	var logs bytes.Buffer
	b := NewBreaker(p, BreakerSettings{Name: "race", FailureThreshold: 3, OpenDuration: time.Hour},
		logger.NewWithWriter(&logs, "info", "text"))

	var rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Charge(context.Background(), req)
			if errors.Is(err, ErrCircuitOpen) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	st := b.State()
	assert.Equal(t, PhaseOpen, st.Phase)
	assert.Equal(t, int32(20), p.calls.Load()+rejected.Load())
	assert.GreaterOrEqual(t, p.calls.Load(), int32(3))
	assert.Equal(t, 1, strings.Count(logs.String(), "circuit breaker opened"))
}
