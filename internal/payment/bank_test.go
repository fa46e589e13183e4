package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asquebay/shop-gateway/internal/model"
)

func newTestBank(r float64, slept *time.Duration) *SimulatedBank {
	return NewSimulatedBank(
		BankSettings{FailureRate: 0.45, MinLatency: 50 * time.Millisecond, MaxLatency: 300 * time.Millisecond},
		WithRand(func() float64 { return r }),
		WithSleep(func(d time.Duration) { *slept = d }),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
}

func TestSimulatedBank_Success(t *testing.T) {
	var slept time.Duration
	bank := newTestBank(0.5, &slept)

	res, err := bank.Charge(context.Background(), ChargeRequest{Total: model.NewMoney("159.80"), ItemCount: 1})
	require.NoError(t, err)
	assert.Equal(t, "tx-1700000000", res.TransactionID)
	assert.Equal(t, 175*time.Millisecond, slept)
}

func TestSimulatedBank_InjectedFailure(t *testing.T) {
	var slept time.Duration
	bank := newTestBank(0.1, &slept)

	_, err := bank.Charge(context.Background(), ChargeRequest{Total: model.NewMoney("10")})
	assert.ErrorIs(t, err, ErrBankUnavailable)
	assert.Equal(t, 75*time.Millisecond, slept)
}

func TestSimulatedBank_FixedLatencyWhenRangeEmpty(t *testing.T) {
	var slept time.Duration
	bank := NewSimulatedBank(
		BankSettings{FailureRate: 0, MinLatency: 10 * time.Millisecond, MaxLatency: 10 * time.Millisecond},
		WithSleep(func(d time.Duration) { slept = d }),
	)

	_, err := bank.Charge(context.Background(), ChargeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, slept)
}

func TestBreaker_WrapsSimulatedBankFailures(t *testing.T) {
	var slept time.Duration
	b := newTestBreaker(newTestBank(0.0, &slept), time.Hour)

	for i := 0; i < 3; i++ {
		_, err := b.Charge(context.Background(), req)
		require.ErrorIs(t, err, ErrBankUnavailable)
	}
	_, err := b.Charge(context.Background(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
