package gateway

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/internal/domain/payments"
)

func TestSimulated_SuccessRate(t *testing.T) {
	gw := NewSimulated(Config{
		SuccessRatePercent: 95,
		Delay:              0,
	}, rand.NewSource(1))

	amount := decimal.RequireFromString("10.00")

	approved := 0
	for i := 0; i < 1000; i++ {
		outcome, err := gw.Process(context.Background(), amount, "USD", payments.MethodCreditCard)
		require.NoError(t, err)

		if outcome.Approved {
			approved++
			assert.Empty(t, outcome.DeclineReason)
		} else {
			assert.Equal(t, "Simulated payment failure", outcome.DeclineReason)
		}
	}

	// binomial(1000, 0.95) is ~6.9 wide per sigma, 925..975 is > 3 sigma
	assert.Greater(t, approved, 925)
	assert.Less(t, approved, 975)
}

func TestSimulated_RateBounds(t *testing.T) {
	amount := decimal.RequireFromString("10.00")

	alwaysFail := NewSimulated(Config{SuccessRatePercent: 0}, rand.NewSource(1))
	for i := 0; i < 50; i++ {
		outcome, err := alwaysFail.Process(context.Background(), amount, "USD", payments.MethodCreditCard)
		require.NoError(t, err)
		assert.False(t, outcome.Approved)
	}

	alwaysApprove := NewSimulated(Config{SuccessRatePercent: 100}, rand.NewSource(1))
	for i := 0; i < 50; i++ {
		outcome, err := alwaysApprove.Process(context.Background(), amount, "USD", payments.MethodCreditCard)
		require.NoError(t, err)
		assert.True(t, outcome.Approved)
	}
}

func TestSimulated_ContextCancelDuringDelay(t *testing.T) {
	gw := NewSimulated(Config{
		SuccessRatePercent: 95,
		Delay:              time.Minute,
	}, rand.NewSource(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gw.Process(ctx, decimal.RequireFromString("10.00"), "USD", payments.MethodCreditCard)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
