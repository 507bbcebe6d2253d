package gateway

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"transit/internal/domain/payments"
)

// WithBreaker wraps a Processor with a circuit breaker so a dead gateway
// fails fast instead of stalling every consumer on the delay. Declines do
// not trip the breaker, only transport errors do.
func WithBreaker(p Processor) Processor {
	return &breakerProcessor{
		next: p,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "payment-gateway",
		}),
	}
}

type breakerProcessor struct {
	next Processor
	cb   *gobreaker.CircuitBreaker
}

func (b *breakerProcessor) Process(ctx context.Context, amount decimal.Decimal, currency string, method payments.Method) (Outcome, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Process(ctx, amount, currency, method)
	})
	if err != nil {
		return Outcome{}, err
	}

	return res.(Outcome), nil
}
