package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"transit/internal/domain/payments"
)

// Outcome is the gateway's answer for one charge attempt. A decline is a
// business outcome, not an error; errors are reserved for infrastructure
// failures.
type Outcome struct {
	Approved      bool
	DeclineReason string
}

// Processor is the capability a real payment gateway integration would
// implement.
type Processor interface {
	Process(ctx context.Context, amount decimal.Decimal, currency string, method payments.Method) (Outcome, error)
}

type Config struct {
	SuccessRatePercent int
	Delay              time.Duration
}

// Simulated approves a configurable percentage of charges after a bounded
// artificial delay. The draw source is injectable so tests can seed it.
type Simulated struct {
	cfg Config

	mu   sync.Mutex
	rand *rand.Rand
}

func NewSimulated(cfg Config, src rand.Source) *Simulated {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Simulated{
		cfg:  cfg,
		rand: rand.New(src),
	}
}

func (s *Simulated) Process(ctx context.Context, _ decimal.Decimal, _ string, _ payments.Method) (Outcome, error) {
	if s.cfg.Delay > 0 {
		select {
		case <-time.After(s.cfg.Delay):
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
	}

	if s.draw() < s.cfg.SuccessRatePercent {
		return Outcome{Approved: true}, nil
	}

	return Outcome{
		Approved:      false,
		DeclineReason: "Simulated payment failure",
	}, nil
}

func (s *Simulated) draw() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(100)
}
