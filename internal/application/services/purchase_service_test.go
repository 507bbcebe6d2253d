package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "transit/internal/domain/tickets"
	"transit/internal/entities"
	"transit/internal/repository"
)

type fakeBus struct {
	mu         sync.Mutex
	events     []any
	publishErr error
}

func (b *fakeBus) Publish(_ context.Context, event any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.publishErr != nil {
		return b.publishErr
	}
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) published() []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]any(nil), b.events...)
}

func testCalculator() *domain.Calculator {
	return domain.NewCalculator(domain.PricingConfig{
		BasePrices: map[domain.Class]decimal.Decimal{
			domain.ClassSingle:  decimal.RequireFromString("2.50"),
			domain.ClassDaily:   decimal.RequireFromString("10.00"),
			domain.ClassWeekly:  decimal.RequireFromString("35.00"),
			domain.ClassMonthly: decimal.RequireFromString("120.00"),
		},
		Currency:     "USD",
		SmallQty:     5,
		SmallPercent: 5,
		BulkQty:      10,
		BulkPercent:  10,
	})
}

func TestPurchaseService_Purchase(t *testing.T) {
	t.Run("two monthly tickets publish one settlement event with the order total", func(t *testing.T) {
		repo := repository.NewInMemoryTicketsRepo()
		bus := &fakeBus{}
		svc := NewPurchaseService(testCalculator(), repo, bus)

		userID := uuid.New()
		order, err := svc.Purchase(context.Background(), userID, domain.ClassMonthly, 2)
		require.NoError(t, err)

		assert.Len(t, order.Tickets, 2)
		assert.Equal(t, "240.00", order.TotalAmount.StringFixed(2))
		assert.Equal(t, "PENDING", order.PaymentStatus)

		tokens := map[string]bool{}
		for _, tkt := range order.Tickets {
			assert.Equal(t, domain.StatusPurchased, tkt.Status)
			assert.Equal(t, order.OrderID, tkt.OrderID)
			assert.Equal(t, userID, tkt.UserID)
			tokens[tkt.ScanToken] = true

			stored, err := repo.GetByID(context.Background(), tkt.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusPurchased, stored.Status)
		}
		assert.Len(t, tokens, 2, "scan tokens must be unique")

		events := bus.published()
		require.Len(t, events, 1)

		event, ok := events[0].(entities.TicketPurchased_v1)
		require.True(t, ok)
		assert.Equal(t, order.OrderID.String(), event.OrderID)
		assert.Equal(t, order.OrderID.String(), event.PartitionKey())
		assert.Equal(t, "240.00", event.Amount.StringFixed(2))
		assert.Equal(t, "MONTHLY", event.TicketClass)
		assert.Len(t, event.TicketIDs, 2)
		assert.Equal(t, event.TicketIDs[0], event.TicketID)
	})

	t.Run("per-ticket prices of one order sum to the total", func(t *testing.T) {
		repo := repository.NewInMemoryTicketsRepo()
		bus := &fakeBus{}
		svc := NewPurchaseService(testCalculator(), repo, bus)

		order, err := svc.Purchase(context.Background(), uuid.New(), domain.ClassSingle, 7)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, tkt := range order.Tickets {
			sum = sum.Add(tkt.Price.Amount)
		}
		assert.True(t, sum.Equal(order.TotalAmount),
			"ticket prices sum %s != order total %s", sum, order.TotalAmount)
	})

	t.Run("invalid quantity is rejected before any write", func(t *testing.T) {
		repo := repository.NewInMemoryTicketsRepo()
		bus := &fakeBus{}
		svc := NewPurchaseService(testCalculator(), repo, bus)

		_, err := svc.Purchase(context.Background(), uuid.New(), domain.ClassSingle, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		assert.Empty(t, bus.published())
	})

	t.Run("store failure publishes nothing", func(t *testing.T) {
		repo := repository.NewInMemoryTicketsRepo()
		repo.FailCreates = 1
		bus := &fakeBus{}
		svc := NewPurchaseService(testCalculator(), repo, bus)

		_, err := svc.Purchase(context.Background(), uuid.New(), domain.ClassSingle, 3)
		require.Error(t, err)
		assert.Empty(t, bus.published())
	})

	t.Run("publish failure is reported to the caller", func(t *testing.T) {
		repo := repository.NewInMemoryTicketsRepo()
		bus := &fakeBus{publishErr: errors.New("bus unavailable")}
		svc := NewPurchaseService(testCalculator(), repo, bus)

		_, err := svc.Purchase(context.Background(), uuid.New(), domain.ClassSingle, 1)
		assert.Error(t, err)
	})
}
