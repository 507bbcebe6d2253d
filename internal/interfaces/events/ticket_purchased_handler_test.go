package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/internal/domain/payments"
	"transit/internal/entities"
	"transit/internal/infrastructure/gateway"
	"transit/internal/repository"
)

type stubGateway struct {
	mu      sync.Mutex
	outcome gateway.Outcome
	err     error
	calls   int
}

func (s *stubGateway) Process(_ context.Context, _ decimal.Decimal, _ string, _ payments.Method) (gateway.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.outcome, s.err
}

type fakeBus struct {
	mu     sync.Mutex
	events []any
}

func (b *fakeBus) Publish(_ context.Context, event any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) published() []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]any(nil), b.events...)
}

func purchasedEvent() *entities.TicketPurchased_v1 {
	ticketID := uuid.NewString()
	return &entities.TicketPurchased_v1{
		Header:      entities.NewEventHeader(),
		TicketID:    ticketID,
		TicketIDs:   []string{ticketID},
		UserID:      uuid.NewString(),
		OrderID:     uuid.NewString(),
		TicketClass: "MONTHLY",
		Amount:      decimal.RequireFromString("240.00"),
		Currency:    "USD",
	}
}

func TestTicketPurchasedHandler(t *testing.T) {
	t.Run("approved charge completes the payment", func(t *testing.T) {
		repo := repository.NewInMemoryPaymentsRepo()
		bus := &fakeBus{}
		gw := &stubGateway{outcome: gateway.Outcome{Approved: true}}
		handler := TicketPurchasedHandler(gw, repo, bus)

		event := purchasedEvent()
		require.NoError(t, handler.Handle(context.Background(), event))

		orderID := uuid.MustParse(event.OrderID)
		payment, err := repo.GetByOrderID(context.Background(), orderID)
		require.NoError(t, err)

		assert.Equal(t, payments.StatusCompleted, payment.Status)
		assert.Equal(t, "240.00", payment.Amount.StringFixed(2))
		assert.Equal(t, "USD", payment.Currency)
		assert.NotEmpty(t, payment.TransactionID)
		require.NotNil(t, payment.CompletedAt)

		published := bus.published()
		require.Len(t, published, 1)
		processed, ok := published[0].(entities.PaymentProcessed_v1)
		require.True(t, ok)
		assert.Equal(t, event.OrderID, processed.OrderID)
		assert.Equal(t, "COMPLETED", processed.Status)
		assert.Equal(t, payment.TransactionID, processed.TransactionID)
		assert.Nil(t, processed.FailureReason)
	})

	t.Run("declined charge fails the payment with a reason", func(t *testing.T) {
		repo := repository.NewInMemoryPaymentsRepo()
		bus := &fakeBus{}
		gw := &stubGateway{outcome: gateway.Outcome{
			Approved:      false,
			DeclineReason: "Simulated payment failure",
		}}
		handler := TicketPurchasedHandler(gw, repo, bus)

		event := purchasedEvent()
		require.NoError(t, handler.Handle(context.Background(), event))

		payment, err := repo.GetByOrderID(context.Background(), uuid.MustParse(event.OrderID))
		require.NoError(t, err)
		assert.Equal(t, payments.StatusFailed, payment.Status)
		assert.Equal(t, "Simulated payment failure", payment.FailureReason)

		published := bus.published()
		require.Len(t, published, 1)
		processed := published[0].(entities.PaymentProcessed_v1)
		assert.Equal(t, "FAILED", processed.Status)
		require.NotNil(t, processed.FailureReason)
		assert.Equal(t, "Simulated payment failure", *processed.FailureReason)
	})

	t.Run("redelivery of a settled order is a no-op", func(t *testing.T) {
		repo := repository.NewInMemoryPaymentsRepo()
		bus := &fakeBus{}
		gw := &stubGateway{outcome: gateway.Outcome{Approved: true}}
		handler := TicketPurchasedHandler(gw, repo, bus)

		event := purchasedEvent()
		require.NoError(t, handler.Handle(context.Background(), event))
		require.NoError(t, handler.Handle(context.Background(), event))

		payment, err := repo.GetByOrderID(context.Background(), uuid.MustParse(event.OrderID))
		require.NoError(t, err)
		assert.Equal(t, payments.StatusCompleted, payment.Status)

		assert.Equal(t, 1, gw.calls, "gateway must not be charged twice")
		assert.Len(t, bus.published(), 1, "outcome event must not be duplicated")
	})

	t.Run("gateway infrastructure failure is returned for redelivery", func(t *testing.T) {
		repo := repository.NewInMemoryPaymentsRepo()
		bus := &fakeBus{}
		gw := &stubGateway{err: errors.New("gateway unreachable")}
		handler := TicketPurchasedHandler(gw, repo, bus)

		event := purchasedEvent()
		require.Error(t, handler.Handle(context.Background(), event))
		assert.Empty(t, bus.published())

		// the in-flight payment is resumed on redelivery
		payment, err := repo.GetByOrderID(context.Background(), uuid.MustParse(event.OrderID))
		require.NoError(t, err)
		assert.Equal(t, payments.StatusProcessing, payment.Status)

		gw.err = nil
		gw.outcome = gateway.Outcome{Approved: true}
		require.NoError(t, handler.Handle(context.Background(), event))

		payment, err = repo.GetByOrderID(context.Background(), uuid.MustParse(event.OrderID))
		require.NoError(t, err)
		assert.Equal(t, payments.StatusCompleted, payment.Status)
	})

	t.Run("malformed order id is skipped", func(t *testing.T) {
		repo := repository.NewInMemoryPaymentsRepo()
		bus := &fakeBus{}
		gw := &stubGateway{outcome: gateway.Outcome{Approved: true}}
		handler := TicketPurchasedHandler(gw, repo, bus)

		event := purchasedEvent()
		event.OrderID = "not-an-id"

		require.NoError(t, handler.Handle(context.Background(), event))
		assert.Zero(t, gw.calls)
		assert.Empty(t, bus.published())
	})
}

func TestPaymentProcessedHandler(t *testing.T) {
	repo := repository.NewInMemoryTicketsRepo()
	handler := PaymentProcessedHandler(repo)

	orderID := uuid.New()
	err := handler.Handle(context.Background(), &entities.PaymentProcessed_v1{
		Header:  entities.NewEventHeader(),
		OrderID: orderID.String(),
		Status:  "COMPLETED",
	})
	require.NoError(t, err)

	err = handler.Handle(context.Background(), &entities.PaymentProcessed_v1{
		Header:  entities.NewEventHeader(),
		OrderID: "not-an-id",
		Status:  "COMPLETED",
	})
	assert.NoError(t, err)
}
