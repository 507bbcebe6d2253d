package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/shopspring/decimal"

	domain "transit/internal/domain/tickets"
	"transit/internal/entities"
	"transit/internal/idempotency"
)

type TicketsCreator interface {
	CreateBatch(ctx context.Context, ts []*domain.Ticket) error
}

type eventBus interface {
	Publish(ctx context.Context, event any) error
}

// Order is the result of one purchase call. PaymentStatus starts PENDING and
// is settled asynchronously by the payment processor.
type Order struct {
	OrderID       uuid.UUID
	UserID        uuid.UUID
	Tickets       []*domain.Ticket
	TotalAmount   decimal.Decimal
	Currency      string
	PaymentStatus string
}

type PurchaseService struct {
	calc *domain.Calculator
	repo TicketsCreator
	bus  eventBus
}

func NewPurchaseService(
	calc *domain.Calculator,
	repo TicketsCreator,
	bus eventBus,
) *PurchaseService {
	return &PurchaseService{
		calc: calc,
		repo: repo,
		bus:  bus,
	}
}

// Purchase prices the order, persists all its tickets as one unit and then
// publishes exactly one settlement event keyed by the order id. If the store
// write fails nothing is published. If the publish fails the committed
// tickets stay in place for reconciliation and the error is reported to the
// caller.
func (s *PurchaseService) Purchase(ctx context.Context, userID uuid.UUID, class domain.Class, quantity int) (*Order, error) {
	quote, err := s.calc.Price(class, quantity)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	now := time.Now().UTC()

	tickets := make([]*domain.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		tickets = append(tickets, domain.NewTicket(
			userID,
			orderID,
			class,
			entities.Money{Amount: quote.PerTicket[i], Currency: quote.Currency},
			newScanToken(),
			now,
		))
	}

	if err := s.repo.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to persist order %s: %w", orderID, err)
	}

	event := entities.TicketPurchased_v1{
		Header:      entities.NewEventHeaderWithIdempotencyKey(idempotency.GetKey(ctx) + orderID.String()),
		TicketID:    tickets[0].ID.String(),
		TicketIDs:   ticketIDs(tickets),
		UserID:      userID.String(),
		OrderID:     orderID.String(),
		TicketClass: string(class),
		Amount:      quote.Total,
		Currency:    quote.Currency,
	}

	if err := s.bus.Publish(ctx, event); err != nil {
		log.FromContext(ctx).
			WithField("order_id", orderID).
			WithField("error", err).
			Error("Order persisted but settlement event not published")
		return nil, fmt.Errorf("failed to publish settlement event for order %s: %w", orderID, err)
	}

	return &Order{
		OrderID:       orderID,
		UserID:        userID,
		Tickets:       tickets,
		TotalAmount:   quote.Total,
		Currency:      quote.Currency,
		PaymentStatus: "PENDING",
	}, nil
}

func newScanToken() string {
	return "TKT-" + shortuuid.New()
}

func ticketIDs(ts []*domain.Ticket) []string {
	ids := make([]string, 0, len(ts))
	for _, t := range ts {
		ids = append(ids, t.ID.String())
	}
	return ids
}
