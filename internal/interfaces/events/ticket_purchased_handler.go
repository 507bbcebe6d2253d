package events

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"transit/internal/domain/payments"
	"transit/internal/entities"
	"transit/internal/infrastructure/gateway"
	"transit/internal/repository"
)

//go:generate mockgen -destination=mocks/payments_repository_mock.go -package=mocks . PaymentsRepository
type PaymentsRepository interface {
	Create(ctx context.Context, p *payments.Payment) error
	Update(ctx context.Context, p *payments.Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*payments.Payment, error)
}

type eventBus interface {
	Publish(ctx context.Context, event any) error
}

// TicketPurchasedHandler settles one order: it creates a payment, drives it
// through the gateway and publishes the terminal outcome. Redelivery of an
// already settled order is acked without side effects; an in-flight payment
// left behind by a crash is resumed from its persisted state.
func TicketPurchasedHandler(
	gw gateway.Processor,
	repo PaymentsRepository,
	bus eventBus,
) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"process_order_payment_handler",
		func(ctx context.Context, event *entities.TicketPurchased_v1) error {
			orderID, err := uuid.Parse(event.OrderID)
			if err != nil {
				log.FromContext(ctx).
					WithField("order_id", event.OrderID).
					Warn("Skipping settlement event with malformed order id")
				return nil
			}
			userID, err := uuid.Parse(event.UserID)
			if err != nil {
				log.FromContext(ctx).
					WithField("user_id", event.UserID).
					Warn("Skipping settlement event with malformed user id")
				return nil
			}
			ticketID, _ := uuid.Parse(event.TicketID)

			payment, err := findOrCreatePayment(ctx, repo, orderID, userID, ticketID, event)
			if err != nil {
				return err
			}
			if payment == nil {
				// already settled
				return nil
			}

			if payment.Status == payments.StatusPending {
				if err := payment.MarkProcessing(time.Now().UTC()); err != nil {
					return err
				}
				if err := repo.Update(ctx, payment); err != nil {
					return err
				}
			}

			outcome, err := gw.Process(ctx, payment.Amount, payment.Currency, payment.Method)
			if err != nil {
				// infrastructure failure: nack so the bus redelivers
				return err
			}

			now := time.Now().UTC()
			if outcome.Approved {
				if err := payment.MarkCompleted(now); err != nil {
					return err
				}
			} else {
				if err := payment.MarkFailed(outcome.DeclineReason, now); err != nil {
					return err
				}
			}

			if err := repo.Update(ctx, payment); err != nil {
				return err
			}

			log.FromContext(ctx).
				WithField("order_id", payment.OrderID).
				WithField("transaction_id", payment.TransactionID).
				WithField("status", payment.Status).
				Info("Payment settled")

			return bus.Publish(ctx, paymentProcessedEvent(payment))
		},
	)
}

func findOrCreatePayment(
	ctx context.Context,
	repo PaymentsRepository,
	orderID, userID, ticketID uuid.UUID,
	event *entities.TicketPurchased_v1,
) (*payments.Payment, error) {
	existing, err := repo.GetByOrderID(ctx, orderID)
	switch {
	case err == nil:
		if existing.IsTerminal() {
			log.FromContext(ctx).
				WithField("order_id", orderID).
				Info("Order already settled, skipping redelivered event")
			return nil, nil
		}
		return existing, nil

	case errors.Is(err, repository.ErrNotFound):
		payment := payments.NewPayment(
			orderID, userID, ticketID,
			event.Amount, event.Currency,
			payments.MethodCreditCard,
			time.Now().UTC(),
		)
		payment.Description = "Ticket purchase - " + event.TicketClass

		if err := repo.Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicateOrder) {
				// lost the race against a concurrent redelivery
				return nil, nil
			}
			return nil, err
		}
		return payment, nil

	default:
		return nil, err
	}
}

func paymentProcessedEvent(p *payments.Payment) entities.PaymentProcessed_v1 {
	var failureReason *string
	if p.Status == payments.StatusFailed {
		reason := p.FailureReason
		failureReason = &reason
	}

	return entities.PaymentProcessed_v1{
		Header:        entities.NewEventHeaderWithIdempotencyKey(p.OrderID.String()),
		PaymentID:     p.ID.String(),
		OrderID:       p.OrderID.String(),
		UserID:        p.UserID.String(),
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        string(p.Status),
		PaymentType:   p.PaymentType,
		FailureReason: failureReason,
	}
}
