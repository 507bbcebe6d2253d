package events

import (
	"context"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"transit/internal/entities"
)

//go:generate mockgen -destination=mocks/tickets_repository_mock.go -package=mocks . TicketsRepository
type TicketsRepository interface {
	UpdatePaymentStatusByOrder(ctx context.Context, orderID uuid.UUID, status string) error
}

// PaymentProcessedHandler records the settlement outcome on the order's
// tickets. Overwriting with the same status on redelivery is harmless.
func PaymentProcessedHandler(repo TicketsRepository) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"record_order_payment_status_handler",
		func(ctx context.Context, event *entities.PaymentProcessed_v1) error {
			orderID, err := uuid.Parse(event.OrderID)
			if err != nil {
				log.FromContext(ctx).
					WithField("order_id", event.OrderID).
					Warn("Skipping payment event with malformed order id")
				return nil
			}

			return repo.UpdatePaymentStatusByOrder(ctx, orderID, event.Status)
		},
	)
}
