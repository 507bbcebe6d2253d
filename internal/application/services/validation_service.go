package services

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	domain "transit/internal/domain/tickets"
	"transit/internal/entities"
)

type ValidationTicketsRepository interface {
	GetByScanToken(ctx context.Context, token string) (*domain.Ticket, error)
	Update(ctx context.Context, t *domain.Ticket, expectedStatus domain.Status, expectedRemaining int) error
}

// ValidateRequest is one bus-side QR scan.
type ValidateRequest struct {
	ScanToken string
	BusID     string
	Line      string
}

type TicketSnapshot struct {
	TicketID             uuid.UUID
	Status               domain.Status
	Class                domain.Class
	RemainingValidations int
	ValidityEnd          *time.Time
}

type ValidationService struct {
	repo  ValidationTicketsRepository
	bus   eventBus
	locks *KeyedMutex
	now   func() time.Time
}

func NewValidationService(
	repo ValidationTicketsRepository,
	bus eventBus,
	locks *KeyedMutex,
) *ValidationService {
	return &ValidationService{
		repo:  repo,
		bus:   bus,
		locks: locks,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Validate consumes one use of the ticket behind the scan token. Mutations
// are serialized per ticket id; the aggregate state is reloaded under the
// lock so a racing scan observes the outcome of the winner.
func (s *ValidationService) Validate(ctx context.Context, req ValidateRequest) (*TicketSnapshot, error) {
	t, err := s.repo.GetByScanToken(ctx, req.ScanToken)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(t.ID.String())
	defer unlock()

	t, err = s.repo.GetByScanToken(ctx, req.ScanToken)
	if err != nil {
		return nil, err
	}

	prevStatus := t.Status
	prevRemaining := t.RemainingValidations

	now := s.now()
	validateErr := t.Validate(now, domain.ScanContext{BusID: req.BusID, Line: req.Line})

	// a failed scan may still have transitioned the ticket to EXPIRED or
	// USED; that transition has to be persisted too
	if t.Status != prevStatus || t.RemainingValidations != prevRemaining {
		if err := s.repo.Update(ctx, t, prevStatus, prevRemaining); err != nil {
			return nil, err
		}
	}

	if validateErr != nil {
		return nil, validateErr
	}

	err = s.bus.Publish(ctx, entities.TicketValidated_v1{
		Header:               entities.NewEventHeader(),
		TicketID:             t.ID.String(),
		BusID:                req.BusID,
		Line:                 req.Line,
		RemainingValidations: t.RemainingValidations,
		ValidatedAt:          now,
	})
	if err != nil {
		// analytics only, the scan itself already succeeded
		log.FromContext(ctx).
			WithField("ticket_id", t.ID).
			WithField("error", err).
			Warn("Failed to publish validation event")
	}

	return snapshot(t), nil
}

func snapshot(t *domain.Ticket) *TicketSnapshot {
	return &TicketSnapshot{
		TicketID:             t.ID,
		Status:               t.Status,
		Class:                t.Class,
		RemainingValidations: t.RemainingValidations,
		ValidityEnd:          t.ValidityEnd,
	}
}
