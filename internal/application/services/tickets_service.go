package services

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	domain "transit/internal/domain/tickets"
	"transit/internal/entities"
)

type TicketsRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Ticket, error)
	Update(ctx context.Context, t *domain.Ticket, expectedStatus domain.Status, expectedRemaining int) error
}

type TicketsService struct {
	repo  TicketsRepository
	bus   eventBus
	locks *KeyedMutex
	now   func() time.Time
}

func NewTicketsService(
	repo TicketsRepository,
	bus eventBus,
	locks *KeyedMutex,
) *TicketsService {
	return &TicketsService{
		repo:  repo,
		bus:   bus,
		locks: locks,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Activate starts the ticket's validity window.
func (s *TicketsService) Activate(ctx context.Context, ticketID uuid.UUID) (*TicketSnapshot, error) {
	unlock := s.locks.Lock(ticketID.String())
	defer unlock()

	t, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	prevStatus := t.Status
	prevRemaining := t.RemainingValidations

	if err := t.Activate(s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t, prevStatus, prevRemaining); err != nil {
		return nil, err
	}

	err = s.bus.Publish(ctx, entities.TicketActivated_v1{
		Header:        entities.NewEventHeader(),
		TicketID:      t.ID.String(),
		UserID:        t.UserID.String(),
		TicketClass:   string(t.Class),
		ValidityStart: *t.ValidityStart,
		ValidityEnd:   *t.ValidityEnd,
	})
	if err != nil {
		log.FromContext(ctx).
			WithField("ticket_id", t.ID).
			WithField("error", err).
			Warn("Failed to publish activation event")
	}

	return snapshot(t), nil
}

func (s *TicketsService) GetTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Ticket, error) {
	return s.repo.GetByID(ctx, ticketID)
}

func (s *TicketsService) GetUserTickets(ctx context.Context, userID uuid.UUID) ([]*domain.Ticket, error) {
	return s.repo.ListByUser(ctx, userID)
}
