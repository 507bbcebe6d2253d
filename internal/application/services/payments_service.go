package services

import (
	"context"

	"github.com/google/uuid"

	domain "transit/internal/domain/payments"
	"transit/internal/repository"
)

type PaymentsRepository interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error)
	Stats(ctx context.Context) (*repository.PaymentStats, error)
}

// PaymentsService answers read queries about settlement outcomes.
type PaymentsService struct {
	repo PaymentsRepository
}

func NewPaymentsService(repo PaymentsRepository) *PaymentsService {
	return &PaymentsService{repo: repo}
}

func (s *PaymentsService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *PaymentsService) GetByTransaction(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return s.repo.GetByTransactionID(ctx, transactionID)
}

func (s *PaymentsService) GetUserPayments(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *PaymentsService) GetStats(ctx context.Context) (*repository.PaymentStats, error) {
	return s.repo.Stats(ctx)
}
