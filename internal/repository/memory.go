package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	paymentsdomain "transit/internal/domain/payments"
	ticketsdomain "transit/internal/domain/tickets"
)

var errStoreFailure = errors.New("simulated store failure")

// In-memory repository implementations with the same locking and
// compare-and-set semantics as the Postgres ones. Used by unit tests that
// exercise real concurrency, where generated mocks would not do.

type InMemoryTicketsRepo struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*ticketsdomain.Ticket
	byToken map[string]uuid.UUID

	// FailCreates makes CreateBatch fail after persisting this many tickets,
	// simulating a partial store failure. Zero disables it.
	FailCreates int
	createCalls int
}

func NewInMemoryTicketsRepo() *InMemoryTicketsRepo {
	return &InMemoryTicketsRepo{
		byID:    map[uuid.UUID]*ticketsdomain.Ticket{},
		byToken: map[string]uuid.UUID{},
	}
}

func (r *InMemoryTicketsRepo) Create(ctx context.Context, t *ticketsdomain.Ticket) error {
	return r.CreateBatch(ctx, []*ticketsdomain.Ticket{t})
}

func (r *InMemoryTicketsRepo) CreateBatch(_ context.Context, ts []*ticketsdomain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range ts {
		if r.FailCreates > 0 && r.createCalls >= r.FailCreates {
			return errStoreFailure
		}
		r.createCalls++

		c := *t
		r.byID[t.ID] = &c
		r.byToken[t.ScanToken] = t.ID
	}
	return nil
}

func (r *InMemoryTicketsRepo) GetByID(_ context.Context, id uuid.UUID) (*ticketsdomain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *InMemoryTicketsRepo) GetByScanToken(_ context.Context, token string) (*ticketsdomain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

func (r *InMemoryTicketsRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*ticketsdomain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ts []*ticketsdomain.Ticket
	for _, t := range r.byID {
		if t.UserID == userID {
			c := *t
			ts = append(ts, &c)
		}
	}
	return ts, nil
}

func (r *InMemoryTicketsRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*ticketsdomain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ts []*ticketsdomain.Ticket
	for _, t := range r.byID {
		if t.OrderID == orderID {
			c := *t
			ts = append(ts, &c)
		}
	}
	return ts, nil
}

func (r *InMemoryTicketsRepo) Update(_ context.Context, t *ticketsdomain.Ticket, expectedStatus ticketsdomain.Status, expectedRemaining int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[t.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != expectedStatus || stored.RemainingValidations != expectedRemaining {
		return ErrNotFound
	}

	c := *t
	r.byID[t.ID] = &c
	return nil
}

func (r *InMemoryTicketsRepo) UpdatePaymentStatusByOrder(_ context.Context, orderID uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.byID {
		if t.OrderID == orderID {
			t.PaymentStatus = status
		}
	}
	return nil
}

type InMemoryPaymentsRepo struct {
	mu      sync.RWMutex
	byOrder map[uuid.UUID]*paymentsdomain.Payment
}

func NewInMemoryPaymentsRepo() *InMemoryPaymentsRepo {
	return &InMemoryPaymentsRepo{
		byOrder: map[uuid.UUID]*paymentsdomain.Payment{},
	}
}

func (r *InMemoryPaymentsRepo) Create(_ context.Context, p *paymentsdomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOrder[p.OrderID]; ok {
		return ErrDuplicateOrder
	}
	c := *p
	r.byOrder[p.OrderID] = &c
	return nil
}

func (r *InMemoryPaymentsRepo) Update(_ context.Context, p *paymentsdomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOrder[p.OrderID]; !ok {
		return ErrNotFound
	}
	c := *p
	r.byOrder[p.OrderID] = &c
	return nil
}

func (r *InMemoryPaymentsRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*paymentsdomain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byOrder[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *InMemoryPaymentsRepo) GetByTransactionID(_ context.Context, transactionID string) (*paymentsdomain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byOrder {
		if p.TransactionID == transactionID {
			c := *p
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryPaymentsRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*paymentsdomain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ps []*paymentsdomain.Payment
	for _, p := range r.byOrder {
		if p.UserID == userID {
			c := *p
			ps = append(ps, &c)
		}
	}
	return ps, nil
}

func (r *InMemoryPaymentsRepo) Stats(_ context.Context) (*PaymentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &PaymentStats{}
	for _, p := range r.byOrder {
		stats.Total++
		switch p.Status {
		case paymentsdomain.StatusCompleted:
			stats.Completed++
			stats.Revenue = stats.Revenue.Add(p.Amount)
		case paymentsdomain.StatusFailed:
			stats.Failed++
		case paymentsdomain.StatusPending:
			stats.Pending++
		}
	}
	return stats, nil
}
