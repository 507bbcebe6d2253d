package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	domain "transit/internal/domain/payments"
)

// ErrDuplicateOrder reports an insert for an order that already has a
// payment. The unique constraint on order_id is the dedupe guard against
// redelivered settlement events.
var ErrDuplicateOrder = errors.New("payment already exists for order")

type Payment struct {
	ID            uuid.UUID       `db:"payment_id"`
	OrderID       uuid.UUID       `db:"order_id"`
	UserID        uuid.UUID       `db:"user_id"`
	TicketID      uuid.NullUUID   `db:"ticket_id"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Status        string          `db:"status"`
	Method        string          `db:"payment_method"`
	TransactionID string          `db:"transaction_id"`
	PaymentType   string          `db:"payment_type"`
	Description   string          `db:"description"`
	FailureReason string          `db:"failure_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	CompletedAt   sql.NullTime    `db:"completed_at"`
}

// PaymentStats aggregates settlement outcomes for reporting.
type PaymentStats struct {
	Total     int64           `db:"total"`
	Completed int64           `db:"completed"`
	Failed    int64           `db:"failed"`
	Pending   int64           `db:"pending"`
	Revenue   decimal.Decimal `db:"revenue"`
}

type PaymentsRepo struct {
	db *sqlx.DB
}

func NewPaymentsRepo(db *sqlx.DB) *PaymentsRepo {
	return &PaymentsRepo{db: db}
}

func (r *PaymentsRepo) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO payments (
			payment_id, order_id, user_id, ticket_id, amount, currency,
			status, payment_method, transaction_id, payment_type,
			description, failure_reason, created_at, updated_at, completed_at
		) VALUES (
			:payment_id, :order_id, :user_id, :ticket_id, :amount, :currency,
			:status, :payment_method, :transaction_id, :payment_type,
			:description, :failure_reason, :created_at, :updated_at, :completed_at
		)`, paymentToModel(p))

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicateOrder
	}
	return err
}

func (r *PaymentsRepo) Update(ctx context.Context, p *domain.Payment) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE payments SET
			status = :status,
			failure_reason = :failure_reason,
			updated_at = :updated_at,
			completed_at = :completed_at
		WHERE payment_id = :payment_id`, paymentToModel(p))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PaymentsRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	var m Payment
	err := r.db.GetContext(ctx, &m, `SELECT * FROM payments WHERE order_id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return paymentToDomain(&m), nil
}

func (r *PaymentsRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	var m Payment
	err := r.db.GetContext(ctx, &m, `SELECT * FROM payments WHERE transaction_id = $1`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return paymentToDomain(&m), nil
}

func (r *PaymentsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	var ms []Payment
	err := r.db.SelectContext(ctx, &ms,
		`SELECT * FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	ps := make([]*domain.Payment, 0, len(ms))
	for i := range ms {
		ps = append(ps, paymentToDomain(&ms[i]))
	}
	return ps, nil
}

func (r *PaymentsRepo) Stats(ctx context.Context) (*PaymentStats, error) {
	var stats PaymentStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
			COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
			COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
			COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0) AS revenue
		FROM payments`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func paymentToModel(p *domain.Payment) *Payment {
	return &Payment{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		TicketID:      uuid.NullUUID{UUID: p.TicketID, Valid: p.TicketID != uuid.Nil},
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        string(p.Status),
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		PaymentType:   p.PaymentType,
		Description:   p.Description,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		CompletedAt:   nullTime(p.CompletedAt),
	}
}

func paymentToDomain(m *Payment) *domain.Payment {
	return &domain.Payment{
		ID:            m.ID,
		OrderID:       m.OrderID,
		UserID:        m.UserID,
		TicketID:      m.TicketID.UUID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		Status:        domain.Status(m.Status),
		Method:        domain.Method(m.Method),
		TransactionID: m.TransactionID,
		PaymentType:   m.PaymentType,
		Description:   m.Description,
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CompletedAt:   timePtr(m.CompletedAt),
	}
}
