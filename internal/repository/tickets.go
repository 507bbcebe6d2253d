package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"transit/internal/entities"
	domain "transit/internal/domain/tickets"
)

// Ticket is the persistence model for the ticket aggregate.
type Ticket struct {
	ID                   uuid.UUID       `db:"ticket_id"`
	UserID               uuid.UUID       `db:"user_id"`
	OrderID              uuid.UUID       `db:"order_id"`
	Class                string          `db:"class"`
	Status               string          `db:"status"`
	PriceAmount          decimal.Decimal `db:"price_amount"`
	PriceCurrency        string          `db:"price_currency"`
	ValidityStart        sql.NullTime    `db:"validity_start"`
	ValidityEnd          sql.NullTime    `db:"validity_end"`
	RemainingValidations int             `db:"remaining_validations"`
	PurchasedAt          time.Time       `db:"purchased_at"`
	ActivatedAt          sql.NullTime    `db:"activated_at"`
	ScanToken            string          `db:"scan_token"`
	PaymentStatus        string          `db:"payment_status"`
}

type TicketsRepo struct {
	db *sqlx.DB
}

func NewTicketsRepo(db *sqlx.DB) *TicketsRepo {
	return &TicketsRepo{db: db}
}

const insertTicketQuery = `
	INSERT INTO tickets (
		ticket_id, user_id, order_id, class, status,
		price_amount, price_currency,
		validity_start, validity_end, remaining_validations,
		purchased_at, activated_at, scan_token, payment_status
	) VALUES (
		:ticket_id, :user_id, :order_id, :class, :status,
		:price_amount, :price_currency,
		:validity_start, :validity_end, :remaining_validations,
		:purchased_at, :activated_at, :scan_token, :payment_status
	)`

func (r *TicketsRepo) Create(ctx context.Context, t *domain.Ticket) error {
	_, err := r.db.NamedExecContext(ctx, insertTicketQuery, domainToModel(t))
	return err
}

// CreateBatch inserts all tickets of one order in a single transaction so a
// partially persisted order is structurally impossible.
func (r *TicketsRepo) CreateBatch(ctx context.Context, ts []*domain.Ticket) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range ts {
		if _, err := tx.NamedExecContext(ctx, insertTicketQuery, domainToModel(t)); err != nil {
			return fmt.Errorf("failed to insert ticket %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

func (r *TicketsRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	var m Ticket
	err := r.db.GetContext(ctx, &m, `SELECT * FROM tickets WHERE ticket_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return modelToDomain(&m), nil
}

func (r *TicketsRepo) GetByScanToken(ctx context.Context, token string) (*domain.Ticket, error) {
	var m Ticket
	err := r.db.GetContext(ctx, &m, `SELECT * FROM tickets WHERE scan_token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return modelToDomain(&m), nil
}

func (r *TicketsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Ticket, error) {
	var ms []Ticket
	err := r.db.SelectContext(ctx, &ms,
		`SELECT * FROM tickets WHERE user_id = $1 ORDER BY purchased_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	ts := make([]*domain.Ticket, 0, len(ms))
	for i := range ms {
		ts = append(ts, modelToDomain(&ms[i]))
	}
	return ts, nil
}

func (r *TicketsRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Ticket, error) {
	var ms []Ticket
	err := r.db.SelectContext(ctx, &ms,
		`SELECT * FROM tickets WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}

	ts := make([]*domain.Ticket, 0, len(ms))
	for i := range ms {
		ts = append(ts, modelToDomain(&ms[i]))
	}
	return ts, nil
}

// Update persists the mutable part of the aggregate guarded by a
// compare-and-set on status so two racing scans cannot both consume the same
// use: the losing writer sees zero affected rows.
func (r *TicketsRepo) Update(ctx context.Context, t *domain.Ticket, expectedStatus domain.Status, expectedRemaining int) error {
	m := domainToModel(t)
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET
			status = $1,
			validity_start = $2,
			validity_end = $3,
			remaining_validations = $4,
			activated_at = $5,
			payment_status = $6
		WHERE ticket_id = $7 AND status = $8 AND remaining_validations = $9`,
		m.Status, m.ValidityStart, m.ValidityEnd, m.RemainingValidations,
		m.ActivatedAt, m.PaymentStatus,
		m.ID, string(expectedStatus), expectedRemaining,
	)
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

func (r *TicketsRepo) UpdatePaymentStatusByOrder(ctx context.Context, orderID uuid.UUID, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET payment_status = $1 WHERE order_id = $2`, status, orderID)
	return err
}

func domainToModel(t *domain.Ticket) *Ticket {
	return &Ticket{
		ID:                   t.ID,
		UserID:               t.UserID,
		OrderID:              t.OrderID,
		Class:                string(t.Class),
		Status:               string(t.Status),
		PriceAmount:          t.Price.Amount,
		PriceCurrency:        t.Price.Currency,
		ValidityStart:        nullTime(t.ValidityStart),
		ValidityEnd:          nullTime(t.ValidityEnd),
		RemainingValidations: t.RemainingValidations,
		PurchasedAt:          t.PurchasedAt,
		ActivatedAt:          nullTime(t.ActivatedAt),
		ScanToken:            t.ScanToken,
		PaymentStatus:        t.PaymentStatus,
	}
}

func modelToDomain(m *Ticket) *domain.Ticket {
	return &domain.Ticket{
		ID:      m.ID,
		UserID:  m.UserID,
		OrderID: m.OrderID,
		Class:   domain.Class(m.Class),
		Status:  domain.Status(m.Status),
		Price: entities.Money{
			Amount:   m.PriceAmount,
			Currency: m.PriceCurrency,
		},
		ValidityStart:        timePtr(m.ValidityStart),
		ValidityEnd:          timePtr(m.ValidityEnd),
		RemainingValidations: m.RemainingValidations,
		PurchasedAt:          m.PurchasedAt,
		ActivatedAt:          timePtr(m.ActivatedAt),
		ScanToken:            m.ScanToken,
		PaymentStatus:        m.PaymentStatus,
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
