package payments

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusRefunded   Status = "REFUNDED"
	StatusCancelled  Status = "CANCELLED"
)

type Method string

const (
	MethodCreditCard Method = "CREDIT_CARD"
	MethodDebitCard  Method = "DEBIT_CARD"
	MethodWallet     Method = "WALLET"
)

const TypeTicketPurchase = "TICKET_PURCHASE"

var ErrInvalidPaymentTransition = errors.New("invalid payment transition")

// Payment records the settlement outcome for one order. Amount and currency
// are copied verbatim from the triggering purchase event and never
// recomputed. TransactionID is assigned at creation and immutable.
type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	UserID        uuid.UUID
	TicketID      uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	Status        Status
	Method        Method
	TransactionID string
	PaymentType   string
	Description   string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewPayment(orderID, userID, ticketID uuid.UUID, amount decimal.Decimal, currency string, method Method, now time.Time) *Payment {
	return &Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		UserID:        userID,
		TicketID:      ticketID,
		Amount:        amount,
		Currency:      currency,
		Status:        StatusPending,
		Method:        method,
		TransactionID: newTransactionID(),
		PaymentType:   TypeTicketPurchase,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newTransactionID() string {
	return "TXN-" + strings.ToUpper(uuid.NewString()[:13])
}

func (p *Payment) MarkProcessing(now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidPaymentTransition
	}

	p.Status = StatusProcessing
	p.UpdatedAt = now
	return nil
}

func (p *Payment) MarkCompleted(now time.Time) error {
	if p.Status != StatusProcessing {
		return ErrInvalidPaymentTransition
	}

	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
	return nil
}

func (p *Payment) MarkFailed(reason string, now time.Time) error {
	if p.Status != StatusProcessing {
		return ErrInvalidPaymentTransition
	}

	p.Status = StatusFailed
	p.FailureReason = reason
	p.UpdatedAt = now
	return nil
}

// MarkRefunded is the administrative path out of COMPLETED; it is not part
// of the automated settlement flow.
func (p *Payment) MarkRefunded(now time.Time) error {
	if p.Status != StatusCompleted {
		return ErrInvalidPaymentTransition
	}

	p.Status = StatusRefunded
	p.UpdatedAt = now
	return nil
}

// MarkCancelled is the administrative path out of PENDING.
func (p *Payment) MarkCancelled(now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidPaymentTransition
	}

	p.Status = StatusCancelled
	p.UpdatedAt = now
	return nil
}

func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusCompleted, StatusFailed, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}
