package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event interface {
	IsInternal() bool
	PartitionKey() string
}

// TicketPurchased_v1 is the settlement event published after a purchase
// commits. It carries the aggregate order amount, not a single ticket's
// price. TicketID holds the first ticket of the order for consumers that
// expect a representative id; TicketIDs is authoritative.
type TicketPurchased_v1 struct {
	Header EventHeader `json:"header"`

	TicketID    string          `json:"ticket_id"`
	TicketIDs   []string        `json:"ticket_ids"`
	UserID      string          `json:"user_id"`
	OrderID     string          `json:"order_id"`
	TicketClass string          `json:"ticket_class"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

func (t TicketPurchased_v1) IsInternal() bool {
	return false
}

func (t TicketPurchased_v1) PartitionKey() string {
	return t.OrderID
}

// PaymentProcessed_v1 is published by the payment processor once a payment
// reaches a terminal state. FailureReason is set only when Status is FAILED.
type PaymentProcessed_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	PaymentType   string          `json:"payment_type"`
	FailureReason *string         `json:"failure_reason"`
}

func (p PaymentProcessed_v1) IsInternal() bool {
	return false
}

func (p PaymentProcessed_v1) PartitionKey() string {
	return p.OrderID
}

// TicketActivated_v1 records the start of a ticket's validity window.
type TicketActivated_v1 struct {
	Header EventHeader `json:"header"`

	TicketID      string    `json:"ticket_id"`
	UserID        string    `json:"user_id"`
	TicketClass   string    `json:"ticket_class"`
	ValidityStart time.Time `json:"validity_start"`
	ValidityEnd   time.Time `json:"validity_end"`
}

func (t TicketActivated_v1) IsInternal() bool {
	return false
}

func (t TicketActivated_v1) PartitionKey() string {
	return t.TicketID
}

// TicketValidated_v1 is the analytics record emitted on a successful bus
// scan.
type TicketValidated_v1 struct {
	Header EventHeader `json:"header"`

	TicketID             string    `json:"ticket_id"`
	BusID                string    `json:"bus_id"`
	Line                 string    `json:"line"`
	RemainingValidations int       `json:"remaining_validations"`
	ValidatedAt          time.Time `json:"validated_at"`
}

func (t TicketValidated_v1) IsInternal() bool {
	return false
}

func (t TicketValidated_v1) PartitionKey() string {
	return t.TicketID
}
