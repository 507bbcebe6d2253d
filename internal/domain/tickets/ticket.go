package tickets

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"transit/internal/entities"
)

type Class string

const (
	ClassSingle  Class = "SINGLE"
	ClassDaily   Class = "DAILY"
	ClassWeekly  Class = "WEEKLY"
	ClassMonthly Class = "MONTHLY"
)

func ParseClass(s string) (Class, error) {
	switch Class(s) {
	case ClassSingle, ClassDaily, ClassWeekly, ClassMonthly:
		return Class(s), nil
	}
	return "", ErrUnknownClass
}

type Status string

const (
	StatusPurchased Status = "PURCHASED"
	StatusActive    Status = "ACTIVE"
	StatusUsed      Status = "USED"
	StatusExpired   Status = "EXPIRED"
)

var (
	ErrUnknownClass           = errors.New("unknown ticket class")
	ErrInvalidTransition      = errors.New("invalid ticket transition")
	ErrNotActive              = errors.New("ticket is not active")
	ErrExpired                = errors.New("ticket has expired")
	ErrNoValidationsRemaining = errors.New("no validations remaining")
)

// unlimitedValidations marks period passes, which are gated by validity end
// instead of a use count.
const unlimitedValidations = math.MaxInt32

// ScanContext identifies where a validation happened. It is carried into the
// TicketValidated analytics event.
type ScanContext struct {
	BusID string
	Line  string
}

// Ticket is the aggregate for one unit of transit access. Status moves only
// forward: PURCHASED -> ACTIVE -> USED or EXPIRED.
type Ticket struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	OrderID              uuid.UUID
	Class                Class
	Status               Status
	Price                entities.Money
	ValidityStart        *time.Time
	ValidityEnd          *time.Time
	RemainingValidations int
	PurchasedAt          time.Time
	ActivatedAt          *time.Time
	ScanToken            string
	PaymentStatus        string
}

func NewTicket(userID, orderID uuid.UUID, class Class, price entities.Money, scanToken string, now time.Time) *Ticket {
	return &Ticket{
		ID:            uuid.New(),
		UserID:        userID,
		OrderID:       orderID,
		Class:         class,
		Status:        StatusPurchased,
		Price:         price,
		PurchasedAt:   now,
		ScanToken:     scanToken,
		PaymentStatus: "PENDING",
	}
}

// Activate starts the validity window. Legal only from PURCHASED.
func (t *Ticket) Activate(now time.Time) error {
	if t.Status != StatusPurchased {
		return ErrInvalidTransition
	}

	end := t.validityEnd(now)

	t.Status = StatusActive
	t.ActivatedAt = &now
	t.ValidityStart = &now
	t.ValidityEnd = &end

	if t.Class == ClassSingle {
		t.RemainingValidations = 1
	} else {
		t.RemainingValidations = unlimitedValidations
	}

	return nil
}

// Validate consumes one use. It may transition the ticket to EXPIRED or USED
// as a side effect of a failed scan; callers must persist the ticket even
// when an error is returned.
func (t *Ticket) Validate(now time.Time, _ ScanContext) error {
	if t.Status != StatusActive {
		return ErrNotActive
	}

	if now.After(*t.ValidityEnd) {
		t.Status = StatusExpired
		return ErrExpired
	}

	if t.RemainingValidations <= 0 {
		t.Status = StatusUsed
		return ErrNoValidationsRemaining
	}

	t.RemainingValidations--

	if t.RemainingValidations == 0 && t.Class == ClassSingle {
		t.Status = StatusUsed
	}

	return nil
}

func (t *Ticket) IsValid(now time.Time) bool {
	return t.Status == StatusActive &&
		!now.After(*t.ValidityEnd) &&
		t.RemainingValidations > 0
}

func (t *Ticket) validityEnd(start time.Time) time.Time {
	switch t.Class {
	case ClassSingle:
		return start.Add(2 * time.Hour)
	case ClassDaily:
		return start.Add(24 * time.Hour)
	case ClassWeekly:
		return start.Add(7 * 24 * time.Hour)
	case ClassMonthly:
		return start.AddDate(0, 1, 0)
	}
	return start
}
