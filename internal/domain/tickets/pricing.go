package tickets

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// PricingConfig carries the base price table and discount policy. Values come
// from service configuration, not package constants.
type PricingConfig struct {
	BasePrices map[Class]decimal.Decimal
	Currency   string

	// SmallQty/BulkQty are the quantities at which the respective discount
	// percentages start to apply.
	SmallQty     int
	SmallPercent int64
	BulkQty      int
	BulkPercent  int64
}

// Quote is the result of pricing one order. The per-ticket prices always sum
// exactly to Total: the division remainder lands on the last ticket.
type Quote struct {
	Total     decimal.Decimal
	PerTicket []decimal.Decimal
	Currency  string
}

type Calculator struct {
	cfg PricingConfig
}

func NewCalculator(cfg PricingConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

func (c *Calculator) Price(class Class, quantity int) (Quote, error) {
	if quantity < 1 {
		return Quote{}, ErrInvalidQuantity
	}

	base, ok := c.cfg.BasePrices[class]
	if !ok {
		return Quote{}, ErrUnknownClass
	}

	total := base.Mul(decimal.NewFromInt(int64(quantity)))

	switch {
	case quantity >= c.cfg.BulkQty:
		total = applyDiscount(total, c.cfg.BulkPercent)
	case quantity >= c.cfg.SmallQty:
		total = applyDiscount(total, c.cfg.SmallPercent)
	}

	total = total.Round(2)

	per := total.DivRound(decimal.NewFromInt(int64(quantity)), 2)

	perTicket := make([]decimal.Decimal, quantity)
	for i := range perTicket {
		perTicket[i] = per
	}
	perTicket[quantity-1] = total.Sub(per.Mul(decimal.NewFromInt(int64(quantity - 1))))

	return Quote{
		Total:     total,
		PerTicket: perTicket,
		Currency:  c.cfg.Currency,
	}, nil
}

func applyDiscount(amount decimal.Decimal, percent int64) decimal.Decimal {
	discount := amount.Mul(decimal.NewFromInt(percent)).Div(decimal.NewFromInt(100))
	return amount.Sub(discount)
}
