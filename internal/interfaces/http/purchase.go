package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	domain "transit/internal/domain/tickets"
	"transit/internal/idempotency"
)

type PurchaseRequest struct {
	UserID      string `json:"user_id"`
	TicketClass string `json:"ticket_class"`
	Quantity    int    `json:"quantity"`
}

type PurchaseResponse struct {
	OrderID       uuid.UUID        `json:"order_id"`
	UserID        uuid.UUID        `json:"user_id"`
	Tickets       []TicketResponse `json:"tickets"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Currency      string           `json:"currency"`
	PaymentStatus string           `json:"payment_status"`
}

func (s *Server) PurchaseHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request PurchaseRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	if idempotencyKey := c.Request().Header.Get("Idempotency-Key"); idempotencyKey != "" {
		ctx = idempotency.WithKey(ctx, idempotencyKey)
	}

	userID, err := uuid.Parse(request.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	class, err := domain.ParseClass(request.TicketClass)
	if err != nil {
		return domainError(err)
	}

	order, err := s.purchaseService.Purchase(ctx, userID, class, request.Quantity)
	if err != nil {
		return domainError(err)
	}

	tickets := make([]TicketResponse, 0, len(order.Tickets))
	for _, t := range order.Tickets {
		tickets = append(tickets, ticketResponse(t))
	}

	return c.JSON(http.StatusCreated, PurchaseResponse{
		OrderID:       order.OrderID,
		UserID:        order.UserID,
		Tickets:       tickets,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		PaymentStatus: order.PaymentStatus,
	})
}
