package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	domain "transit/internal/domain/tickets"
)

type TicketResponse struct {
	TicketID             uuid.UUID       `json:"ticket_id"`
	UserID               uuid.UUID       `json:"user_id"`
	OrderID              uuid.UUID       `json:"order_id"`
	Class                string          `json:"ticket_class"`
	Status               string          `json:"status"`
	PriceAmount          decimal.Decimal `json:"price_amount"`
	PriceCurrency        string          `json:"price_currency"`
	ValidityStart        *time.Time      `json:"validity_start"`
	ValidityEnd          *time.Time      `json:"validity_end"`
	RemainingValidations int             `json:"remaining_validations"`
	ScanToken            string          `json:"scan_token"`
	PaymentStatus        string          `json:"payment_status"`
}

func ticketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:             t.ID,
		UserID:               t.UserID,
		OrderID:              t.OrderID,
		Class:                string(t.Class),
		Status:               string(t.Status),
		PriceAmount:          t.Price.Amount,
		PriceCurrency:        t.Price.Currency,
		ValidityStart:        t.ValidityStart,
		ValidityEnd:          t.ValidityEnd,
		RemainingValidations: t.RemainingValidations,
		ScanToken:            t.ScanToken,
		PaymentStatus:        t.PaymentStatus,
	}
}

func (s *Server) GetTicketHandler(c echo.Context) error {
	ticketID, err := uuid.Parse(c.Param("ticket_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ticket_id")
	}

	t, err := s.ticketsService.GetTicket(c.Request().Context(), ticketID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ticketResponse(t))
}

func (s *Server) GetUserTicketsHandler(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	ts, err := s.ticketsService.GetUserTickets(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	resp := make([]TicketResponse, 0, len(ts))
	for _, t := range ts {
		resp = append(resp, ticketResponse(t))
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) ActivateHandler(c echo.Context) error {
	ticketID, err := uuid.Parse(c.Param("ticket_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ticket_id")
	}

	snap, err := s.ticketsService.Activate(c.Request().Context(), ticketID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, snapshotResponse(snap))
}
