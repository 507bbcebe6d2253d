package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	domain "transit/internal/domain/payments"
)

type PaymentResponse struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Method        string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	PaymentType   string          `json:"payment_type"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
}

type PaymentStatsResponse struct {
	Total     int64           `json:"total_payments"`
	Completed int64           `json:"completed_payments"`
	Failed    int64           `json:"failed_payments"`
	Pending   int64           `json:"pending_payments"`
	Revenue   decimal.Decimal `json:"total_revenue"`
}

func paymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        string(p.Status),
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		PaymentType:   p.PaymentType,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.CompletedAt,
	}
}

func (s *Server) GetOrderPaymentHandler(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}

	p, err := s.paymentsService.GetByOrder(c.Request().Context(), orderID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, paymentResponse(p))
}

func (s *Server) GetTransactionPaymentHandler(c echo.Context) error {
	p, err := s.paymentsService.GetByTransaction(c.Request().Context(), c.Param("transaction_id"))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, paymentResponse(p))
}

func (s *Server) GetUserPaymentsHandler(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}

	ps, err := s.paymentsService.GetUserPayments(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	resp := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		resp = append(resp, paymentResponse(p))
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) GetPaymentStatsHandler(c echo.Context) error {
	stats, err := s.paymentsService.GetStats(c.Request().Context())
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, PaymentStatsResponse{
		Total:     stats.Total,
		Completed: stats.Completed,
		Failed:    stats.Failed,
		Pending:   stats.Pending,
		Revenue:   stats.Revenue,
	})
}
