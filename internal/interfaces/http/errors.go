package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	paymentsdomain "transit/internal/domain/payments"
	ticketsdomain "transit/internal/domain/tickets"
	"transit/internal/repository"
)

// domainError maps domain failures onto HTTP statuses: bad input is 400,
// unknown entities are 404, state-machine violations are 409.
func domainError(err error) error {
	switch {
	case errors.Is(err, ticketsdomain.ErrInvalidQuantity),
		errors.Is(err, ticketsdomain.ErrUnknownClass):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, ticketsdomain.ErrInvalidTransition),
		errors.Is(err, ticketsdomain.ErrNotActive),
		errors.Is(err, ticketsdomain.ErrExpired),
		errors.Is(err, ticketsdomain.ErrNoValidationsRemaining),
		errors.Is(err, paymentsdomain.ErrInvalidPaymentTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	return err
}
