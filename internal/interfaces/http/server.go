package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"transit/internal/application/services"
)

type Server struct {
	e    *echo.Echo
	addr string

	purchaseService   *services.PurchaseService
	ticketsService    *services.TicketsService
	validationService *services.ValidationService
	paymentsService   *services.PaymentsService
}

func NewServer(
	e *echo.Echo,
	addr string,
	purchaseService *services.PurchaseService,
	ticketsService *services.TicketsService,
	validationService *services.ValidationService,
	paymentsService *services.PaymentsService,
	routerIsRunning func() bool,
) *Server {
	srv := &Server{
		e:                 e,
		addr:              addr,
		purchaseService:   purchaseService,
		ticketsService:    ticketsService,
		validationService: validationService,
		paymentsService:   paymentsService,
	}

	e.POST("/tickets/purchase", srv.PurchaseHandler)
	e.POST("/tickets/:ticket_id/activate", srv.ActivateHandler)
	e.POST("/tickets/validate", srv.ValidateHandler)
	e.GET("/tickets/:ticket_id", srv.GetTicketHandler)
	e.GET("/users/:user_id/tickets", srv.GetUserTicketsHandler)

	e.GET("/payments/order/:order_id", srv.GetOrderPaymentHandler)
	e.GET("/payments/transaction/:transaction_id", srv.GetTransactionPaymentHandler)
	e.GET("/payments/user/:user_id", srv.GetUserPaymentsHandler)
	e.GET("/payments/stats", srv.GetPaymentStatsHandler)

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})

	// logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log.FromContext(c.Request().Context()).
				WithField("path", c.Request().URL.Path).
				Info("Handling a request")

			err := next(c)

			if err != nil {
				log.FromContext(c.Request().Context()).
					WithField("error", err).
					Error("Request handling error")
			}

			return err
		}
	})
	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
