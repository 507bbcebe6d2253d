package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"transit/internal/application/services"
)

type ValidateRequest struct {
	ScanToken string `json:"scan_token"`
	BusID     string `json:"bus_id"`
	Line      string `json:"line"`
}

type TicketSnapshotResponse struct {
	TicketID             uuid.UUID  `json:"ticket_id"`
	Status               string     `json:"status"`
	Class                string     `json:"ticket_class"`
	RemainingValidations int        `json:"remaining_validations"`
	ValidityEnd          *time.Time `json:"validity_end"`
}

func snapshotResponse(snap *services.TicketSnapshot) TicketSnapshotResponse {
	return TicketSnapshotResponse{
		TicketID:             snap.TicketID,
		Status:               string(snap.Status),
		Class:                string(snap.Class),
		RemainingValidations: snap.RemainingValidations,
		ValidityEnd:          snap.ValidityEnd,
	}
}

func (s *Server) ValidateHandler(c echo.Context) error {
	var request ValidateRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	if request.ScanToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "scan_token is required")
	}

	snap, err := s.validationService.Validate(c.Request().Context(), services.ValidateRequest{
		ScanToken: request.ScanToken,
		BusID:     request.BusID,
		Line:      request.Line,
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, snapshotResponse(snap))
}
