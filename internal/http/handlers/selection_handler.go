package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/phishsim/backend/internal/http/dto"
	"github.com/phishsim/backend/internal/middleware"
	"github.com/phishsim/backend/internal/models"
	"github.com/phishsim/backend/internal/selection"
	"github.com/phishsim/backend/internal/services"
	"go.uber.org/zap"
)

type SelectionHandler struct {
	selectionService *services.SelectionService
	log              *zap.Logger
}

func NewSelectionHandler(selectionService *services.SelectionService, log *zap.Logger) *SelectionHandler {
	return &SelectionHandler{selectionService: selectionService, log: log}
}

func (h *SelectionHandler) Select(c *fiber.Ctx) error {
	var req dto.SelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if req.EmployeeID == "" || req.Scenario.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "employee_id and scenario.id are required"})
	}

	in := selection.Input{
		TenantID:    middleware.GetTenantID(c).String(),
		CampaignID:  req.CampaignID,
		EmployeeID:  req.EmployeeID,
		Scenario:    req.Scenario,
		History:     parseHistory(req.History),
		Constraints: req.Constraints,
	}

	sel, selCtx, err := h.selectionService.Select(c.Context(), in)
	if err != nil {
		h.log.Error("selection failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("scenario_id", req.Scenario.ID),
			zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SelectionResponse{Selection: sel, Context: selCtx})
}

// parseHistory converts wire entries, dropping ones with unparseable dates.
func parseHistory(entries []dto.SelectionHistoryEntry) []models.SelectionRecord {
	var history []models.SelectionRecord
	for _, e := range entries {
		date, err := time.Parse(time.RFC3339, e.Date)
		if err != nil {
			continue
		}
		history = append(history, models.SelectionRecord{
			PayloadType:   e.PayloadType,
			DesignVariant: e.DesignVariant,
			Date:          date,
		})
	}
	return history
}
