package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/http/dto"
	"github.com/phishsim/backend/internal/middleware"
	"github.com/phishsim/backend/internal/models"
	"github.com/phishsim/backend/internal/repositories"
	"github.com/phishsim/backend/internal/services"
	"go.uber.org/zap"
)

type TargetHandler struct {
	targetService *services.TargetService
	targetRepo    *repositories.TargetRepo
	log           *zap.Logger
}

func NewTargetHandler(targetService *services.TargetService, targetRepo *repositories.TargetRepo, log *zap.Logger) *TargetHandler {
	return &TargetHandler{targetService: targetService, targetRepo: targetRepo, log: log}
}

// CreateCampaign registers a campaign shell under the caller's tenant.
func (h *TargetHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name is required"})
	}

	campaign := &models.Campaign{
		TenantID:       middleware.GetTenantID(c),
		Name:           req.Name,
		ScenarioID:     req.ScenarioID,
		DestinationURL: req.DestinationURL,
	}
	if err := h.targetService.CreateCampaign(c.Context(), campaign); err != nil {
		h.log.Error("campaign creation failed", zap.String("name", req.Name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

// DeleteCampaign retires a campaign and, via cascade, its targets.
func (h *TargetHandler) DeleteCampaign(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	if err := h.targetService.DeleteCampaign(c.Context(), campaignID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
		}
		h.log.Error("campaign deletion failed", zap.String("campaign_id", campaignID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CreateTargets is the Target Registry surface for campaign-creation glue:
// one tracked link per employee, all-or-nothing.
func (h *TargetHandler) CreateTargets(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	var req dto.CreateTargetsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if len(req.EmployeeIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "employee_ids is required"})
	}

	employeeIDs := make([]uuid.UUID, 0, len(req.EmployeeIDs))
	for _, raw := range req.EmployeeIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid employee id: " + raw})
		}
		employeeIDs = append(employeeIDs, id)
	}

	targets, err := h.targetService.CreateTargets(c.Context(), campaignID, employeeIDs)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
		case errors.Is(err, models.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
		default:
			h.log.Error("target creation failed", zap.String("campaign_id", campaignID.String()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
	}

	h.log.Info("targets issued",
		zap.String("campaign_id", campaignID.String()),
		zap.Int("count", len(targets)),
		zap.String("requested_by", middleware.GetUserID(c).String()))

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: targets})
}

// GetSelectionHistory returns an employee's recent content assignments for
// the configuration UI.
func (h *TargetHandler) GetSelectionHistory(c *fiber.Ctx) error {
	employeeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid employee id"})
	}

	history, err := h.targetRepo.ListSelectionHistory(c.Context(), employeeID, 20)
	if err != nil {
		h.log.Error("selection history lookup failed", zap.String("employee_id", employeeID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: history})
}
