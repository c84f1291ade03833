package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/http/dto"
	"github.com/phishsim/backend/internal/models"
	"github.com/phishsim/backend/internal/services"
	"go.uber.org/zap"
)

type TrainingHandler struct {
	trainingService *services.TrainingService
	log             *zap.Logger
}

func NewTrainingHandler(trainingService *services.TrainingService, log *zap.Logger) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService, log: log}
}

func (h *TrainingHandler) CompleteTraining(c *fiber.Ctx) error {
	var req dto.CompleteTrainingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid target_id"})
	}
	if req.QuizScore != nil && (*req.QuizScore < 0 || *req.QuizScore > 100) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "quiz_score must be between 0 and 100"})
	}

	result, err := h.trainingService.Complete(c.Context(), targetID, req.ScenarioID, req.QuizScore)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "target not found"})
		}
		h.log.Error("training completion failed", zap.String("target_id", req.TargetID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.CompleteTrainingResponse{
		Success:      true,
		EmployeeID:   result.EmployeeID.String(),
		ScenarioID:   result.ScenarioID,
		PointsEarned: result.PointsEarned,
		TotalPoints:  result.TotalPoints,
		RewardXP:     result.RewardXP,
	})
}

// GetTrainingHistory returns the employee's most recent completions for the
// training page's profile widget.
func (h *TrainingHandler) GetTrainingHistory(c *fiber.Ctx) error {
	employeeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid employee id"})
	}

	entries, err := h.trainingService.History(c.Context(), employeeID, 10)
	if err != nil {
		h.log.Error("training history lookup failed",
			zap.String("employee_id", employeeID.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
