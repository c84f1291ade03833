package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/events"
	"github.com/phishsim/backend/internal/models"
	"go.uber.org/zap"
)

type trainingTargetStore interface {
	CompleteTraining(ctx context.Context, id uuid.UUID, scenarioID *string, quizScore *int, points, rewardXP int) (*models.Target, bool, error)
}

type trainingEmployeeStore interface {
	AddPoints(ctx context.Context, id uuid.UUID, points int) (int, error)
	AppendTrainingHistory(ctx context.Context, employeeID uuid.UUID, scenarioID *string, score *int) error
	ListTrainingHistory(ctx context.Context, employeeID uuid.UUID, limit int) ([]models.TrainingHistoryEntry, error)
}

type TrainingService struct {
	targets   trainingTargetStore
	employees trainingEmployeeStore
	activity  activityLogger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewTrainingService(
	targets trainingTargetStore,
	employees trainingEmployeeStore,
	activity activityLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *TrainingService {
	return &TrainingService{
		targets:   targets,
		employees: employees,
		activity:  activity,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

type CompletionResult struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	ScenarioID   *string   `json:"scenario_id,omitempty"`
	PointsEarned int       `json:"points_earned"`
	TotalPoints  int       `json:"total_points"`
	RewardXP     int       `json:"reward_xp"`
}

// Complete records a finished training module for the target. A repeat call
// on an already-completed target refreshes the timestamp and score but
// grants zero additional points or XP. The store folds the already-completed
// check into the same statement that grants the awards, so two racing calls
// can never both award.
func (s *TrainingService) Complete(ctx context.Context, targetID uuid.UUID, scenarioID *string, quizScore *int) (*CompletionResult, error) {
	points := s.cfg.TrainingPoints
	rewardXP := 0
	if s.cfg.RewardXPEnabled {
		rewardXP = s.cfg.RewardXPAmount
	}

	updated, first, err := s.targets.CompleteTraining(ctx, targetID, scenarioID, quizScore, points, rewardXP)
	if err != nil {
		return nil, err
	}
	if !first {
		points = 0
		rewardXP = 0
	}

	total, err := s.employees.AddPoints(ctx, updated.EmployeeID, points)
	if err != nil {
		return nil, err
	}

	if err := s.employees.AppendTrainingHistory(ctx, updated.EmployeeID, updated.ScenarioID, quizScore); err != nil {
		// History is a UI convenience; the completion itself already stuck.
		s.log.Warn("failed to append training history",
			zap.String("employee_id", updated.EmployeeID.String()), zap.Error(err))
	}

	if s.activity != nil {
		entityID := targetID
		bestEffort(s.log, "activity:training_completed", func(ctx context.Context) error {
			return s.activity.Log(ctx, models.ActivityEntry{
				ActorType:  "recipient",
				Action:     models.ActivityTrainingCompleted,
				EntityType: "target",
				EntityID:   &entityID,
				Meta:       map[string]any{"points": points, "reward_xp": rewardXP},
			})
		})
	}
	if s.publisher != nil {
		employeeID := updated.EmployeeID.String()
		bestEffort(s.log, "publish:training_completed", func(ctx context.Context) error {
			return s.publisher.Publish(ctx, events.StreamActivity, events.Event{
				Type: events.EventTrainingCompleted,
				Payload: map[string]any{
					"employee_id": employeeID,
					"points":      points,
				},
			})
		})
	}

	return &CompletionResult{
		EmployeeID:   updated.EmployeeID,
		ScenarioID:   updated.ScenarioID,
		PointsEarned: points,
		TotalPoints:  total,
		RewardXP:     updated.RewardXP,
	}, nil
}

// History returns the employee's most recent completions for the profile
// widget on the training page.
func (s *TrainingService) History(ctx context.Context, employeeID uuid.UUID, limit int) ([]models.TrainingHistoryEntry, error) {
	return s.employees.ListTrainingHistory(ctx, employeeID, limit)
}
