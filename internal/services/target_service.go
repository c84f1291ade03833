package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/events"
	"github.com/phishsim/backend/internal/models"
	"go.uber.org/zap"
)

type targetBatchStore interface {
	CreateBatch(ctx context.Context, campaignID uuid.UUID, employeeIDs []uuid.UUID) ([]models.Target, error)
}

type campaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TargetService is the Target Registry surface called by campaign-creation
// glue once a campaign's employee list is finalized. It also owns the
// campaign shell lifecycle: create before targets are issued, delete to
// retire a campaign and cascade its targets away.
type TargetService struct {
	targets   targetBatchStore
	campaigns campaignStore
	activity  activityLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewTargetService(
	targets targetBatchStore,
	campaigns campaignStore,
	activity activityLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *TargetService {
	return &TargetService{
		targets:   targets,
		campaigns: campaigns,
		activity:  activity,
		publisher: publisher,
		log:       log,
	}
}

// CreateTargets issues one tracked link per employee. A duplicate
// (campaign, employee) pair fails the whole batch with models.ErrConflict;
// the caller is expected to surface it, not retry.
func (s *TargetService) CreateTargets(ctx context.Context, campaignID uuid.UUID, employeeIDs []uuid.UUID) ([]models.Target, error) {
	if _, err := s.campaigns.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	targets, err := s.targets.CreateBatch(ctx, campaignID, employeeIDs)
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		entityID := campaignID
		count := len(targets)
		bestEffort(s.log, "activity:targets_created", func(ctx context.Context) error {
			return s.activity.Log(ctx, models.ActivityEntry{
				ActorType:  "admin",
				Action:     models.ActivityTargetsCreated,
				EntityType: "campaign",
				EntityID:   &entityID,
				Meta:       map[string]any{"count": count},
			})
		})
	}
	if s.publisher != nil {
		campaign := campaignID.String()
		count := len(targets)
		bestEffort(s.log, "publish:targets_created", func(ctx context.Context) error {
			return s.publisher.Publish(ctx, events.StreamActivity, events.Event{
				Type: events.EventTargetsCreated,
				Payload: map[string]any{
					"campaign_id": campaign,
					"count":       count,
				},
			})
		})
	}

	return targets, nil
}

// CreateCampaign registers a campaign shell ahead of target issuance.
func (s *TargetService) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	return s.campaigns.Create(ctx, campaign)
}

// DeleteCampaign retires a campaign; its targets go with it.
func (s *TargetService) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	if _, err := s.campaigns.GetByID(ctx, id); err != nil {
		return err
	}
	return s.campaigns.Delete(ctx, id)
}
