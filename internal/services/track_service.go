package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/botcheck"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/events"
	"github.com/phishsim/backend/internal/models"
	"go.uber.org/zap"
)

type trackTargetStore interface {
	GetByToken(ctx context.Context, token string) (*models.Target, error)
	RecordClick(ctx context.Context, id uuid.UUID, ip, userAgent string) error
	RecordSuspicious(ctx context.Context, id uuid.UUID, ip, userAgent string) error
}

type trackCampaignStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	IncrementClickCount(ctx context.Context, id uuid.UUID) error
}

type activityLogger interface {
	Log(ctx context.Context, entry models.ActivityEntry) error
}

// TrackService orchestrates the redirect/challenge flow: token lookup,
// bot classification, click recording, and the outcome handed to the HTTP
// layer. Recording is best-effort throughout; no internal fault may ever
// surface as a visible failure to the recipient.
type TrackService struct {
	targets   trackTargetStore
	campaigns trackCampaignStore
	activity  activityLogger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewTrackService(
	targets trackTargetStore,
	campaigns trackCampaignStore,
	activity activityLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *TrackService {
	return &TrackService{
		targets:   targets,
		campaigns: campaigns,
		activity:  activity,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// ClickOutcome tells the HTTP layer how to answer a tracked-link request.
type ClickOutcome struct {
	Mode           botcheck.Mode
	Reason         string
	DestinationURL string
	Token          string
}

// HandleClick resolves a token request into a redirect or a challenge.
// Unknown token or campaign is the only error path; storage faults during
// recording degrade to "redirect anyway".
func (s *TrackService) HandleClick(ctx context.Context, token string, meta botcheck.RequestMeta) (*ClickOutcome, error) {
	target, err := s.targets.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.GetByID(ctx, target.CampaignID)
	if err != nil {
		return nil, err
	}

	decision := botcheck.Classify(meta)

	outcome := &ClickOutcome{
		Mode:           decision.Mode,
		Reason:         decision.Reason,
		DestinationURL: s.destination(campaign),
		Token:          token,
	}

	if decision.Mode == botcheck.ModeDirect {
		s.recordCounted(ctx, target, meta)
	} else {
		if err := s.targets.RecordSuspicious(ctx, target.ID, meta.IP, meta.UserAgent); err != nil {
			s.log.Error("failed to record suspicious hit",
				zap.String("token", token), zap.Error(err))
		}
		s.announceChallenge(target, decision.Reason)
	}

	return outcome, nil
}

// announceChallenge pushes a challenged hit onto the live feed so dashboards
// can show automated traffic separately from counted clicks.
func (s *TrackService) announceChallenge(target *models.Target, reason string) {
	if s.publisher == nil {
		return
	}
	campaignID := target.CampaignID.String()
	employeeID := target.EmployeeID.String()
	bestEffort(s.log, "publish:click_challenged", func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.StreamActivity, events.Event{
			Type: events.EventClickChallenged,
			Payload: map[string]any{
				"campaign_id": campaignID,
				"employee_id": employeeID,
				"reason":      reason,
			},
		})
	})
}

// ConfirmClick credits the click confirmed by the interstitial's script.
func (s *TrackService) ConfirmClick(ctx context.Context, token string, meta botcheck.RequestMeta) error {
	target, err := s.targets.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	s.recordCounted(ctx, target, meta)
	return nil
}

// recordCounted increments the target and campaign counters. Both updates
// are atomic in the store; errors are logged and swallowed so the response
// is never blocked on tracking.
func (s *TrackService) recordCounted(ctx context.Context, target *models.Target, meta botcheck.RequestMeta) {
	if err := s.targets.RecordClick(ctx, target.ID, meta.IP, meta.UserAgent); err != nil {
		s.log.Error("failed to record click",
			zap.String("target_id", target.ID.String()), zap.Error(err))
		return
	}
	if err := s.campaigns.IncrementClickCount(ctx, target.CampaignID); err != nil {
		s.log.Error("failed to increment campaign click count",
			zap.String("campaign_id", target.CampaignID.String()), zap.Error(err))
	}

	targetID := target.ID
	if s.activity != nil {
		bestEffort(s.log, "activity:click_recorded", func(ctx context.Context) error {
			return s.activity.Log(ctx, models.ActivityEntry{
				ActorType:  "recipient",
				Action:     models.ActivityClickRecorded,
				EntityType: "target",
				EntityID:   &targetID,
				Meta:       map[string]any{"ip": meta.IP, "user_agent": meta.UserAgent},
			})
		})
	}
	if s.publisher != nil {
		campaignID := target.CampaignID.String()
		employeeID := target.EmployeeID.String()
		bestEffort(s.log, "publish:click_recorded", func(ctx context.Context) error {
			return s.publisher.Publish(ctx, events.StreamActivity, events.Event{
				Type: events.EventClickRecorded,
				Payload: map[string]any{
					"campaign_id": campaignID,
					"employee_id": employeeID,
				},
			})
		})
	}
}

func (s *TrackService) destination(campaign *models.Campaign) string {
	if campaign.DestinationURL != nil && *campaign.DestinationURL != "" {
		return *campaign.DestinationURL
	}
	return s.cfg.DefaultDestinationURL
}
