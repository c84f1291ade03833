package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/models"
	"github.com/phishsim/backend/internal/selection"
	"go.uber.org/zap"
)

type selectionTargetStore interface {
	ListSelectionHistory(ctx context.Context, employeeID uuid.UUID, limit int) ([]models.SelectionRecord, error)
	GetByCampaignAndEmployee(ctx context.Context, campaignID, employeeID uuid.UUID) (*models.Target, error)
	SetSelection(ctx context.Context, id uuid.UUID, payloadType, designVariant, brandID string) error
}

// SelectionService fronts the content selection engine for the
// campaign-configuration UI: it backfills history from past targets when
// the caller supplies none, and persists the chosen content onto the
// matching target so future history derives from it.
type SelectionService struct {
	engine   *selection.Engine
	catalog  *selection.Catalog
	targets  selectionTargetStore
	activity activityLogger
	cfg      *config.Config
	log      *zap.Logger
}

func NewSelectionService(
	engine *selection.Engine,
	catalog *selection.Catalog,
	targets selectionTargetStore,
	activity activityLogger,
	cfg *config.Config,
	log *zap.Logger,
) *SelectionService {
	return &SelectionService{
		engine:   engine,
		catalog:  catalog,
		targets:  targets,
		activity: activity,
		cfg:      cfg,
		log:      log,
	}
}

// SelectionContext echoes the candidate sets the engine worked with so the
// UI can render what was on the table.
type SelectionContext struct {
	AllowedPayloads  []string `json:"allowed_payloads"`
	CandidateDesigns []string `json:"candidate_designs"`
	BrandPool        []string `json:"brand_pool"`
	Seed             uint64   `json:"seed"`
	HistorySize      int      `json:"history_size"`
}

func (s *SelectionService) Select(ctx context.Context, in selection.Input) (*selection.Selection, *SelectionContext, error) {
	// Operator-tuned windows apply when the request carries no constraints.
	if in.Constraints.CooldownDays <= 0 {
		in.Constraints.CooldownDays = s.cfg.CooldownDays
	}
	if in.Constraints.DiversityWindow <= 0 {
		in.Constraints.DiversityWindow = s.cfg.DiversityWindow
	}

	if len(in.History) == 0 && s.targets != nil {
		if employeeID, err := uuid.Parse(in.EmployeeID); err == nil {
			history, err := s.targets.ListSelectionHistory(ctx, employeeID, 20)
			if err != nil {
				s.log.Warn("failed to load selection history",
					zap.String("employee_id", in.EmployeeID), zap.Error(err))
			} else {
				in.History = history
			}
		}
	}

	sel, err := s.engine.Select(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	s.persistSelection(in, sel)

	selCtx := &SelectionContext{
		AllowedPayloads:  s.catalog.AllowedPayloads(in.Scenario),
		CandidateDesigns: s.catalog.CandidateDesigns(in.Scenario),
		BrandPool:        s.catalog.BrandPool(in.Scenario.Category),
		Seed:             selection.Seed(in.EmployeeID, in.Scenario.ID),
		HistorySize:      len(in.History),
	}
	return sel, selCtx, nil
}

// persistSelection writes the chosen content onto the (campaign, employee)
// target when one exists. Best-effort: a configuration session must never
// fail because the assignment could not be stored.
func (s *SelectionService) persistSelection(in selection.Input, sel *selection.Selection) {
	if s.targets == nil || in.CampaignID == "" {
		return
	}
	campaignID, err := uuid.Parse(in.CampaignID)
	if err != nil {
		return
	}
	employeeID, err := uuid.Parse(in.EmployeeID)
	if err != nil {
		return
	}

	chosen := *sel
	bestEffort(s.log, "persist:selection", func(ctx context.Context) error {
		target, err := s.targets.GetByCampaignAndEmployee(ctx, campaignID, employeeID)
		if err != nil {
			return err
		}
		if err := s.targets.SetSelection(ctx, target.ID, chosen.PayloadType, chosen.DesignVariant, chosen.BrandID); err != nil {
			return err
		}
		if s.activity != nil {
			return s.activity.Log(ctx, models.ActivityEntry{
				ActorType:  "admin",
				Action:     models.ActivitySelectionMade,
				EntityType: "target",
				EntityID:   &target.ID,
				Meta: map[string]any{
					"payload_type":   chosen.PayloadType,
					"design_variant": chosen.DesignVariant,
					"brand_id":       chosen.BrandID,
				},
			})
		}
		return nil
	})
}
