package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/models"
	"github.com/phishsim/backend/internal/selection"
	"go.uber.org/zap"
)

type persistedSelection struct {
	targetID      uuid.UUID
	payloadType   string
	designVariant string
	brandID       string
}

type fakeSelectionTargets struct {
	history      []models.SelectionRecord
	historyCalls int
	target       *models.Target
	persisted    chan persistedSelection
}

func (s *fakeSelectionTargets) ListSelectionHistory(ctx context.Context, employeeID uuid.UUID, limit int) ([]models.SelectionRecord, error) {
	s.historyCalls++
	return s.history, nil
}

func (s *fakeSelectionTargets) GetByCampaignAndEmployee(ctx context.Context, campaignID, employeeID uuid.UUID) (*models.Target, error) {
	if s.target == nil {
		return nil, models.ErrNotFound
	}
	copied := *s.target
	return &copied, nil
}

func (s *fakeSelectionTargets) SetSelection(ctx context.Context, id uuid.UUID, payloadType, designVariant, brandID string) error {
	if s.persisted != nil {
		s.persisted <- persistedSelection{id, payloadType, designVariant, brandID}
	}
	return nil
}

func newSelectionFixture(store *fakeSelectionTargets, cfg *config.Config, now time.Time) *SelectionService {
	catalog := selection.DefaultCatalog()
	engine := selection.NewEngine(catalog, nil, nil, zap.NewNop()).
		WithClock(func() time.Time { return now })
	return NewSelectionService(engine, catalog, store, nil, cfg, zap.NewNop())
}

func selectionNow() time.Time {
	return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
}

func TestSelectBackfillsHistoryFromTargets(t *testing.T) {
	now := selectionNow()
	store := &fakeSelectionTargets{
		history: []models.SelectionRecord{
			{PayloadType: "pdf", DesignVariant: "plain", Date: now.AddDate(0, 0, -1)},
		},
	}
	svc := newSelectionFixture(store, &config.Config{CooldownDays: 3, DiversityWindow: 10}, now)

	sel, selCtx, err := svc.Select(context.Background(), selection.Input{
		EmployeeID: uuid.New().String(),
		Scenario:   selection.Scenario{ID: "scn-1", Category: "finance"},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if store.historyCalls != 1 {
		t.Errorf("history lookups = %d, want 1", store.historyCalls)
	}
	if selCtx.HistorySize != 1 {
		t.Errorf("HistorySize = %d, want 1 (backfilled)", selCtx.HistorySize)
	}
	if sel.PayloadType == "pdf" {
		t.Errorf("yesterday's payload repeated despite backfilled history")
	}
}

func TestSelectRequestHistorySuppressesBackfill(t *testing.T) {
	now := selectionNow()
	store := &fakeSelectionTargets{
		history: []models.SelectionRecord{
			{PayloadType: "excel", DesignVariant: "plain", Date: now.AddDate(0, 0, -1)},
		},
	}
	svc := newSelectionFixture(store, &config.Config{CooldownDays: 3, DiversityWindow: 10}, now)

	sel, _, err := svc.Select(context.Background(), selection.Input{
		EmployeeID: uuid.New().String(),
		Scenario:   selection.Scenario{ID: "scn-1", Category: "finance"},
		History: []models.SelectionRecord{
			{PayloadType: "cta", DesignVariant: "plain", Date: now.AddDate(0, 0, -1)},
		},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if store.historyCalls != 0 {
		t.Errorf("history lookups = %d, want 0 when the request supplies history", store.historyCalls)
	}
	if sel.PayloadType != "pdf" {
		t.Errorf("PayloadType = %q, want pdf (first allowed differing from cta)", sel.PayloadType)
	}
}

func TestSelectConfigCooldownApplied(t *testing.T) {
	// Newest-first history: cta yesterday, pdf five days ago. The local pick
	// lands on pdf; whether it survives depends on the configured window.
	now := selectionNow()
	history := []models.SelectionRecord{
		{PayloadType: "cta", DesignVariant: "plain", Date: now.AddDate(0, 0, -1)},
		{PayloadType: "pdf", DesignVariant: "plain", Date: now.AddDate(0, 0, -5)},
	}
	input := func() selection.Input {
		return selection.Input{
			EmployeeID: uuid.New().String(),
			Scenario:   selection.Scenario{ID: "scn-1", Category: "finance"},
			History:    append([]models.SelectionRecord(nil), history...),
		}
	}

	t.Run("seven day window vetoes", func(t *testing.T) {
		svc := newSelectionFixture(&fakeSelectionTargets{}, &config.Config{CooldownDays: 7, DiversityWindow: 10}, now)
		sel, _, err := svc.Select(context.Background(), input())
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if sel.PayloadType != "excel" {
			t.Errorf("PayloadType = %q, want excel (pdf inside the 7 day window)", sel.PayloadType)
		}
	})

	t.Run("three day window passes", func(t *testing.T) {
		svc := newSelectionFixture(&fakeSelectionTargets{}, &config.Config{CooldownDays: 3, DiversityWindow: 10}, now)
		sel, _, err := svc.Select(context.Background(), input())
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if sel.PayloadType != "pdf" {
			t.Errorf("PayloadType = %q, want pdf (5 days clear of the 3 day window)", sel.PayloadType)
		}
	})
}

func TestSelectPersistsOntoTarget(t *testing.T) {
	now := selectionNow()
	target := &models.Target{ID: uuid.New()}
	store := &fakeSelectionTargets{
		target:    target,
		persisted: make(chan persistedSelection, 1),
	}
	svc := newSelectionFixture(store, &config.Config{CooldownDays: 3, DiversityWindow: 10}, now)

	sel, _, err := svc.Select(context.Background(), selection.Input{
		CampaignID: uuid.New().String(),
		EmployeeID: uuid.New().String(),
		Scenario:   selection.Scenario{ID: "scn-1", Category: "finance"},
		History: []models.SelectionRecord{
			{PayloadType: "cta", DesignVariant: "plain", Date: now.AddDate(0, 0, -1)},
		},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	select {
	case got := <-store.persisted:
		if got.targetID != target.ID {
			t.Errorf("persisted onto target %s, want %s", got.targetID, target.ID)
		}
		if got.payloadType != sel.PayloadType || got.designVariant != sel.DesignVariant || got.brandID != sel.BrandID {
			t.Errorf("persisted %+v does not match selection %+v", got, sel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("selection was not persisted onto the target")
	}
}
