package selection

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/phishsim/backend/internal/models"
	"go.uber.org/zap"
)

type Scenario struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	StyleHint   string `json:"style_hint"`
	PayloadHint string `json:"payload_hint,omitempty"`
}

type Constraints struct {
	CooldownDays    int                `json:"cooldown_days"`
	DiversityWindow int                `json:"diversity_window"`
	TargetRatios    map[string]float64 `json:"target_ratios,omitempty"`
}

type Input struct {
	TenantID    string
	CampaignID  string
	EmployeeID  string
	Scenario    Scenario
	History     []models.SelectionRecord // newest first
	Constraints Constraints
}

// Selection is the chosen lure content for one employee in one scenario.
type Selection struct {
	PayloadType   string `json:"payload_type"`
	DesignVariant string `json:"design_variant"`
	BrandID       string `json:"brand_id"`
	Subject       string `json:"subject,omitempty"`
	Preheader     string `json:"preheader,omitempty"`
	Rationale     string `json:"rationale"`
}

const (
	defaultCooldownDays    = 3
	defaultDiversityWindow = 10
)

// Engine picks lure content for an employee under cooldown and diversity
// constraints. It is a pure function of its inputs plus the suggester's
// response; the only shared state is the advisory short-TTL cache.
type Engine struct {
	catalog   *Catalog
	suggester Suggester
	cache     Cache
	log       *zap.Logger
	now       func() time.Time
}

// NewEngine builds an engine. suggester and cache may be nil: a nil
// suggester always takes the fallback path, a nil cache disables caching.
func NewEngine(catalog *Catalog, suggester Suggester, cache Cache, log *zap.Logger) *Engine {
	return &Engine{
		catalog:   catalog,
		suggester: suggester,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the engine's clock. Tests use this to pin cooldown
// windows.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Select(ctx context.Context, in Input) (*Selection, error) {
	allowed := e.catalog.AllowedPayloads(in.Scenario)
	if len(allowed) == 0 {
		return nil, fmt.Errorf("no allowed payloads for category %q", in.Scenario.Category)
	}
	designs := e.catalog.CandidateDesigns(in.Scenario)
	pool := e.catalog.BrandPool(in.Scenario.Category)
	seed := Seed(in.EmployeeID, in.Scenario.ID)

	cacheKey := fmt.Sprintf("sel:%s:%s:%s:%s", in.TenantID, in.CampaignID, in.EmployeeID, in.Scenario.ID)
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	sel := e.suggest(ctx, in, allowed, designs, pool, seed)

	// Validation pass: runs regardless of which path produced the choice.
	if !contains(allowed, sel.PayloadType) {
		sel.PayloadType = allowed[0]
		sel.Rationale = appendRationale(sel.Rationale, "payload clamped to allowed set")
	}
	if !contains(designs, sel.DesignVariant) {
		sel.DesignVariant = designs[0]
		sel.Rationale = appendRationale(sel.Rationale, "design clamped to candidate set")
	}

	e.enforceConstraints(&sel, in, allowed)

	if sel.BrandID == "" || !contains(pool, sel.BrandID) {
		sel.BrandID = pickBrand(pool, seed)
	}

	if e.cache != nil {
		e.cache.Set(ctx, cacheKey, &sel)
	}
	return &sel, nil
}

// suggest runs the primary (external suggester) path, falling back to the
// deterministic local pick on any error or timeout.
func (e *Engine) suggest(ctx context.Context, in Input, allowed, designs, pool []string, seed uint64) Selection {
	if e.suggester != nil {
		req := SuggestRequest{
			Scenario:         in.Scenario,
			AllowedPayloads:  allowed,
			CandidateDesigns: designs,
			BrandPool:        pool,
			EmployeeID:       in.EmployeeID,
			History:          in.History,
			Constraints:      in.Constraints,
			Seed:             seed,
		}
		sug, err := e.suggester.Suggest(ctx, req)
		if err == nil {
			return Selection{
				PayloadType:   sug.PayloadType,
				DesignVariant: sug.DesignVariant,
				BrandID:       sug.BrandID,
				Subject:       sug.Subject,
				Preheader:     sug.Preheader,
				Rationale:     sug.Rationale,
			}
		}
		e.log.Warn("content suggester failed, using fallback",
			zap.String("employee_id", in.EmployeeID),
			zap.String("scenario_id", in.Scenario.ID),
			zap.Error(err))
	}
	return e.fallback(in, allowed, designs, pool, seed)
}

// fallback is the deterministic local path: first allowed payload different
// from the most recent one, first candidate design different from the most
// recent one, brand by seed mod pool size.
func (e *Engine) fallback(in Input, allowed, designs, pool []string, seed uint64) Selection {
	var lastPayload, lastDesign string
	if len(in.History) > 0 {
		lastPayload = in.History[0].PayloadType
		lastDesign = in.History[0].DesignVariant
	}

	sel := Selection{
		PayloadType:   firstDifferent(allowed, lastPayload),
		DesignVariant: firstDifferent(designs, lastDesign),
		BrandID:       pickBrand(pool, seed),
		Rationale:     "fallback: deterministic local pick",
	}
	return sel
}

// enforceConstraints applies cooldown then diversity through one shared
// avoidance set, substituting once after both checks.
func (e *Engine) enforceConstraints(sel *Selection, in Input, allowed []string) {
	cooldownDays := in.Constraints.CooldownDays
	if cooldownDays <= 0 {
		cooldownDays = defaultCooldownDays
	}
	window := in.Constraints.DiversityWindow
	if window <= 0 {
		window = defaultDiversityWindow
	}

	avoid := map[string]bool{}

	// Every payload inside the cooldown window goes into the avoidance set,
	// so a substitute can never be one that is itself cooling down.
	cutoff := e.now().AddDate(0, 0, -cooldownDays)
	for _, rec := range in.History {
		if rec.Date.After(cutoff) {
			avoid[rec.PayloadType] = true
		}
	}

	if ratio, ok := in.Constraints.TargetRatios[sel.PayloadType]; ok {
		recent := in.History
		if len(recent) > window {
			recent = recent[:window]
		}
		if len(recent) > 0 {
			used := 0
			for _, rec := range recent {
				if rec.PayloadType == sel.PayloadType {
					used++
				}
			}
			if float64(used)/float64(len(recent)) > ratio {
				avoid[sel.PayloadType] = true
			}
		}
	}

	if !avoid[sel.PayloadType] {
		return
	}

	substitute := allowed[0]
	for _, p := range allowed {
		if !avoid[p] {
			substitute = p
			break
		}
	}
	sel.Rationale = appendRationale(sel.Rationale,
		fmt.Sprintf("payload %s avoided (cooldown/diversity), substituted %s", sel.PayloadType, substitute))
	sel.PayloadType = substitute
}

// Seed is the stable per-(employee, scenario) hash used as cache key input
// and fallback random source.
func Seed(employeeID, scenarioID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(employeeID + scenarioID))
	return h.Sum64()
}

func pickBrand(pool []string, seed uint64) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[seed%uint64(len(pool))]
}

func firstDifferent(list []string, previous string) string {
	for _, v := range list {
		if v != previous {
			return v
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return ""
}

func appendRationale(rationale, note string) string {
	if rationale == "" {
		return note
	}
	return strings.TrimRight(rationale, "; ") + "; " + note
}
