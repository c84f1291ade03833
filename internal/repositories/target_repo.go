package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phishsim/backend/internal/models"
)

type TargetRepo struct {
	pool *pgxpool.Pool
}

func NewTargetRepo(pool *pgxpool.Pool) *TargetRepo {
	return &TargetRepo{pool: pool}
}

const targetColumns = `
	id, campaign_id, employee_id, token, click_count,
	last_click_at, last_click_ip, last_click_user_agent,
	last_suspicious_at, last_suspicious_ip, last_suspicious_user_agent,
	scenario_id, payload_type, design_variant, brand_id,
	training_completed_at, quiz_score, reward_points, reward_xp, created_at
`

func scanTarget(row pgx.Row) (*models.Target, error) {
	var t models.Target
	err := row.Scan(
		&t.ID, &t.CampaignID, &t.EmployeeID, &t.Token, &t.ClickCount,
		&t.LastClickAt, &t.LastClickIP, &t.LastClickUA,
		&t.LastSuspiciousAt, &t.LastSuspiciousIP, &t.LastSuspiciousUA,
		&t.ScenarioID, &t.PayloadType, &t.DesignVariant, &t.BrandID,
		&t.TrainingCompletedAt, &t.QuizScore, &t.RewardPoints, &t.RewardXP, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateBatch inserts one target per employee with a fresh token, all in one
// transaction. A duplicate (campaign, employee) pair fails the whole batch
// with models.ErrConflict; the caller decides what to do, nothing is retried
// here.
func (r *TargetRepo) CreateBatch(ctx context.Context, campaignID uuid.UUID, employeeIDs []uuid.UUID) ([]models.Target, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	targets := make([]models.Target, 0, len(employeeIDs))
	for _, employeeID := range employeeIDs {
		t := models.Target{
			CampaignID: campaignID,
			EmployeeID: employeeID,
			Token:      models.NewToken(),
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO targets (campaign_id, employee_id, token)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, t.CampaignID, t.EmployeeID, t.Token).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, fmt.Errorf("target for campaign %s employee %s: %w", campaignID, employeeID, models.ErrConflict)
			}
			return nil, err
		}
		targets = append(targets, t)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *TargetRepo) GetByToken(ctx context.Context, token string) (*models.Target, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+targetColumns+` FROM targets WHERE token = $1`, token)
	return scanTarget(row)
}

func (r *TargetRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Target, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = $1`, id)
	return scanTarget(row)
}

func (r *TargetRepo) GetByCampaignAndEmployee(ctx context.Context, campaignID, employeeID uuid.UUID) (*models.Target, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+targetColumns+` FROM targets
		WHERE campaign_id = $1 AND employee_id = $2
	`, campaignID, employeeID)
	return scanTarget(row)
}

// RecordClick is the counted path: a single UPDATE so the increment is atomic
// in the database, never read-modify-write in application code.
func (r *TargetRepo) RecordClick(ctx context.Context, id uuid.UUID, ip, userAgent string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE targets
		SET click_count = click_count + 1,
		    last_click_at = now(),
		    last_click_ip = $2,
		    last_click_user_agent = $3
		WHERE id = $1
	`, id, ip, userAgent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RecordSuspicious notes a bot-classified hit. It never touches the click
// counter; a suspicious event must never be promoted to a counted click.
func (r *TargetRepo) RecordSuspicious(ctx context.Context, id uuid.UUID, ip, userAgent string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE targets
		SET last_suspicious_at = now(),
		    last_suspicious_ip = $2,
		    last_suspicious_user_agent = $3
		WHERE id = $1
	`, id, ip, userAgent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CompleteTraining stamps the completion, refreshes the score, and adds the
// awards, all in one statement. The row lock in the CTE serializes racing
// completions: only the call that still sees training_completed_at unset
// gets the awards and reports first = true, so a retried or concurrent
// request can never double-grant. scenarioID only locks in when the target
// has none assigned yet.
func (r *TargetRepo) CompleteTraining(ctx context.Context, id uuid.UUID, scenarioID *string, quizScore *int, points, rewardXP int) (*models.Target, bool, error) {
	row := r.pool.QueryRow(ctx, `
		WITH prior AS (
			SELECT training_completed_at IS NULL AS first_completion
			FROM targets
			WHERE id = $1
			FOR UPDATE
		)
		UPDATE targets
		SET training_completed_at = now(),
		    scenario_id = COALESCE(scenario_id, $2),
		    quiz_score = COALESCE($3, quiz_score),
		    reward_points = reward_points + CASE WHEN prior.first_completion THEN $4 ELSE 0 END,
		    reward_xp = reward_xp + CASE WHEN prior.first_completion THEN $5 ELSE 0 END
		FROM prior
		WHERE targets.id = $1
		RETURNING `+targetColumns+`, prior.first_completion
	`, id, scenarioID, quizScore, points, rewardXP)

	var t models.Target
	var first bool
	err := row.Scan(
		&t.ID, &t.CampaignID, &t.EmployeeID, &t.Token, &t.ClickCount,
		&t.LastClickAt, &t.LastClickIP, &t.LastClickUA,
		&t.LastSuspiciousAt, &t.LastSuspiciousIP, &t.LastSuspiciousUA,
		&t.ScenarioID, &t.PayloadType, &t.DesignVariant, &t.BrandID,
		&t.TrainingCompletedAt, &t.QuizScore, &t.RewardPoints, &t.RewardXP, &t.CreatedAt,
		&first,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, models.ErrNotFound
		}
		return nil, false, err
	}
	return &t, first, nil
}

// SetSelection persists the chosen content onto the target so future
// selection history can be derived from past targets.
func (r *TargetRepo) SetSelection(ctx context.Context, id uuid.UUID, payloadType, designVariant, brandID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE targets
		SET payload_type = $2, design_variant = $3, brand_id = $4
		WHERE id = $1
	`, id, payloadType, designVariant, brandID)
	return err
}

// ListSelectionHistory returns the employee's past content assignments,
// newest first. Targets with no assigned payload are skipped.
func (r *TargetRepo) ListSelectionHistory(ctx context.Context, employeeID uuid.UUID, limit int) ([]models.SelectionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT payload_type, design_variant, created_at
		FROM targets
		WHERE employee_id = $1 AND payload_type IS NOT NULL AND design_variant IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $2
	`, employeeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.SelectionRecord
	for rows.Next() {
		var rec models.SelectionRecord
		if err := rows.Scan(&rec.PayloadType, &rec.DesignVariant, &rec.Date); err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}
