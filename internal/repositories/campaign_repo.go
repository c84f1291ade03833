package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phishsim/backend/internal/models"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (tenant_id, name, scenario_id, destination_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, c.TenantID, c.Name, c.ScenarioID, c.DestinationURL,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var c models.Campaign
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, scenario_id, destination_url, click_count, created_at, updated_at
		FROM campaigns WHERE id = $1
	`, id).Scan(&c.ID, &c.TenantID, &c.Name, &c.ScenarioID, &c.DestinationURL,
		&c.ClickCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// IncrementClickCount bumps the denormalized aggregate. Atomic in Postgres;
// the counter only ever grows.
func (r *CampaignRepo) IncrementClickCount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET click_count = click_count + 1, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Targets cascade with the campaign.
	_, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return err
}
