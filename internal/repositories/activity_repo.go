package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phishsim/backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Log(ctx context.Context, entry models.ActivityEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (actor_type, action, entity_type, entity_id, meta)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ActorType, entry.Action, entry.EntityType, entry.EntityID, entry.Meta)
	return err
}
