package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phishsim/backend/internal/models"
)

type EmployeeRepo struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepo(pool *pgxpool.Pool) *EmployeeRepo {
	return &EmployeeRepo{pool: pool}
}

// AddPoints adds to the employee's running total atomically and returns the
// new total.
func (r *EmployeeRepo) AddPoints(ctx context.Context, id uuid.UUID, points int) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		UPDATE employees SET total_points = total_points + $2
		WHERE id = $1
		RETURNING total_points
	`, id, points).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, err
	}
	return total, nil
}

func (r *EmployeeRepo) AppendTrainingHistory(ctx context.Context, employeeID uuid.UUID, scenarioID *string, score *int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO training_history (employee_id, scenario_id, score)
		VALUES ($1, $2, $3)
	`, employeeID, scenarioID, score)
	return err
}

func (r *EmployeeRepo) ListTrainingHistory(ctx context.Context, employeeID uuid.UUID, limit int) ([]models.TrainingHistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_id, scenario_id, score, completed_at
		FROM training_history
		WHERE employee_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`, employeeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TrainingHistoryEntry
	for rows.Next() {
		var e models.TrainingHistoryEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.ScenarioID, &e.Score, &e.CompletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
