package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathcraft/backend/pkg/progress"
)

// ProgressRepository хранит прогресс по шагам; первичный ключ — пара
// (user_id, step_id), поэтому конкурентные записи схлопываются в одну строку.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

func NewProgressRepository(pool *pgxpool.Pool) (*ProgressRepository, error) {
	r := &ProgressRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ProgressRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS step_progress (
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	step_id UUID NOT NULL REFERENCES plan_steps(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, step_id)
);
`)
	return err
}

func (r *ProgressRepository) Upsert(ctx context.Context, p progress.StepProgress) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO step_progress (user_id, step_id, status, started_at, completed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, step_id) DO UPDATE SET
	status = EXCLUDED.status,
	started_at = EXCLUDED.started_at,
	completed_at = EXCLUDED.completed_at,
	updated_at = EXCLUDED.updated_at
`, p.UserID, p.StepID, string(p.Status), p.StartedAt, p.CompletedAt, p.UpdatedAt)
	return err
}

func (r *ProgressRepository) Get(ctx context.Context, userID, stepID uuid.UUID) (progress.StepProgress, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_id, step_id, status, started_at, completed_at, updated_at
FROM step_progress WHERE user_id = $1 AND step_id = $2
`, userID, stepID)
	return scanProgress(row)
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]progress.StepProgress, error) {
	rows, err := r.pool.Query(ctx, `
SELECT user_id, step_id, status, started_at, completed_at, updated_at
FROM step_progress WHERE user_id = $1
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []progress.StepProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProgressRepository) CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM step_progress
WHERE user_id = $1 AND status = $2
`, userID, string(progress.StatusCompleted))
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanProgress(row pgx.Row) (progress.StepProgress, error) {
	var p progress.StepProgress
	var status string
	var started, completed *time.Time
	var updated time.Time
	if err := row.Scan(&p.UserID, &p.StepID, &status, &started, &completed, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progress.StepProgress{}, progress.ErrNotFound
		}
		return progress.StepProgress{}, err
	}
	p.Status = progress.Status(status)
	p.StartedAt = utcPtr(started)
	p.CompletedAt = utcPtr(completed)
	p.UpdatedAt = updated.UTC()
	return p, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
