package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathcraft/backend/pkg/plan"
)

// PlanRepository хранит планы и их шаги.
type PlanRepository struct {
	pool *pgxpool.Pool
}

func NewPlanRepository(pool *pgxpool.Pool) (*PlanRepository, error) {
	r := &PlanRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PlanRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS plans (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	content JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plans_user_created ON plans (user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS plan_steps (
	id UUID PRIMARY KEY,
	plan_id UUID NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	position INT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	timeframe TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL,
	resources JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plan_steps_plan ON plan_steps (plan_id, position);
`)
	return err
}

// Create сохраняет план вместе с шагами в одной транзакции: либо весь
// снимок, либо ничего.
func (r *PlanRepository) Create(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	contentJSON, err := json.Marshal(p.Content)
	if err != nil {
		return plan.Plan{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO plans (id, user_id, content, created_at)
VALUES ($1, $2, $3, $4)
`, p.ID, p.UserID, contentJSON, p.CreatedAt)
	if err != nil {
		return plan.Plan{}, err
	}
	for _, st := range p.Steps {
		resourcesJSON, err := json.Marshal(st.Resources)
		if err != nil {
			return plan.Plan{}, err
		}
		_, err = tx.Exec(ctx, `
INSERT INTO plan_steps (id, plan_id, position, title, description, timeframe, priority, resources)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, st.ID, p.ID, st.Position, st.Title, st.Description, st.Timeframe, string(st.Priority), resourcesJSON)
		if err != nil {
			return plan.Plan{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return plan.Plan{}, err
	}
	return p, nil
}

func (r *PlanRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (plan.Plan, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, user_id, content, created_at
FROM plans WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1
`, userID)
	return r.scanPlan(ctx, row)
}

func (r *PlanRepository) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (plan.Plan, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, user_id, content, created_at
FROM plans WHERE id = $1 AND user_id = $2
`, id, ownerID)
	return r.scanPlan(ctx, row)
}

func (r *PlanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]plan.Plan, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, content, created_at
FROM plans WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []plan.Plan{}
	for rows.Next() {
		var p plan.Plan
		var contentBytes []byte
		var created time.Time
		if err := rows.Scan(&p.ID, &p.UserID, &contentBytes, &created); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(contentBytes, &p.Content)
		p.CreatedAt = created.UTC()
		// история отдаётся без шагов; шаги загружаются при чтении одного плана
		p.Steps = []plan.Step{}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PlanRepository) GetStepForOwner(ctx context.Context, ownerID, stepID uuid.UUID) (plan.Step, error) {
	row := r.pool.QueryRow(ctx, `
SELECT s.id, s.plan_id, s.position, s.title, s.description, s.timeframe, s.priority, s.resources
FROM plan_steps s
JOIN plans p ON p.id = s.plan_id
WHERE s.id = $1 AND p.user_id = $2
`, stepID, ownerID)
	return scanStep(row)
}

func (r *PlanRepository) scanPlan(ctx context.Context, row pgx.Row) (plan.Plan, error) {
	var p plan.Plan
	var contentBytes []byte
	var created time.Time
	if err := row.Scan(&p.ID, &p.UserID, &contentBytes, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return plan.Plan{}, plan.ErrNotFound
		}
		return plan.Plan{}, err
	}
	_ = json.Unmarshal(contentBytes, &p.Content)
	p.CreatedAt = created.UTC()

	steps, err := r.loadSteps(ctx, p.ID)
	if err != nil {
		return plan.Plan{}, err
	}
	p.Steps = steps
	return p, nil
}

func (r *PlanRepository) loadSteps(ctx context.Context, planID uuid.UUID) ([]plan.Step, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, plan_id, position, title, description, timeframe, priority, resources
FROM plan_steps WHERE plan_id = $1
ORDER BY position ASC
`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []plan.Step{}
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

func scanStep(row pgx.Row) (plan.Step, error) {
	var st plan.Step
	var priority string
	var resourcesBytes []byte
	if err := row.Scan(&st.ID, &st.PlanID, &st.Position, &st.Title, &st.Description, &st.Timeframe, &priority, &resourcesBytes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return plan.Step{}, plan.ErrNotFound
		}
		return plan.Step{}, err
	}
	st.Priority = plan.Priority(priority)
	_ = json.Unmarshal(resourcesBytes, &st.Resources)
	if st.Resources == nil {
		st.Resources = []plan.Resource{}
	}
	return st, nil
}
