// Package memory implements the domain repository ports on in-process maps.
// It backs the use-case tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pathcraft/backend/pkg/plan"
)

type PlanRepository struct {
	mu    sync.Mutex
	plans map[uuid.UUID]plan.Plan
}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[uuid.UUID]plan.Plan)}
}

func (r *PlanRepository) Create(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.plans[p.ID] = p
	return p, nil
}

func (r *PlanRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *plan.Plan
	for _, p := range r.plans {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			cp := p
			latest = &cp
		}
	}
	if latest == nil {
		return plan.Plan{}, plan.ErrNotFound
	}
	return *latest, nil
}

func (r *PlanRepository) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.UserID != ownerID {
		return plan.Plan{}, plan.ErrNotFound
	}
	return p, nil
}

func (r *PlanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []plan.Plan{}
	for _, p := range r.plans {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []plan.Plan{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *PlanRepository) GetStepForOwner(ctx context.Context, ownerID, stepID uuid.UUID) (plan.Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.UserID != ownerID {
			continue
		}
		for _, st := range p.Steps {
			if st.ID == stepID {
				return st, nil
			}
		}
	}
	return plan.Step{}, plan.ErrNotFound
}
