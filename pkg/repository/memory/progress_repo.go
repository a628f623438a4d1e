package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pathcraft/backend/pkg/progress"
)

type progressKey struct {
	userID uuid.UUID
	stepID uuid.UUID
}

type ProgressRepository struct {
	mu      sync.Mutex
	records map[progressKey]progress.StepProgress
}

func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{records: make(map[progressKey]progress.StepProgress)}
}

func (r *ProgressRepository) Upsert(ctx context.Context, p progress.StepProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[progressKey{p.UserID, p.StepID}] = p
	return nil
}

func (r *ProgressRepository) Get(ctx context.Context, userID, stepID uuid.UUID) (progress.StepProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[progressKey{userID, stepID}]
	if !ok {
		return progress.StepProgress{}, progress.ErrNotFound
	}
	return p, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]progress.StepProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []progress.StepProgress{}
	for k, p := range r.records {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProgressRepository) CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, p := range r.records {
		if k.userID == userID && p.Status == progress.StatusCompleted {
			n++
		}
	}
	return n, nil
}
