package plan

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors used by repository/use cases
var (
	ErrNotFound = errors.New("plan not found")
	// ErrPlanGenerationFailed covers both a generative-service timeout
	// (retryable, wraps llm.ErrTimeout) and a malformed response.
	ErrPlanGenerationFailed = errors.New("plan generation failed")
)

// Repository — порт хранения планов и их шагов.
type Repository interface {
	Create(ctx context.Context, p Plan) (Plan, error)
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (Plan, error)
	GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (Plan, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Plan, error)
	GetStepForOwner(ctx context.Context, ownerID, stepID uuid.UUID) (Step, error)
}
