package progress

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status — состояние шага в жизненном цикле.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// StepProgress — прогресс пользователя по одному шагу плана.
// Инварианты: completedAt установлен тогда и только тогда, когда статус
// completed; startedAt пуст тогда и только тогда, когда статус not_started.
type StepProgress struct {
	UserID      uuid.UUID  `json:"userId"`
	StepID      uuid.UUID  `json:"stepId"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Common errors used by repository/use cases
var (
	ErrNotFound          = errors.New("step progress not found")
	ErrInvalidTransition = errors.New("invalid step transition")
)

// Repository — порт хранения прогресса; ровно одна запись на пару
// (пользователь, шаг) после первого перехода.
type Repository interface {
	Upsert(ctx context.Context, p StepProgress) error
	Get(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]StepProgress, error)
	CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error)
}
