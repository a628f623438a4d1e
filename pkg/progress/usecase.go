package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pathcraft/backend/pkg/locker"
	"github.com/pathcraft/backend/pkg/notification"
	"github.com/pathcraft/backend/pkg/plan"
)

// UseCase — машина состояний шага: start / complete / reset, плюс выдача
// шагов плана вместе с вычисленным прогрессом.
type UseCase interface {
	Start(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error)
	Complete(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error)
	Reset(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error)
	ListForPlan(ctx context.Context, userID, planID uuid.UUID) ([]StepState, error)
}

// StepState — шаг плана вместе с производным прогрессом для отображения.
type StepState struct {
	Step            plan.Step  `json:"step"`
	Status          Status     `json:"status"`
	TimelinePercent int        `json:"timelinePercent"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

type service struct {
	repo          Repository
	plans         plan.Repository
	notifications notification.UseCase
	locks         *locker.Keyed
	now           func() time.Time
}

func NewService(repo Repository, plans plan.Repository, notifications notification.UseCase) UseCase {
	return &service{
		repo:          repo,
		plans:         plans,
		notifications: notifications,
		locks:         locker.NewKeyed(),
		now:           time.Now,
	}
}

// Start переводит шаг из not_started в in_progress. Повторный start уже
// начатого шага — no-op: startedAt сохраняется, уведомление не пишется.
func (s *service) Start(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error) {
	unlock := s.locks.Lock(userID.String())
	defer unlock()

	step, cur, err := s.load(ctx, userID, stepID)
	if err != nil {
		return StepProgress{}, err
	}

	switch cur.Status {
	case StatusInProgress:
		return cur, nil
	case StatusCompleted:
		return StepProgress{}, fmt.Errorf("%w: шаг уже завершён", ErrInvalidTransition)
	}

	now := s.now().UTC()
	cur.Status = StatusInProgress
	cur.StartedAt = &now
	cur.CompletedAt = nil
	cur.UpdatedAt = now
	if err := s.repo.Upsert(ctx, cur); err != nil {
		return StepProgress{}, err
	}
	s.notify(ctx, userID, notification.TypeInfo, fmt.Sprintf("Вы начали шаг «%s»", step.Title), step.ID)
	return cur, nil
}

// Complete переводит шаг из in_progress в completed; startedAt сохраняется.
func (s *service) Complete(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error) {
	unlock := s.locks.Lock(userID.String())
	defer unlock()

	step, cur, err := s.load(ctx, userID, stepID)
	if err != nil {
		return StepProgress{}, err
	}

	switch cur.Status {
	case StatusNotStarted:
		return StepProgress{}, fmt.Errorf("%w: шаг ещё не начат", ErrInvalidTransition)
	case StatusCompleted:
		return cur, nil
	}

	now := s.now().UTC()
	cur.Status = StatusCompleted
	cur.CompletedAt = &now
	cur.UpdatedAt = now
	if err := s.repo.Upsert(ctx, cur); err != nil {
		return StepProgress{}, err
	}
	s.notify(ctx, userID, notification.TypeSuccess, fmt.Sprintf("Шаг «%s» завершён. Отличная работа!", step.Title), step.ID)
	return cur, nil
}

// Reset возвращает шаг в not_started из любого состояния и очищает обе
// временные метки. Сброс шага, по которому ещё нет записи, — no-op.
func (s *service) Reset(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error) {
	unlock := s.locks.Lock(userID.String())
	defer unlock()

	step, cur, err := s.load(ctx, userID, stepID)
	if err != nil {
		return StepProgress{}, err
	}
	if cur.Status == StatusNotStarted {
		return cur, nil
	}

	now := s.now().UTC()
	cur.Status = StatusNotStarted
	cur.StartedAt = nil
	cur.CompletedAt = nil
	cur.UpdatedAt = now
	if err := s.repo.Upsert(ctx, cur); err != nil {
		return StepProgress{}, err
	}
	s.notify(ctx, userID, notification.TypeWarning, fmt.Sprintf("Прогресс шага «%s» сброшен", step.Title), step.ID)
	return cur, nil
}

// ListForPlan возвращает шаги плана в исходном порядке с вычисленным
// статусом и процентом таймлайна.
func (s *service) ListForPlan(ctx context.Context, userID, planID uuid.UUID) ([]StepState, error) {
	p, err := s.plans.GetForOwner(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byStep := make(map[uuid.UUID]StepProgress, len(recs))
	for _, r := range recs {
		byStep[r.StepID] = r
	}

	now := s.now().UTC()
	out := make([]StepState, 0, len(p.Steps))
	for _, st := range p.Steps {
		var rec *StepProgress
		if r, ok := byStep[st.ID]; ok {
			rec = &r
		}
		status, percent := ComputeProgress(st.Timeframe, rec, now)
		state := StepState{Step: st, Status: status, TimelinePercent: percent}
		if rec != nil {
			state.StartedAt = rec.StartedAt
			state.CompletedAt = rec.CompletedAt
		}
		out = append(out, state)
	}
	return out, nil
}

// load проверяет принадлежность шага пользователю и читает текущий прогресс;
// отсутствие записи означает not_started.
func (s *service) load(ctx context.Context, userID, stepID uuid.UUID) (plan.Step, StepProgress, error) {
	step, err := s.plans.GetStepForOwner(ctx, userID, stepID)
	if err != nil {
		return plan.Step{}, StepProgress{}, err
	}
	cur, err := s.repo.Get(ctx, userID, stepID)
	if errors.Is(err, ErrNotFound) {
		return step, StepProgress{UserID: userID, StepID: stepID, Status: StatusNotStarted}, nil
	}
	if err != nil {
		return plan.Step{}, StepProgress{}, err
	}
	return step, cur, nil
}

// notify пишет уведомление после уже сохранённого перехода; отказ записи
// уведомления не откатывает переход.
func (s *service) notify(ctx context.Context, userID uuid.UUID, typ notification.Type, message string, stepID uuid.UUID) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Emit(ctx, userID, typ, message, &stepID); err != nil {
		log.Printf("emit notification for step %s: %v", stepID, err)
	}
}
