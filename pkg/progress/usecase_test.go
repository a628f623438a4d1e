package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathcraft/backend/pkg/notification"
	"github.com/pathcraft/backend/pkg/plan"
)

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]StepProgress // по stepID, один пользователь на тест
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[uuid.UUID]StepProgress)}
}

func (r *fakeProgressRepo) Upsert(ctx context.Context, p StepProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[p.StepID] = p
	return nil
}

func (r *fakeProgressRepo) Get(ctx context.Context, userID, stepID uuid.UUID) (StepProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[stepID]
	if !ok {
		return StepProgress{}, ErrNotFound
	}
	return p, nil
}

func (r *fakeProgressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]StepProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []StepProgress{}
	for _, p := range r.records {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProgressRepo) CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.records {
		if p.Status == StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeProgressRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakePlans struct {
	owner uuid.UUID
	plan  plan.Plan
}

func (f *fakePlans) Create(ctx context.Context, p plan.Plan) (plan.Plan, error) { return p, nil }

func (f *fakePlans) FindLatestByUser(ctx context.Context, userID uuid.UUID) (plan.Plan, error) {
	return plan.Plan{}, plan.ErrNotFound
}

func (f *fakePlans) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (plan.Plan, error) {
	if ownerID != f.owner || id != f.plan.ID {
		return plan.Plan{}, plan.ErrNotFound
	}
	return f.plan, nil
}

func (f *fakePlans) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]plan.Plan, error) {
	return nil, nil
}

func (f *fakePlans) GetStepForOwner(ctx context.Context, ownerID, stepID uuid.UUID) (plan.Step, error) {
	if ownerID != f.owner {
		return plan.Step{}, plan.ErrNotFound
	}
	for _, st := range f.plan.Steps {
		if st.ID == stepID {
			return st, nil
		}
	}
	return plan.Step{}, plan.ErrNotFound
}

type emitted struct {
	typ     notification.Type
	message string
	stepID  *uuid.UUID
}

type fakeNotifier struct {
	mu    sync.Mutex
	items []emitted
	err   error
}

func (f *fakeNotifier) Emit(ctx context.Context, userID uuid.UUID, typ notification.Type, message string, stepID *uuid.UUID) (notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return notification.Notification{}, f.err
	}
	f.items = append(f.items, emitted{typ: typ, message: message, stepID: stepID})
	return notification.Notification{}, nil
}

func (f *fakeNotifier) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]notification.Notification, error) {
	return nil, nil
}

func (f *fakeNotifier) Unread(ctx context.Context, userID uuid.UUID) (int, error) { return 0, nil }

func (f *fakeNotifier) MarkRead(ctx context.Context, userID, id uuid.UUID) error { return nil }

func (f *fakeNotifier) all() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.items...)
}

func newLifecycleFixture() (*service, *fakeProgressRepo, *fakeNotifier, uuid.UUID, plan.Plan) {
	userID := uuid.New()
	planID := uuid.New()
	p := plan.Plan{
		ID:     planID,
		UserID: userID,
		Steps: []plan.Step{
			{ID: uuid.New(), PlanID: planID, Position: 1, Title: "Основы Go", Timeframe: "2 weeks"},
			{ID: uuid.New(), PlanID: planID, Position: 2, Title: "Алгоритмы", Timeframe: "1 month"},
		},
		CreatedAt: time.Now().UTC(),
	}
	repo := newFakeProgressRepo()
	notifier := &fakeNotifier{}
	uc := NewService(repo, &fakePlans{owner: userID, plan: p}, notifier)
	return uc.(*service), repo, notifier, userID, p
}

func TestStart_SetsStartedAtAndNotifies(t *testing.T) {
	svc, _, notifier, userID, p := newLifecycleFixture()
	stepID := p.Steps[0].ID

	got, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)

	assert.Equal(t, StatusInProgress, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)

	items := notifier.all()
	require.Len(t, items, 1)
	assert.Equal(t, notification.TypeInfo, items[0].typ)
	assert.Contains(t, items[0].message, "Основы Go")
	require.NotNil(t, items[0].stepID)
	assert.Equal(t, stepID, *items[0].stepID)
}

func TestStart_RepeatedIsNoOp(t *testing.T) {
	svc, _, notifier, userID, p := newLifecycleFixture()
	stepID := p.Steps[0].ID

	first, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)

	second, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)

	assert.Equal(t, first.StartedAt, second.StartedAt)
	assert.Len(t, notifier.all(), 1)
}

func TestStart_CompletedStepIsInvalid(t *testing.T) {
	svc, _, _, userID, p := newLifecycleFixture()
	stepID := p.Steps[0].ID

	_, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), userID, stepID)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), userID, stepID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStart_UnknownStep(t *testing.T) {
	svc, repo, notifier, userID, _ := newLifecycleFixture()

	_, err := svc.Start(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, plan.ErrNotFound)
	assert.Equal(t, 0, repo.size())
	assert.Empty(t, notifier.all())
}

func TestStart_ForeignUserCannotTouchStep(t *testing.T) {
	svc, repo, _, _, p := newLifecycleFixture()

	_, err := svc.Start(context.Background(), uuid.New(), p.Steps[0].ID)
	assert.ErrorIs(t, err, plan.ErrNotFound)
	assert.Equal(t, 0, repo.size())
}

func TestComplete_PreservesStartedAt(t *testing.T) {
	svc, _, notifier, userID, p := newLifecycleFixture()
	stepID := p.Steps[0].ID

	started, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), userID, stepID)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, started.StartedAt, done.StartedAt)
	require.NotNil(t, done.CompletedAt)
	assert.False(t, done.CompletedAt.Before(*done.StartedAt))

	items := notifier.all()
	require.Len(t, items, 2)
	assert.Equal(t, notification.TypeSuccess, items[1].typ)
}

func TestComplete_NotStartedIsInvalid(t *testing.T) {
	svc, repo, notifier, userID, p := newLifecycleFixture()

	_, err := svc.Complete(context.Background(), userID, p.Steps[0].ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	// неудачный переход не оставляет ни записи, ни уведомления
	assert.Equal(t, 0, repo.size())
	assert.Empty(t, notifier.all())
}

func TestComplete_RepeatedIsIdempotent(t *testing.T) {
	svc, _, notifier, userID, p := newLifecycleFixture()
	stepID := p.Steps[0].ID

	_, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)
	first, err := svc.Complete(context.Background(), userID, stepID)
	require.NoError(t, err)

	second, err := svc.Complete(context.Background(), userID, stepID)
	require.NoError(t, err)

	assert.Equal(t, first.CompletedAt, second.CompletedAt)
	assert.Len(t, notifier.all(), 2)
}

func TestReset_ClearsTimestamps(t *testing.T) {
	svc, _, notifier, userID, p := newLifecycleFixture()
	stepID := p.Steps[0].ID

	_, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), userID, stepID)
	require.NoError(t, err)

	got, err := svc.Reset(context.Background(), userID, stepID)
	require.NoError(t, err)

	assert.Equal(t, StatusNotStarted, got.Status)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)

	items := notifier.all()
	require.Len(t, items, 3)
	assert.Equal(t, notification.TypeWarning, items[2].typ)

	// после сброса шаг можно начать заново
	restarted, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, restarted.Status)
}

func TestReset_UntouchedStepIsNoOp(t *testing.T) {
	svc, repo, notifier, userID, p := newLifecycleFixture()

	got, err := svc.Reset(context.Background(), userID, p.Steps[0].ID)
	require.NoError(t, err)

	assert.Equal(t, StatusNotStarted, got.Status)
	assert.Equal(t, 0, repo.size())
	assert.Empty(t, notifier.all())
}

func TestStart_NotifierFailureDoesNotRollBackTransition(t *testing.T) {
	svc, repo, notifier, userID, p := newLifecycleFixture()
	notifier.err = errors.New("notification store is down")
	stepID := p.Steps[0].ID

	got, err := svc.Start(context.Background(), userID, stepID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	// переход сохранён несмотря на отказ эмиттера
	persisted, err := repo.Get(context.Background(), userID, stepID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, persisted.Status)
	require.NotNil(t, persisted.StartedAt)
	assert.Empty(t, notifier.all())

	// последующие переходы тоже проходят
	done, err := svc.Complete(context.Background(), userID, stepID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestStart_ConcurrentEmitsOneNotification(t *testing.T) {
	svc, _, notifier, userID, p := newLifecycleFixture()
	stepID := p.Steps[0].ID

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Start(context.Background(), userID, stepID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, notifier.all(), 1)
}

func TestListForPlan_MergesProgressIntoSteps(t *testing.T) {
	svc, _, _, userID, p := newLifecycleFixture()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	_, err := svc.Start(context.Background(), userID, p.Steps[0].ID)
	require.NoError(t, err)

	// половина двухнедельного окна первого шага
	current = base.Add(7 * 24 * time.Hour)

	states, err := svc.ListForPlan(context.Background(), userID, p.ID)
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, p.Steps[0].ID, states[0].Step.ID)
	assert.Equal(t, StatusInProgress, states[0].Status)
	assert.Equal(t, 50, states[0].TimelinePercent)
	require.NotNil(t, states[0].StartedAt)

	assert.Equal(t, StatusNotStarted, states[1].Status)
	assert.Equal(t, 0, states[1].TimelinePercent)
	assert.Nil(t, states[1].StartedAt)
}

func TestListForPlan_UnknownPlan(t *testing.T) {
	svc, _, _, userID, _ := newLifecycleFixture()

	_, err := svc.ListForPlan(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, plan.ErrNotFound)
}
