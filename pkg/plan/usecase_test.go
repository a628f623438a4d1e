package plan

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathcraft/backend/pkg/llm"
	"github.com/pathcraft/backend/pkg/profile"
)

const validPlanJSON = `{
	"overview": "План перехода в бэкенд-разработку",
	"readinessPercent": 45,
	"strengths": ["SQL", "английский"],
	"gaps": ["алгоритмы", "Go"],
	"steps": [
		{"title": "Основы Go", "description": "Пройти тур по языку", "timeframe": "2 weeks", "priority": "high", "resources": [{"name": "Go Tour", "url": "https://go.dev/tour", "type": "course"}]},
		{"title": "Алгоритмы", "description": "Решить 50 задач", "timeframe": "1 month", "priority": "medium", "resources": []},
		{"title": "Pet-проект", "description": "REST-сервис на Go", "timeframe": "3 weeks", "priority": "urgent!!", "resources": []}
	]
}`

type fakePlanRepo struct {
	mu    sync.Mutex
	plans []Plan
}

func (r *fakePlanRepo) Create(ctx context.Context, p Plan) (Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, p)
	return p, nil
}

func (r *fakePlanRepo) FindLatestByUser(ctx context.Context, userID uuid.UUID) (Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Plan
	for _, p := range r.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return Plan{}, ErrNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out[0], nil
}

func (r *fakePlanRepo) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.ID == id && p.UserID == ownerID {
			return p, nil
		}
	}
	return Plan{}, ErrNotFound
}

func (r *fakePlanRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Plan{}
	for _, p := range r.plans {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) GetStepForOwner(ctx context.Context, ownerID, stepID uuid.UUID) (Step, error) {
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
	return Step{}, ErrNotFound
}

func (r *fakePlanRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans)
}

type fakeProfiles struct{ prof profile.Profile }

func (f *fakeProfiles) Upsert(ctx context.Context, p profile.Profile) error { return nil }

func (f *fakeProfiles) GetByUser(ctx context.Context, userID uuid.UUID) (profile.Profile, error) {
	return f.prof, nil
}

type fakeCounter struct{ n int }

func (f *fakeCounter) CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.n, nil
}

type stubModel struct {
	mu    sync.Mutex
	resp  string
	err   error
	delay time.Duration
	calls int
}

func (m *stubModel) Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.resp, m.err
}

func (m *stubModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestService(model *stubModel) (*service, *fakePlanRepo) {
	repo := &fakePlanRepo{}
	uc := NewService(repo, &fakeProfiles{prof: profile.Profile{TargetRole: "Go-разработчик"}}, &fakeCounter{}, model, "test-model", DefaultConfig())
	return uc.(*service), repo
}

func TestGetOrCreate_GeneratesWhenNoPlan(t *testing.T) {
	model := &stubModel{resp: validPlanJSON}
	svc, repo := newTestService(model)
	userID := uuid.New()

	p, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, 45, p.Content.ReadinessPercent)
	require.Len(t, p.Steps, 3)
	for i, st := range p.Steps {
		assert.NotEqual(t, uuid.Nil, st.ID)
		assert.Equal(t, p.ID, st.PlanID)
		assert.Equal(t, i+1, st.Position)
	}
	assert.Equal(t, PriorityHigh, p.Steps[0].Priority)
	// неизвестный приоритет нормализуется в medium
	assert.Equal(t, PriorityMedium, p.Steps[2].Priority)
	assert.Equal(t, 1, repo.count())
}

func TestGetOrCreate_ReusesFreshPlan(t *testing.T) {
	model := &stubModel{resp: validPlanJSON}
	svc, repo := newTestService(model)
	userID := uuid.New()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	first, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{})
	require.NoError(t, err)

	current = base.Add(time.Hour)
	second, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, model.callCount())
	assert.Equal(t, 1, repo.count())
}

func TestGetOrCreate_RegeneratesAfterFreshnessWindow(t *testing.T) {
	model := &stubModel{resp: validPlanJSON}
	svc, repo := newTestService(model)
	userID := uuid.New()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	first, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{})
	require.NoError(t, err)

	current = base.Add(25 * time.Hour)
	second, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, model.callCount())
	assert.Equal(t, 2, repo.count())

	// история сохраняет оба плана, свежий — последним созданным
	latest, err := repo.FindLatestByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestGetOrCreate_ForceRefreshSkipsCache(t *testing.T) {
	model := &stubModel{resp: validPlanJSON}
	svc, _ := newTestService(model)
	userID := uuid.New()

	first, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{})
	require.NoError(t, err)

	second, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{ForceRefresh: true})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, model.callCount())
}

func TestGetOrCreate_GenerationFailureLeavesNothingBehind(t *testing.T) {
	model := &stubModel{err: errors.New("provider is down")}
	svc, repo := newTestService(model)

	_, err := svc.GetOrCreate(context.Background(), uuid.New(), GetOrCreateOptions{})
	require.ErrorIs(t, err, ErrPlanGenerationFailed)
	assert.NotErrorIs(t, err, llm.ErrTimeout)
	assert.Equal(t, 0, repo.count())
}

func TestGetOrCreate_TimeoutIsDistinguishable(t *testing.T) {
	model := &stubModel{err: llm.ErrTimeout}
	svc, repo := newTestService(model)

	_, err := svc.GetOrCreate(context.Background(), uuid.New(), GetOrCreateOptions{})
	require.ErrorIs(t, err, ErrPlanGenerationFailed)
	assert.ErrorIs(t, err, llm.ErrTimeout)
	assert.Equal(t, 0, repo.count())
}

func TestGetOrCreate_MalformedAnswer(t *testing.T) {
	model := &stubModel{resp: "к сожалению, я не могу помочь"}
	svc, repo := newTestService(model)

	_, err := svc.GetOrCreate(context.Background(), uuid.New(), GetOrCreateOptions{})
	require.ErrorIs(t, err, ErrPlanGenerationFailed)
	assert.Equal(t, 0, repo.count())
}

func TestGetOrCreate_RejectsPlanWithoutSteps(t *testing.T) {
	model := &stubModel{resp: `{"overview":"x","readinessPercent":10,"strengths":[],"gaps":[],"steps":[]}`}
	svc, repo := newTestService(model)

	_, err := svc.GetOrCreate(context.Background(), uuid.New(), GetOrCreateOptions{})
	require.ErrorIs(t, err, ErrPlanGenerationFailed)
	assert.Equal(t, 0, repo.count())
}

func TestGetOrCreate_ConcurrentCallsShareOneGeneration(t *testing.T) {
	model := &stubModel{resp: validPlanJSON, delay: 20 * time.Millisecond}
	svc, repo := newTestService(model)
	userID := uuid.New()

	const callers = 8
	ids := make([]uuid.UUID, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.GetOrCreate(context.Background(), userID, GetOrCreateOptions{})
			ids[i], errs[i] = p.ID, err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, model.callCount())
	assert.Equal(t, 1, repo.count())
}

func TestHistory_NormalizesMissingSteps(t *testing.T) {
	model := &stubModel{resp: validPlanJSON}
	svc, repo := newTestService(model)
	userID := uuid.New()

	_, err := repo.Create(context.Background(), Plan{ID: uuid.New(), UserID: userID, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	items, err := svc.History(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotNil(t, items[0].Steps)
	assert.Empty(t, items[0].Steps)
}

func TestParseGenerated_ExtractsJSONFromProse(t *testing.T) {
	wrapped := "Вот ваш план:\n```json\n" + validPlanJSON + "\n```\nУдачи!"
	payload, err := parseGenerated(wrapped)
	require.NoError(t, err)
	assert.Len(t, payload.Steps, 3)
	assert.Equal(t, 45, payload.ReadinessPercent)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, clampPercent(-5))
	assert.Equal(t, 100, clampPercent(140))
	assert.Equal(t, 73, clampPercent(73))
}
