package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pathcraft/backend/pkg/llm"
	"github.com/pathcraft/backend/pkg/locker"
	"github.com/pathcraft/backend/pkg/profile"
)

// UseCase — сценарии работы с карьерными планами.
type UseCase interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, opts GetOrCreateOptions) (Plan, error)
	Get(ctx context.Context, userID, planID uuid.UUID) (Plan, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Plan, error)
}

// GetOrCreateOptions управляет политикой кеша.
type GetOrCreateOptions struct {
	// ForceRefresh пропускает проверку свежести и генерирует план заново.
	ForceRefresh bool
}

// CompletedCounter reports how many steps a user has completed across plans.
// It feeds the generation prompt without coupling this package to the
// progress domain.
type CompletedCounter interface {
	CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Config holds cache policy knobs.
type Config struct {
	// Freshness — окно, в пределах которого последний план переиспользуется.
	Freshness time.Duration
	// GenerationTimeout ограничивает один вызов генеративной модели.
	GenerationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Freshness:         24 * time.Hour,
		GenerationTimeout: 60 * time.Second,
	}
}

type service struct {
	repo      Repository
	profiles  profile.Repository
	completed CompletedCounter
	llm       llm.ChatModel
	modelName string
	cfg       Config
	locks     *locker.Keyed
	now       func() time.Time
}

func NewService(repo Repository, profiles profile.Repository, completed CompletedCounter, model llm.ChatModel, modelName string, cfg Config) UseCase {
	if cfg.Freshness <= 0 {
		cfg.Freshness = DefaultConfig().Freshness
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultConfig().GenerationTimeout
	}
	return &service{
		repo:      repo,
		profiles:  profiles,
		completed: completed,
		llm:       model,
		modelName: modelName,
		cfg:       cfg,
		locks:     locker.NewKeyed(),
		now:       time.Now,
	}
}

// GetOrCreate возвращает последний план пользователя, если он моложе окна
// свежести, иначе генерирует и сохраняет новый. Генерация сериализована
// по пользователю: проигравший гонку вызов вернёт план победителя.
func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID, opts GetOrCreateOptions) (Plan, error) {
	unlock := s.locks.Lock(userID.String())
	defer unlock()

	if !opts.ForceRefresh {
		latest, err := s.repo.FindLatestByUser(ctx, userID)
		switch {
		case err == nil:
			if s.now().UTC().Sub(latest.CreatedAt) < s.cfg.Freshness {
				return latest, nil
			}
		case !errors.Is(err, ErrNotFound):
			return Plan{}, err
		}
	}

	prof, err := s.profiles.GetByUser(ctx, userID)
	if err != nil {
		return Plan{}, err
	}
	done, err := s.completed.CountCompletedByUser(ctx, userID)
	if err != nil {
		return Plan{}, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	content, steps, err := s.generate(genCtx, prof, done)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	for i := range steps {
		steps[i].ID = uuid.New()
		steps[i].PlanID = p.ID
		steps[i].Position = i + 1
	}
	p.Steps = steps
	return s.repo.Create(ctx, p)
}

func (s *service) Get(ctx context.Context, userID, planID uuid.UUID) (Plan, error) {
	return s.repo.GetForOwner(ctx, userID, planID)
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Plan, error) {
	items, err := s.repo.ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	// хранилище может отдавать историю без шагов; nil сериализуется как null
	for i := range items {
		if items[i].Steps == nil {
			items[i].Steps = []Step{}
		}
	}
	return items, nil
}

type genStep struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Timeframe   string     `json:"timeframe"`
	Priority    string     `json:"priority"`
	Resources   []Resource `json:"resources"`
}

type genPayload struct {
	Overview         string    `json:"overview"`
	ReadinessPercent int       `json:"readinessPercent"`
	Strengths        []string  `json:"strengths"`
	Gaps             []string  `json:"gaps"`
	Steps            []genStep `json:"steps"`
}

func (s *service) generate(ctx context.Context, prof profile.Profile, completedSteps int) (Content, []Step, error) {
	if s.llm == nil {
		return Content{}, nil, fmt.Errorf("%w: LLM не настроена", ErrPlanGenerationFailed)
	}

	system := "Ты карьерный консультант. Верни результат СТРОГО в JSON (без markdown/код-блоков/пояснений). Пустые массивы всегда возвращай как [], не null. Не выдумывай факты."
	user := fmt.Sprintf(
		"Профиль пользователя:\nО себе: %s\nНавыки: %s\nТекущая роль: %s (опыт: %d лет)\nЦелевая роль: %s\nЦелевая компания: %s\nЦелевая зарплата: %s\nПредпочтения: %s\nЗавершено шагов предыдущих планов: %d\n\nВерни СТРОГО один JSON-объект по схеме:\n{\n  \"overview\": string,\n  \"readinessPercent\": number (0..100),\n  \"strengths\": string[],\n  \"gaps\": string[],\n  \"steps\": [{\"title\":string,\"description\":string,\"timeframe\":string (например \"2 weeks\", \"1 month\"),\"priority\":\"high\"|\"medium\"|\"low\",\"resources\":[{\"name\":string,\"url\":string,\"type\":string}]}]\n}\n\nПравила:\n- 3–7 шагов, от простого к сложному\n- Никаких дополнительных полей\n- Никакого markdown\n- Если список пустой — []\n",
		prof.Bio,
		strings.Join(prof.Skills, ", "),
		prof.Structured.CurrentRole,
		prof.Structured.YearsExperience,
		prof.TargetRole,
		prof.TargetCompany,
		prof.TargetSalary,
		strings.Join(prof.Structured.Preferences, ", "),
		completedSteps,
	)

	raw, err := s.llm.Ask(ctx, system, user)
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Content{}, nil, fmt.Errorf("%w: %w", ErrPlanGenerationFailed, llm.ErrTimeout)
		}
		return Content{}, nil, fmt.Errorf("%w: %v", ErrPlanGenerationFailed, err)
	}

	payload, err := parseGenerated(raw)
	if err != nil {
		return Content{}, nil, fmt.Errorf("%w: %v", ErrPlanGenerationFailed, err)
	}

	content := Content{
		Overview:         strings.TrimSpace(payload.Overview),
		ReadinessPercent: clampPercent(payload.ReadinessPercent),
		Strengths:        payload.Strengths,
		Gaps:             payload.Gaps,
	}
	// нормализуем nil-слайсы
	if content.Strengths == nil {
		content.Strengths = []string{}
	}
	if content.Gaps == nil {
		content.Gaps = []string{}
	}

	steps := make([]Step, 0, len(payload.Steps))
	for _, g := range payload.Steps {
		title := strings.TrimSpace(g.Title)
		if title == "" {
			continue
		}
		res := g.Resources
		if res == nil {
			res = []Resource{}
		}
		steps = append(steps, Step{
			Title:       title,
			Description: strings.TrimSpace(g.Description),
			Timeframe:   strings.TrimSpace(g.Timeframe),
			Priority:    normalizePriority(g.Priority),
			Resources:   res,
		})
	}
	if len(steps) == 0 {
		return Content{}, nil, fmt.Errorf("%w: модель не вернула ни одного шага", ErrPlanGenerationFailed)
	}
	return content, steps, nil
}

func parseGenerated(raw string) (genPayload, error) {
	raw = strings.TrimSpace(raw)
	var out genPayload
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}
	// попытка извлечь JSON из текста
	if i := strings.Index(raw, "{"); i >= 0 {
		if j := strings.LastIndex(raw, "}"); j > i {
			if err := json.Unmarshal([]byte(raw[i:j+1]), &out); err == nil {
				return out, nil
			}
		}
	}
	return genPayload{}, errors.New("не удалось распарсить JSON ответ модели")
}

func normalizePriority(p string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(p))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
