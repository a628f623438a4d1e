package profile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UseCase — чтение и редактирование профиля.
type UseCase interface {
	Get(ctx context.Context, userID uuid.UUID) (Profile, error)
	Save(ctx context.Context, p Profile) (Profile, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) UseCase {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return s.repo.GetByUser(ctx, userID)
}

func (s *service) Save(ctx context.Context, p Profile) (Profile, error) {
	// нормализуем nil-слайсы
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Structured.Preferences == nil {
		p.Structured.Preferences = []string{}
	}
	if p.Structured.YearsExperience < 0 {
		p.Structured.YearsExperience = 0
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
