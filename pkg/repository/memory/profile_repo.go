package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pathcraft/backend/pkg/profile"
)

type ProfileRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]profile.Profile
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[uuid.UUID]profile.Profile)}
}

func (r *ProfileRepository) Upsert(ctx context.Context, p profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
	return nil
}

func (r *ProfileRepository) GetByUser(ctx context.Context, userID uuid.UUID) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}
