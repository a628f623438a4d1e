package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Profile — карьерный профиль пользователя; входные данные генерации плана.
type Profile struct {
	UserID        uuid.UUID      `json:"userId"`
	Bio           string         `json:"bio"`
	Skills        []string       `json:"skills"`
	TargetRole    string         `json:"targetRole"`
	TargetCompany string         `json:"targetCompany"`
	TargetSalary  string         `json:"targetSalary"`
	Structured    StructuredData `json:"structured"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// StructuredData — дополнительные структурированные поля профиля.
type StructuredData struct {
	CurrentRole     string   `json:"currentRole"`
	YearsExperience int      `json:"yearsExperience"`
	Preferences     []string `json:"preferences"`
}

var ErrNotFound = errors.New("profile not found")

// Repository — порт доступа к профилям.
type Repository interface {
	Upsert(ctx context.Context, p Profile) error
	GetByUser(ctx context.Context, userID uuid.UUID) (Profile, error)
}
