package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UseCase — добавление и чтение уведомлений.
type UseCase interface {
	Emit(ctx context.Context, userID uuid.UUID, typ Type, message string, stepID *uuid.UUID) (Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error)
	Unread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) UseCase {
	return &service{repo: repo, now: time.Now}
}

// Emit appends a notification record. Existing records are never mutated.
func (s *service) Emit(ctx context.Context, userID uuid.UUID, typ Type, message string, stepID *uuid.UUID) (Notification, error) {
	if strings.TrimSpace(message) == "" {
		return Notification{}, errors.New("empty notification message")
	}
	switch typ {
	case TypeInfo, TypeSuccess, TypeWarning:
	default:
		typ = TypeInfo
	}
	n := Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		StepID:    stepID,
		Read:      false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *service) Unread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}
