package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type — вид уведомления о переходе шага.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
)

// Notification — запись-уведомление. Движок только добавляет записи;
// доставкой и отображением занимается внешний код.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Type      Type       `json:"type"`
	Message   string     `json:"message"`
	StepID    *uuid.UUID `json:"stepId,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
}

var ErrNotFound = errors.New("notification not found")

// Repository — порт хранения уведомлений.
type Repository interface {
	Create(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}
