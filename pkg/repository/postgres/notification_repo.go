package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathcraft/backend/pkg/notification"
)

// NotificationRepository хранит уведомления о переходах шагов.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) (*NotificationRepository, error) {
	r := &NotificationRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *NotificationRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	step_id UUID REFERENCES plan_steps(id) ON DELETE SET NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC);
`)
	return err
}

func (r *NotificationRepository) Create(ctx context.Context, n notification.Notification) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO notifications (id, user_id, type, message, step_id, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, n.ID, n.UserID, string(n.Type), n.Message, n.StepID, n.Read, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]notification.Notification, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, type, message, step_id, is_read, created_at
FROM notifications WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []notification.Notification{}
	for rows.Next() {
		var n notification.Notification
		var typ string
		var created time.Time
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Message, &n.StepID, &n.Read, &created); err != nil {
			return nil, err
		}
		n.Type = notification.Type(typ)
		n.CreatedAt = created.UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE
`, userID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}
	return nil
}
