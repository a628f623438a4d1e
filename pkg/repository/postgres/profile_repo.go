package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathcraft/backend/pkg/profile"
)

// ProfileRepository хранит карьерные профили пользователей.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) (*ProfileRepository, error) {
	r := &ProfileRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ProfileRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS profiles (
	user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	bio TEXT NOT NULL DEFAULT '',
	skills JSONB NOT NULL,
	target_role TEXT NOT NULL DEFAULT '',
	target_company TEXT NOT NULL DEFAULT '',
	target_salary TEXT NOT NULL DEFAULT '',
	structured JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (r *ProfileRepository) Upsert(ctx context.Context, p profile.Profile) error {
	skillsJSON, err := json.Marshal(p.Skills)
	if err != nil {
		return err
	}
	structuredJSON, err := json.Marshal(p.Structured)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO profiles (user_id, bio, skills, target_role, target_company, target_salary, structured, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id) DO UPDATE SET
	bio = EXCLUDED.bio,
	skills = EXCLUDED.skills,
	target_role = EXCLUDED.target_role,
	target_company = EXCLUDED.target_company,
	target_salary = EXCLUDED.target_salary,
	structured = EXCLUDED.structured,
	updated_at = EXCLUDED.updated_at
`, p.UserID, p.Bio, skillsJSON, p.TargetRole, p.TargetCompany, p.TargetSalary, structuredJSON, p.UpdatedAt)
	return err
}

func (r *ProfileRepository) GetByUser(ctx context.Context, userID uuid.UUID) (profile.Profile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_id, bio, skills, target_role, target_company, target_salary, structured, updated_at
FROM profiles WHERE user_id = $1
`, userID)
	var p profile.Profile
	var skillsBytes, structuredBytes []byte
	var updated time.Time
	if err := row.Scan(&p.UserID, &p.Bio, &skillsBytes, &p.TargetRole, &p.TargetCompany, &p.TargetSalary, &structuredBytes, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, err
	}
	_ = json.Unmarshal(skillsBytes, &p.Skills)
	_ = json.Unmarshal(structuredBytes, &p.Structured)
	if p.Skills == nil {
		p.Skills = []string{}
	}
	p.UpdatedAt = updated.UTC()
	return p, nil
}
