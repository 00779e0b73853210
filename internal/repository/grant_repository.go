package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

// GrantRepository persists role grants in the platform's enrolment store.
type GrantRepository struct {
	db *sqlx.DB
}

// NewGrantRepository constructs the repository.
func NewGrantRepository(db *sqlx.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Upsert creates the grant or refreshes its time window. Granting an
// already-held identical enrolment is not an error.
func (r *GrantRepository) Upsert(ctx context.Context, grant *models.RoleGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	const query = `INSERT INTO role_grants (id, user_id, course_id, role_id, time_start, time_end)
        VALUES (:id, :user_id, :course_id, :role_id, :time_start, :time_end)
        ON CONFLICT (user_id, course_id, role_id) DO UPDATE SET time_start = EXCLUDED.time_start, time_end = EXCLUDED.time_end`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("upsert role grant: %w", err)
	}
	return nil
}

// FindByUserAndCourse returns the grants held by a user within a course.
func (r *GrantRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) ([]models.RoleGrant, error) {
	const query = `SELECT id, user_id, course_id, role_id, time_start, time_end FROM role_grants WHERE user_id = $1 AND course_id = $2`
	var grants []models.RoleGrant
	if err := r.db.SelectContext(ctx, &grants, query, userID, courseID); err != nil {
		return nil, fmt.Errorf("find role grants: %w", err)
	}
	return grants, nil
}
