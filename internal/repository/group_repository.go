package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

// GroupRepository reads course groups and writes group memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// ListByCourse returns the course's groups ordered by id ascending. The
// assignment policy depends on this ordering.
func (r *GroupRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Group, error) {
	const query = `SELECT id, course_id, name, created_at FROM groups WHERE course_id = $1 ORDER BY id ASC`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, courseID); err != nil {
		return nil, fmt.Errorf("list course groups: %w", err)
	}
	return groups, nil
}

// AddMember inserts a membership. Adding an existing member is a no-op.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	const query = `INSERT INTO group_members (group_id, user_id, added_at)
        VALUES ($1, $2, $3) ON CONFLICT (group_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}
