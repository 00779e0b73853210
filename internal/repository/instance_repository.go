package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

// InstanceRepository handles persistence of enrol instances.
type InstanceRepository struct {
	db *sqlx.DB
}

// NewInstanceRepository constructs the repository.
func NewInstanceRepository(db *sqlx.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// List returns enrol instances filtered by the provided criteria.
func (r *InstanceRepository) List(ctx context.Context, filter models.InstanceFilter) ([]models.EnrolInstance, int, error) {
	base := `FROM enrol_instances`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "created_at",
		"name":       "name",
		"course_id":  "course_id",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, course_id, name, status, role_id, enrol_period, accepting_new, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var instances []models.EnrolInstance
	if err := r.db.SelectContext(ctx, &instances, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrol instances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrol instances: %w", err)
	}
	return instances, total, nil
}

// FindByID returns an enrol instance by its ID.
func (r *InstanceRepository) FindByID(ctx context.Context, id string) (*models.EnrolInstance, error) {
	const query = `SELECT id, course_id, name, status, role_id, enrol_period, accepting_new, created_at, updated_at FROM enrol_instances WHERE id = $1`
	var instance models.EnrolInstance
	if err := r.db.GetContext(ctx, &instance, query, id); err != nil {
		return nil, err
	}
	return &instance, nil
}

// Create persists a new enrol instance.
func (r *InstanceRepository) Create(ctx context.Context, instance *models.EnrolInstance) error {
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}
	instance.UpdatedAt = now
	const query = `INSERT INTO enrol_instances (id, course_id, name, status, role_id, enrol_period, accepting_new, created_at, updated_at)
        VALUES (:id, :course_id, :name, :status, :role_id, :enrol_period, :accepting_new, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instance); err != nil {
		return fmt.Errorf("create enrol instance: %w", err)
	}
	return nil
}

// Update persists mutable instance fields.
func (r *InstanceRepository) Update(ctx context.Context, instance *models.EnrolInstance) error {
	instance.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrol_instances SET name = :name, status = :status, role_id = :role_id,
        enrol_period = :enrol_period, accepting_new = :accepting_new, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, instance); err != nil {
		return fmt.Errorf("update enrol instance: %w", err)
	}
	return nil
}

// Delete removes an enrol instance. Existing records and grants survive.
func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM enrol_instances WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete enrol instance: %w", err)
	}
	return nil
}
