package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

// RecordRepository handles persistence of enrolment records. The table keeps a
// unique key on (course_id, user_id) so duplicate submissions can never create
// a second row.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Exists checks whether a record already exists for the (course, user) pair.
func (r *RecordRepository) Exists(ctx context.Context, courseID, userID string) (bool, error) {
	const query = `SELECT 1 FROM enrol_records WHERE course_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrol record: %w", err)
	}
	return true, nil
}

// Insert writes the record, relying on the unique (course_id, user_id) key to
// swallow concurrent duplicates. It reports whether a row was actually
// inserted; false means an identical pair already held a record.
func (r *RecordRepository) Insert(ctx context.Context, record *models.EnrolRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrol_records (id, course_id, user_id, display_name, created_at)
        VALUES ($1, $2, $3, $4, $5) ON CONFLICT (course_id, user_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, record.ID, record.CourseID, record.UserID, record.DisplayName, record.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert enrol record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert enrol record: %w", err)
	}
	return affected == 1, nil
}

// FindByCourseAndUser returns the record for the pair.
func (r *RecordRepository) FindByCourseAndUser(ctx context.Context, courseID, userID string) (*models.EnrolRecord, error) {
	const query = `SELECT id, course_id, user_id, display_name, created_at FROM enrol_records WHERE course_id = $1 AND user_id = $2`
	var record models.EnrolRecord
	if err := r.db.GetContext(ctx, &record, query, courseID, userID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByCourse returns the records for a course with account info.
func (r *RecordRepository) ListByCourse(ctx context.Context, courseID string, page, size int) ([]models.EnrolRecordDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT r.id, r.course_id, r.user_id, r.display_name, r.created_at,
        u.email AS user_email, u.full_name AS user_full_name
        FROM enrol_records r
        LEFT JOIN users u ON u.id = r.user_id
        WHERE r.course_id = $1 ORDER BY r.created_at DESC LIMIT %d OFFSET %d`, size, offset)

	var records []models.EnrolRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, courseID); err != nil {
		return nil, 0, fmt.Errorf("list enrol records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM enrol_records WHERE course_id = $1`, courseID); err != nil {
		return nil, 0, fmt.Errorf("count enrol records: %w", err)
	}
	return records, total, nil
}
