package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

func newRecordRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRecordRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrol_records WHERE course_id = $1 AND user_id = $2 LIMIT 1")).
		WithArgs("course-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "course-1", "user-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryExistsNoRow(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrol_records")).
		WithArgs("course-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "course-1", "user-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrol_records")).
		WithArgs(sqlmock.AnyArg(), "course-1", "user-1", "User One", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := repo.Insert(context.Background(), &models.EnrolRecord{
		CourseID:    "course-1",
		UserID:      "user-1",
		DisplayName: "User One",
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryInsertConflictIsNoop(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	// ON CONFLICT DO NOTHING reports zero affected rows for the loser.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrol_records")).
		WithArgs(sqlmock.AnyArg(), "course-1", "user-1", "User One", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), &models.EnrolRecord{
		CourseID:    "course-1",
		UserID:      "user-1",
		DisplayName: "User One",
	})
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryFindByCourseAndUser(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "user_id", "display_name", "created_at"}).
		AddRow("rec-1", "course-1", "user-1", "User One", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, user_id, display_name, created_at FROM enrol_records WHERE course_id = $1 AND user_id = $2")).
		WithArgs("course-1", "user-1").
		WillReturnRows(rows)

	record, err := repo.FindByCourseAndUser(context.Background(), "course-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, "User One", record.DisplayName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "user_id", "display_name", "created_at", "user_email", "user_full_name"}).
		AddRow("rec-1", "course-1", "user-1", "User One", time.Now(), "u1@example.com", "User One")
	mock.ExpectQuery("SELECT r.id, r.course_id").
		WithArgs("course-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrol_records WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.ListByCourse(context.Background(), "course-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "u1@example.com", records[0].UserEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}
