package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newGroupRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGroupRepositoryListByCourseOrdersAscending(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "name", "created_at"}).
		AddRow("g2", "course-1", "Blue", time.Now()).
		AddRow("g5", "course-1", "Red", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, name, created_at FROM groups WHERE course_id = $1 ORDER BY id ASC")).
		WithArgs("course-1").
		WillReturnRows(rows)

	groups, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "g2", groups[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryAddMember(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO group_members")).
		WithArgs("g2", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AddMember(context.Background(), "g2", "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryAddExistingMember(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO group_members")).
		WithArgs("g2", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddMember(context.Background(), "g2", "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
