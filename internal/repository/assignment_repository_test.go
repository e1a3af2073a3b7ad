package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-student/assignment-engine/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "teacher_id", "course_id", "section_id", "subject_id", "created_at", "updated_at"}).
		AddRow("as-1", "student-1", nil, "course-1", "section-1", nil, now, now).
		AddRow("as-2", nil, "teacher-1", "course-1", "section-1", "math", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, teacher_id, course_id, section_id, subject_id, created_at, updated_at FROM assignments ORDER BY updated_at DESC")).
		WillReturnRows(rows)

	assignments, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.True(t, assignments[0].IsStudent())
	assert.True(t, assignments[1].IsTeacher())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO assignments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	studentID := "student-1"
	assignment := &models.Assignment{StudentID: &studentID, CourseID: "course-1", SectionID: "section-1"}
	err := repo.Create(context.Background(), assignment)
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("UPDATE assignments SET course_id").
		WithArgs("as-1", "course-1", "section-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSection(context.Background(), "as-1", "course-1", "section-2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryChangeWatermark(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	watermark := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT GREATEST").
		WillReturnRows(sqlmock.NewRows([]string{"greatest"}).AddRow(watermark))

	got, err := repo.ChangeWatermark(context.Background())
	require.NoError(t, err)
	assert.True(t, watermark.Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}
