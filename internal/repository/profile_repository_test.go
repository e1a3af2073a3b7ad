package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-student/assignment-engine/internal/models"
)

func TestProfileRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "role", "active_course_labels", "section_label", "updated_at"}).
		AddRow("user-1", "STUDENT", `{"4to Básico - Sección A"}`, "A", time.Now())
	mock.ExpectQuery("SELECT user_id, role, active_course_labels").
		WillReturnRows(rows)

	profiles, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, []string{"4to Básico - Sección A"}, []string(profiles[0].ActiveCourseLabels))
	require.NotNil(t, profiles[0].SectionLabel)
	assert.Equal(t, "A", *profiles[0].SectionLabel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryApplyDiff(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	sectionLabel := "A"
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("user-1", sqlmock.AnyArg(), "A", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyDiff(context.Background(), models.ProfileDiff{
		UserID:             "user-1",
		ActiveCourseLabels: []string{"4to Básico - Sección A"},
		SectionLabel:       &sectionLabel,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryApplyDiffClearing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("user-1", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyDiff(context.Background(), models.ProfileDiff{UserID: "user-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
