package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-student/assignment-engine/internal/models"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments map[string]models.Assignment
	moved       []string
	deleted     []string
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if m.assignments == nil {
		m.assignments = make(map[string]models.Assignment)
	}
	if assignment.ID == "" {
		assignment.ID = "generated"
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *mockAssignmentRepo) UpdateSection(ctx context.Context, id, courseID, sectionID string) error {
	a := m.assignments[id]
	a.CourseID = courseID
	a.SectionID = sectionID
	m.assignments[id] = a
	m.moved = append(m.moved, id)
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.assignments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSectionReader struct {
	sections map[string]models.Section
}

func (m *mockSectionReader) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if s, ok := m.sections[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

type mockMutationReconciler struct {
	calls int
}

func (m *mockMutationReconciler) Reconcile(ctx context.Context) ([]models.ProfileDiff, error) {
	m.calls++
	return nil, nil
}

func newTestAssignmentService() (*AssignmentService, *mockAssignmentRepo, *mockMutationReconciler) {
	repo := &mockAssignmentRepo{assignments: make(map[string]models.Assignment)}
	sections := &mockSectionReader{sections: map[string]models.Section{
		sectionCuartoA: {ID: sectionCuartoA, Name: "A", CourseID: courseCuartoID},
		sectionCuartoB: {ID: sectionCuartoB, Name: "B", CourseID: courseCuartoID},
		sectionQuintoA: {ID: sectionQuintoA, Name: "A", CourseID: courseQuintoID},
	}}
	users := &mockUserReader{users: map[string]models.User{
		studentAnaID:   {ID: studentAnaID, Role: models.RoleStudent},
		teacherDiegoID: {ID: teacherDiegoID, Role: models.RoleTeacher},
	}}
	reconciler := &mockMutationReconciler{}
	return NewAssignmentService(repo, sections, users, reconciler, nil, nil), repo, reconciler
}

func TestAssignmentCreateStudent(t *testing.T) {
	svc, repo, reconciler := newTestAssignmentService()

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{
		StudentID: studentAnaID,
		CourseID:  courseCuartoID,
		SectionID: sectionCuartoA,
	})
	require.NoError(t, err)
	require.NotNil(t, assignment.StudentID)
	assert.Equal(t, studentAnaID, *assignment.StudentID)
	assert.Len(t, repo.assignments, 1)
	assert.Equal(t, 1, reconciler.calls, "mutations must reconcile synchronously")
}

func TestAssignmentCreateRequiresExactlyOneParty(t *testing.T) {
	svc, _, _ := newTestAssignmentService()

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{
		CourseID:  courseCuartoID,
		SectionID: sectionCuartoA,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), CreateAssignmentRequest{
		StudentID: studentAnaID,
		TeacherID: teacherDiegoID,
		CourseID:  courseCuartoID,
		SectionID: sectionCuartoA,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentCreateRejectsSectionCourseMismatch(t *testing.T) {
	svc, _, reconciler := newTestAssignmentService()

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{
		StudentID: studentAnaID,
		CourseID:  courseQuintoID,
		SectionID: sectionCuartoA,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIntegrityViolation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, reconciler.calls)
}

func TestAssignmentCreateRejectsWrongRole(t *testing.T) {
	svc, _, _ := newTestAssignmentService()

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{
		StudentID: teacherDiegoID,
		CourseID:  courseCuartoID,
		SectionID: sectionCuartoA,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAssignmentMove(t *testing.T) {
	svc, repo, reconciler := newTestAssignmentService()
	repo.assignments["as-1"] = studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime)

	assignment, err := svc.Move(context.Background(), "as-1", MoveAssignmentRequest{
		CourseID:  courseCuartoID,
		SectionID: sectionCuartoB,
	})
	require.NoError(t, err)
	assert.Equal(t, sectionCuartoB, assignment.SectionID)
	assert.Equal(t, []string{"as-1"}, repo.moved)
	assert.Equal(t, 1, reconciler.calls)
}

func TestAssignmentMoveNotFound(t *testing.T) {
	svc, _, _ := newTestAssignmentService()

	_, err := svc.Move(context.Background(), "ghost", MoveAssignmentRequest{
		CourseID:  courseCuartoID,
		SectionID: sectionCuartoA,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentDelete(t *testing.T) {
	svc, repo, reconciler := newTestAssignmentService()
	repo.assignments["as-1"] = studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime)

	require.NoError(t, svc.Delete(context.Background(), "as-1"))
	assert.Empty(t, repo.assignments)
	assert.Equal(t, 1, reconciler.calls)
}
