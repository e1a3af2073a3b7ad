package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/internal/service"
	"github.com/smart-student/assignment-engine/pkg/config"
	"github.com/smart-student/assignment-engine/pkg/scope"
)

const (
	testCourseID  = "aa72b6c3-4f11-4d9c-9a1e-5b8c2d7e91f0"
	testSectionID = "cc90d8e5-6b33-4f1e-9c30-7daf4f90b312"
	testStudentID = "11c3ab18-9e66-4243-8f63-a0d27cc3e645"
)

type fakeTaskRepo struct {
	tasks map[string]models.Task
}

func (f *fakeTaskRepo) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if task, ok := f.tasks[id]; ok {
		return &task, nil
	}
	return nil, sql.ErrNoRows
}

type fakeCourseLister struct{}

func (fakeCourseLister) ListAll(ctx context.Context) ([]models.Course, error) {
	return []models.Course{{ID: testCourseID, Name: "4to Básico"}}, nil
}

type fakeSectionLister struct{}

func (fakeSectionLister) ListAll(ctx context.Context) ([]models.Section, error) {
	return []models.Section{{ID: testSectionID, Name: "A", CourseID: testCourseID}}, nil
}

type fakeAssignmentLister struct{}

func (fakeAssignmentLister) ListAll(ctx context.Context) ([]models.Assignment, error) {
	studentID := testStudentID
	return []models.Assignment{{
		ID:        "as-1",
		StudentID: &studentID,
		CourseID:  testCourseID,
		SectionID: testSectionID,
	}}, nil
}

func (fakeAssignmentLister) ChangeWatermark(ctx context.Context) (time.Time, error) {
	return time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC), nil
}

type fakeUserLister struct{}

func (fakeUserLister) ListAll(ctx context.Context) ([]models.User, error) {
	return []models.User{{ID: testStudentID, FullName: "Ana Rojas", Role: models.RoleStudent}}, nil
}

type fakeProfileLister struct{}

func (fakeProfileLister) ListAll(ctx context.Context) ([]models.UserProfile, error) {
	return nil, nil
}

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error map[string]interface{} `json:"error"`
}

func newTestAudienceHandler(tasks *fakeTaskRepo) *AudienceHandler {
	snapshots := service.NewSnapshotService(
		fakeCourseLister{}, fakeSectionLister{}, fakeAssignmentLister{},
		fakeUserLister{}, fakeProfileLister{}, nil, nil, nil)
	cfg := config.EngineConfig{SingleSectionFallback: true, LabelFallback: true}
	audiences := service.NewAudienceService(tasks, snapshots, service.NewCacheService(nil, nil, 0, nil), nil, cfg, nil)
	return NewAudienceHandler(audiences, snapshots)
}

func TestAudienceHandlerTaskAudience(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAudienceHandler(&fakeTaskRepo{tasks: map[string]models.Task{
		"task-1": {ID: "task-1", AssignedTo: models.AudienceCourse, ScopeID: scope.Encode(testCourseID, testSectionID)},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tasks/task-1/audience", nil)
	c.Params = gin.Params{{Key: "id", Value: "task-1"}}

	h.TaskAudience(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var audience models.Audience
	require.NoError(t, json.Unmarshal(envelope.Data, &audience))
	assert.Equal(t, []string{testStudentID}, audience.StudentIDs)
	assert.Empty(t, audience.Diagnostic)
}

func TestAudienceHandlerTaskNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAudienceHandler(&fakeTaskRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/tasks/missing/audience", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.TaskAudience(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAudienceHandlerResolveAdHoc(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAudienceHandler(&fakeTaskRepo{})

	body := `{"assigned_to":"course","scope_id":"` + testCourseID + `"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/audience/resolve", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Resolve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var audience models.Audience
	require.NoError(t, json.Unmarshal(envelope.Data, &audience))
	// Single section course: the bare id falls through to that section.
	assert.Equal(t, []string{testStudentID}, audience.StudentIDs)
}

func TestAudienceHandlerResolveRejectsUnknownMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAudienceHandler(&fakeTaskRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/audience/resolve", strings.NewReader(`{"assigned_to":"everyone"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Resolve(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
