package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-student/assignment-engine/internal/models"
)

func TestSnapshotCurrentLoadsOnFirstUse(t *testing.T) {
	svc := newTestSnapshotService([]models.Assignment{
		studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime),
	}, fixtureUsers(), nil)

	snap, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, fixtureTime.Equal(snap.Watermark))
	assert.Equal(t, []string{studentAnaID}, snap.Index.StudentsOfSection(courseCuartoID, sectionCuartoA))

	again, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, again, "published snapshot is reused until refreshed")
}

func TestSnapshotCheckWatermark(t *testing.T) {
	assignments := &stubAssignmentLister{watermark: fixtureTime}
	svc := NewSnapshotService(
		&stubCourseLister{courses: fixtureCourses()},
		&stubSectionLister{sections: fixtureSections()},
		assignments,
		&stubUserLister{users: fixtureUsers()},
		&stubProfileLister{},
		nil, nil, nil,
	)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	changed, err := svc.CheckWatermark(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "unchanged watermark must not rebuild")

	assignments.watermark = fixtureTime.Add(time.Minute)
	assignments.assignments = []models.Assignment{
		studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime.Add(time.Minute)),
	}

	changed, err = svc.CheckWatermark(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	snap, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{studentAnaID}, snap.Index.StudentsOfSection(courseCuartoID, sectionCuartoA))
}

func TestSnapshotRefreshInvalidatesAudienceCache(t *testing.T) {
	cacheRepo := &mockCacheRepo{entries: map[string][]byte{"audience:task-1": []byte(`{}`)}}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil)
	svc := NewSnapshotService(
		&stubCourseLister{courses: fixtureCourses()},
		&stubSectionLister{sections: fixtureSections()},
		&stubAssignmentLister{watermark: fixtureTime},
		&stubUserLister{users: fixtureUsers()},
		&stubProfileLister{},
		cacheSvc, nil, nil,
	)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.entries, "refresh must drop cached audiences")
}
