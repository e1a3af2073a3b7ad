package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-student/assignment-engine/internal/models"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
)

func TestRosterCSV(t *testing.T) {
	snapshots := newTestSnapshotService([]models.Assignment{
		studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime),
		studentAssignment("as-2", studentBrunoID, courseCuartoID, sectionCuartoB, fixtureTime),
	}, fixtureUsers(), nil)
	svc := NewExportService(snapshots, nil)

	data, err := svc.RosterCSV(context.Background(), courseCuartoID, sectionCuartoA)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "header plus one student; section B stays out")
	assert.Equal(t, "Estudiante,RUT,Curso,Sección", lines[0])
	assert.Contains(t, lines[1], "Ana Rojas")
	assert.Contains(t, lines[1], "4to Básico")
}

func TestRosterCSVSectionNotFound(t *testing.T) {
	snapshots := newTestSnapshotService(nil, fixtureUsers(), nil)
	svc := NewExportService(snapshots, nil)

	// Section exists but under the other course.
	_, err := svc.RosterCSV(context.Background(), courseQuintoID, sectionCuartoA)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterPDF(t *testing.T) {
	snapshots := newTestSnapshotService([]models.Assignment{
		studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime),
	}, fixtureUsers(), nil)
	svc := NewExportService(snapshots, nil)

	data, err := svc.RosterPDF(context.Background(), courseCuartoID, sectionCuartoA)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestFailureCSV(t *testing.T) {
	svc := NewExportService(newTestSnapshotService(nil, nil, nil), nil)

	data, err := svc.FailureCSV(models.SyncReport{FailedKeys: []string{"doc-1", "doc-2"}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "doc_id", lines[0])
	assert.Equal(t, "doc-1", lines[1])
}
