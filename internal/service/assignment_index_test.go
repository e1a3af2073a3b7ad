package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-student/assignment-engine/internal/models"
)

func TestBuildAssignmentIndexSupersession(t *testing.T) {
	older := studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime)
	newer := studentAssignment("as-2", studentAnaID, courseCuartoID, sectionCuartoB, fixtureTime.Add(time.Hour))

	idx := BuildAssignmentIndex(fixtureCourses(), fixtureSections(), []models.Assignment{older, newer})

	sections := idx.SectionsOfStudent(studentAnaID)
	require.Len(t, sections, 1)
	assert.Equal(t, sectionCuartoB, sections[0].SectionID)

	assert.Empty(t, idx.StudentsOfSection(courseCuartoID, sectionCuartoA))
	assert.Equal(t, []string{studentAnaID}, idx.StudentsOfSection(courseCuartoID, sectionCuartoB))
	assert.Empty(t, idx.Diagnostics())
}

func TestBuildAssignmentIndexSupersessionTieBreaks(t *testing.T) {
	// Same updated_at: created_at decides; same created_at too: higher id wins.
	a := studentAssignment("as-a", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime)
	b := studentAssignment("as-b", studentAnaID, courseCuartoID, sectionCuartoB, fixtureTime)

	idx := BuildAssignmentIndex(fixtureCourses(), fixtureSections(), []models.Assignment{a, b})

	sections := idx.SectionsOfStudent(studentAnaID)
	require.Len(t, sections, 1)
	assert.Equal(t, sectionCuartoB, sections[0].SectionID)

	// Order of input must not matter.
	idx = BuildAssignmentIndex(fixtureCourses(), fixtureSections(), []models.Assignment{b, a})
	sections = idx.SectionsOfStudent(studentAnaID)
	require.Len(t, sections, 1)
	assert.Equal(t, sectionCuartoB, sections[0].SectionID)
}

func TestBuildAssignmentIndexKeepsDistinctCourses(t *testing.T) {
	cuarto := studentAssignment("as-1", studentAnaID, courseCuartoID, sectionCuartoA, fixtureTime)
	quinto := studentAssignment("as-2", studentAnaID, courseQuintoID, sectionQuintoA, fixtureTime)

	idx := BuildAssignmentIndex(fixtureCourses(), fixtureSections(), []models.Assignment{cuarto, quinto})

	sections := idx.SectionsOfStudent(studentAnaID)
	require.Len(t, sections, 2)
	assert.Equal(t, courseCuartoID, sections[0].CourseID)
	assert.Equal(t, courseQuintoID, sections[1].CourseID)
}

func TestBuildAssignmentIndexIntegrityExclusions(t *testing.T) {
	missingSection := studentAssignment("as-1", studentAnaID, courseCuartoID, "ffffffff-0000-4000-8000-000000000000", fixtureTime)
	mismatched := studentAssignment("as-2", studentBrunoID, courseQuintoID, sectionCuartoA, fixtureTime)
	noParty := models.Assignment{ID: "as-3", CourseID: courseCuartoID, SectionID: sectionCuartoA, CreatedAt: fixtureTime, UpdatedAt: fixtureTime}
	valid := studentAssignment("as-4", studentCarlaID, courseCuartoID, sectionCuartoA, fixtureTime)

	idx := BuildAssignmentIndex(fixtureCourses(), fixtureSections(),
		[]models.Assignment{missingSection, mismatched, noParty, valid})

	// Excluded records never contribute to membership.
	assert.Empty(t, idx.SectionsOfStudent(studentAnaID))
	assert.Empty(t, idx.SectionsOfStudent(studentBrunoID))
	assert.Equal(t, []string{studentCarlaID}, idx.StudentsOfSection(courseCuartoID, sectionCuartoA))

	diags := idx.Diagnostics()
	require.Len(t, diags, 3)
	codes := map[string]string{}
	for _, d := range diags {
		codes[d.AssignmentID] = d.Code
	}
	assert.Equal(t, "SECTION_NOT_FOUND", codes["as-1"])
	assert.Equal(t, "COURSE_MISMATCH", codes["as-2"])
	assert.Equal(t, "NO_SUBJECT_PARTY", codes["as-3"])
}

func TestBuildAssignmentIndexOrphanedSection(t *testing.T) {
	sections := append(fixtureSections(), models.Section{
		ID:       "99999999-1111-4222-8333-444444444444",
		Name:     "Z",
		CourseID: "00000000-9999-4888-8777-666666666666",
	})

	idx := BuildAssignmentIndex(fixtureCourses(), sections, nil)

	diags := idx.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "SECTION_ORPHANED", diags[0].Code)
}

func TestBuildAssignmentIndexTeacherDedup(t *testing.T) {
	slot := teacherAssignment("as-1", teacherDiegoID, courseCuartoID, sectionCuartoA, "matematicas")
	dup := teacherAssignment("as-2", teacherDiegoID, courseCuartoID, sectionCuartoA, "matematicas")
	other := teacherAssignment("as-3", teacherDiegoID, courseCuartoID, sectionCuartoB, "matematicas")

	idx := BuildAssignmentIndex(fixtureCourses(), fixtureSections(), []models.Assignment{slot, dup, other})

	slots := idx.SectionsOfTeacher(teacherDiegoID)
	require.Len(t, slots, 2)
	assert.Equal(t, sectionCuartoA, slots[0].SectionID)
	assert.Equal(t, sectionCuartoB, slots[1].SectionID)
}

func TestAssignmentIndexLookups(t *testing.T) {
	idx := BuildAssignmentIndex(fixtureCourses(), fixtureSections(), nil)

	name, ok := idx.CourseName(courseCuartoID)
	require.True(t, ok)
	assert.Equal(t, "4to Básico", name)

	name, ok = idx.SectionName(sectionCuartoB)
	require.True(t, ok)
	assert.Equal(t, "B", name)

	assert.True(t, idx.HasSection(courseCuartoID, sectionCuartoA))
	assert.False(t, idx.HasSection(courseQuintoID, sectionCuartoA))

	sections := idx.SectionsOfCourse(courseCuartoID)
	require.Len(t, sections, 2)
	assert.Equal(t, "A", sections[0].Name)
	assert.Equal(t, "B", sections[1].Name)
}
