package service

import (
	"sort"

	"github.com/smart-student/assignment-engine/internal/models"
)

// IndexDiagnostic reports a record excluded from the index because of an
// integrity violation. Excluded records never contribute to audiences.
type IndexDiagnostic struct {
	AssignmentID string `json:"assignment_id"`
	Code         string `json:"code"`
	Detail       string `json:"detail"`
}

// AssignmentIndex is an immutable membership index built from one full
// snapshot of courses, sections and assignments. All lookups are O(1) map
// reads; the index is never mutated after construction, so concurrent
// readers need no locking.
type AssignmentIndex struct {
	studentSections map[string][]models.SectionKey
	sectionStudents map[models.SectionKey][]string
	teacherSections map[string][]models.TeachingKey
	courseSections  map[string][]models.Section
	courseNames     map[string]string
	sectionNames    map[string]string
	diagnostics     []IndexDiagnostic
}

// BuildAssignmentIndex constructs the index. Student assignments sharing a
// (student, course) pair are superseded down to the most recent record:
// max updated_at, ties broken by created_at, then by id for determinism.
// Assignments whose section is missing, or whose section belongs to a
// different course, are excluded and reported as diagnostics.
func BuildAssignmentIndex(courses []models.Course, sections []models.Section, assignments []models.Assignment) *AssignmentIndex {
	idx := &AssignmentIndex{
		studentSections: make(map[string][]models.SectionKey),
		sectionStudents: make(map[models.SectionKey][]string),
		teacherSections: make(map[string][]models.TeachingKey),
		courseSections:  make(map[string][]models.Section),
		courseNames:     make(map[string]string, len(courses)),
		sectionNames:    make(map[string]string, len(sections)),
	}

	for _, c := range courses {
		idx.courseNames[c.ID] = c.Name
	}

	for _, s := range sections {
		idx.sectionNames[s.ID] = s.Name
		if _, ok := idx.courseNames[s.CourseID]; !ok {
			idx.diagnostics = append(idx.diagnostics, IndexDiagnostic{
				AssignmentID: s.ID,
				Code:         "SECTION_ORPHANED",
				Detail:       "section references nonexistent course " + s.CourseID,
			})
			continue
		}
		idx.courseSections[s.CourseID] = append(idx.courseSections[s.CourseID], s)
	}
	for courseID := range idx.courseSections {
		list := idx.courseSections[courseID]
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}

	sectionCourse := make(map[string]string, len(sections))
	for _, s := range sections {
		sectionCourse[s.ID] = s.CourseID
	}

	type studentCourse struct{ studentID, courseID string }
	current := make(map[studentCourse]models.Assignment)

	for _, a := range assignments {
		courseID, ok := sectionCourse[a.SectionID]
		if !ok {
			idx.diagnostics = append(idx.diagnostics, IndexDiagnostic{
				AssignmentID: a.ID,
				Code:         "SECTION_NOT_FOUND",
				Detail:       "assignment references nonexistent section " + a.SectionID,
			})
			continue
		}
		if _, ok := idx.courseNames[courseID]; !ok {
			idx.diagnostics = append(idx.diagnostics, IndexDiagnostic{
				AssignmentID: a.ID,
				Code:         "COURSE_NOT_FOUND",
				Detail:       "assignment section belongs to nonexistent course " + courseID,
			})
			continue
		}
		// Both sides carry the course id; legacy truncation bugs can
		// desynchronize them, so cross-check before trusting either.
		if courseID != a.CourseID {
			idx.diagnostics = append(idx.diagnostics, IndexDiagnostic{
				AssignmentID: a.ID,
				Code:         "COURSE_MISMATCH",
				Detail:       "assignment course " + a.CourseID + " does not own section " + a.SectionID,
			})
			continue
		}

		switch {
		case a.IsStudent():
			key := studentCourse{studentID: *a.StudentID, courseID: a.CourseID}
			if held, ok := current[key]; !ok || supersedes(a, held) {
				current[key] = a
			}
		case a.IsTeacher():
			subjectID := ""
			if a.SubjectID != nil {
				subjectID = *a.SubjectID
			}
			idx.addTeaching(*a.TeacherID, models.TeachingKey{CourseID: a.CourseID, SectionID: a.SectionID, SubjectID: subjectID})
		default:
			idx.diagnostics = append(idx.diagnostics, IndexDiagnostic{
				AssignmentID: a.ID,
				Code:         "NO_SUBJECT_PARTY",
				Detail:       "assignment has neither student nor teacher",
			})
		}
	}

	for key, a := range current {
		sk := models.SectionKey{CourseID: a.CourseID, SectionID: a.SectionID}
		idx.studentSections[key.studentID] = append(idx.studentSections[key.studentID], sk)
		idx.sectionStudents[sk] = append(idx.sectionStudents[sk], key.studentID)
	}

	for studentID := range idx.studentSections {
		list := idx.studentSections[studentID]
		sort.Slice(list, func(i, j int) bool {
			if list[i].CourseID != list[j].CourseID {
				return list[i].CourseID < list[j].CourseID
			}
			return list[i].SectionID < list[j].SectionID
		})
	}
	for sk := range idx.sectionStudents {
		sort.Strings(idx.sectionStudents[sk])
	}
	for teacherID := range idx.teacherSections {
		list := idx.teacherSections[teacherID]
		sort.Slice(list, func(i, j int) bool {
			if list[i].CourseID != list[j].CourseID {
				return list[i].CourseID < list[j].CourseID
			}
			if list[i].SectionID != list[j].SectionID {
				return list[i].SectionID < list[j].SectionID
			}
			return list[i].SubjectID < list[j].SubjectID
		})
	}

	return idx
}

// supersedes reports whether a should replace b as the current assignment.
func supersedes(a, b models.Assignment) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (idx *AssignmentIndex) addTeaching(teacherID string, key models.TeachingKey) {
	for _, existing := range idx.teacherSections[teacherID] {
		if existing == key {
			return
		}
	}
	idx.teacherSections[teacherID] = append(idx.teacherSections[teacherID], key)
}

// SectionsOfStudent returns the current section per course for a student,
// ordered by (course id, section id).
func (idx *AssignmentIndex) SectionsOfStudent(studentID string) []models.SectionKey {
	return idx.studentSections[studentID]
}

// StudentsOfSection returns the students currently assigned to a section.
func (idx *AssignmentIndex) StudentsOfSection(courseID, sectionID string) []string {
	return idx.sectionStudents[models.SectionKey{CourseID: courseID, SectionID: sectionID}]
}

// SectionsOfTeacher returns the teaching slots of a teacher.
func (idx *AssignmentIndex) SectionsOfTeacher(teacherID string) []models.TeachingKey {
	return idx.teacherSections[teacherID]
}

// SectionsOfCourse returns the sections of a course, ordered by name.
func (idx *AssignmentIndex) SectionsOfCourse(courseID string) []models.Section {
	return idx.courseSections[courseID]
}

// CourseName resolves a course id to its human label.
func (idx *AssignmentIndex) CourseName(courseID string) (string, bool) {
	name, ok := idx.courseNames[courseID]
	return name, ok
}

// SectionName resolves a section id to its token.
func (idx *AssignmentIndex) SectionName(sectionID string) (string, bool) {
	name, ok := idx.sectionNames[sectionID]
	return name, ok
}

// HasSection reports whether the (course, section) pair exists.
func (idx *AssignmentIndex) HasSection(courseID, sectionID string) bool {
	for _, s := range idx.courseSections[courseID] {
		if s.ID == sectionID {
			return true
		}
	}
	return false
}

// Diagnostics returns the integrity violations found while building.
func (idx *AssignmentIndex) Diagnostics() []IndexDiagnostic {
	return idx.diagnostics
}
