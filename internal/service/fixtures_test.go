package service

import (
	"context"
	"time"

	"github.com/smart-student/assignment-engine/internal/models"
)

// Shared fixture data: two courses, "4to Básico" with sections A and B,
// "5to Básico" with a single section A.
const (
	courseCuartoID = "aa72b6c3-4f11-4d9c-9a1e-5b8c2d7e91f0"
	courseQuintoID = "bb81c7d4-5a22-4e0d-8b2f-6c9d3e8fa201"

	sectionCuartoA = "cc90d8e5-6b33-4f1e-9c30-7daf4f90b312"
	sectionCuartoB = "dda1e9f6-7c44-4021-8d41-8eb05aa1c423"
	sectionQuintoA = "eeb2fa07-8d55-4132-9e52-9fc16bb2d534"

	studentAnaID   = "11c3ab18-9e66-4243-8f63-a0d27cc3e645"
	studentBrunoID = "22d4bc29-af77-4354-9074-b1e38dd4f756"
	studentCarlaID = "33e5cd3a-b088-4465-8185-c2f49ee50867"
	teacherDiegoID = "44f6de4b-c199-4576-9296-d3050ff61978"
)

var fixtureTime = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func fixtureCourses() []models.Course {
	return []models.Course{
		{ID: courseCuartoID, Name: "4to Básico"},
		{ID: courseQuintoID, Name: "5to Básico"},
	}
}

func fixtureSections() []models.Section {
	return []models.Section{
		{ID: sectionCuartoA, Name: "A", CourseID: courseCuartoID},
		{ID: sectionCuartoB, Name: "B", CourseID: courseCuartoID},
		{ID: sectionQuintoA, Name: "A", CourseID: courseQuintoID},
	}
}

func fixtureUsers() []models.User {
	return []models.User{
		{ID: studentAnaID, FullName: "Ana Rojas", NaturalKey: "11.111.111-1", Role: models.RoleStudent},
		{ID: studentBrunoID, FullName: "Bruno Pérez", NaturalKey: "22.222.222-2", Role: models.RoleStudent},
		{ID: studentCarlaID, FullName: "Carla Soto", NaturalKey: "33.333.333-3", Role: models.RoleStudent},
		{ID: teacherDiegoID, FullName: "Diego Muñoz", Role: models.RoleTeacher},
	}
}

func studentAssignment(id, studentID, courseID, sectionID string, updatedAt time.Time) models.Assignment {
	return models.Assignment{
		ID:        id,
		StudentID: ptr(studentID),
		CourseID:  courseID,
		SectionID: sectionID,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func teacherAssignment(id, teacherID, courseID, sectionID, subjectID string) models.Assignment {
	a := models.Assignment{
		ID:        id,
		TeacherID: ptr(teacherID),
		CourseID:  courseID,
		SectionID: sectionID,
		CreatedAt: fixtureTime,
		UpdatedAt: fixtureTime,
	}
	if subjectID != "" {
		a.SubjectID = ptr(subjectID)
	}
	return a
}

// buildSnapshot assembles an in-memory snapshot the way Load does, without
// touching a store.
func buildSnapshot(assignments []models.Assignment, users []models.User, profiles []models.UserProfile) *Snapshot {
	courses := fixtureCourses()
	sections := fixtureSections()
	return &Snapshot{
		Index:       BuildAssignmentIndex(courses, sections, assignments),
		Courses:     courses,
		Sections:    sections,
		Assignments: assignments,
		Users:       users,
		Profiles:    profiles,
		Watermark:   fixtureTime,
		BuiltAt:     fixtureTime,
	}
}

type stubCourseLister struct{ courses []models.Course }

func (s *stubCourseLister) ListAll(ctx context.Context) ([]models.Course, error) {
	return s.courses, nil
}

type stubSectionLister struct{ sections []models.Section }

func (s *stubSectionLister) ListAll(ctx context.Context) ([]models.Section, error) {
	return s.sections, nil
}

type stubAssignmentLister struct {
	assignments []models.Assignment
	watermark   time.Time
}

func (s *stubAssignmentLister) ListAll(ctx context.Context) ([]models.Assignment, error) {
	return s.assignments, nil
}

func (s *stubAssignmentLister) ChangeWatermark(ctx context.Context) (time.Time, error) {
	return s.watermark, nil
}

type stubUserLister struct{ users []models.User }

func (s *stubUserLister) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users, nil
}

type stubProfileLister struct{ profiles []models.UserProfile }

func (s *stubProfileLister) ListAll(ctx context.Context) ([]models.UserProfile, error) {
	return s.profiles, nil
}

// newTestSnapshotService wires a snapshot service over in-memory stubs.
func newTestSnapshotService(assignments []models.Assignment, users []models.User, profiles []models.UserProfile) *SnapshotService {
	return NewSnapshotService(
		&stubCourseLister{courses: fixtureCourses()},
		&stubSectionLister{sections: fixtureSections()},
		&stubAssignmentLister{assignments: assignments, watermark: fixtureTime},
		&stubUserLister{users: users},
		&stubProfileLister{profiles: profiles},
		nil,
		nil,
		nil,
	)
}
