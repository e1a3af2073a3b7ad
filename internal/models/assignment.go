package models

import "time"

// Assignment links a student or a teacher to a course section. Student
// assignments may accumulate historical duplicates per (student, course);
// only the most recently updated one is current, the rest are retained for
// audit and ignored by resolution.
type Assignment struct {
	ID        string    `db:"id" json:"id"`
	StudentID *string   `db:"student_id" json:"student_id,omitempty"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CourseID  string    `db:"course_id" json:"course_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	SubjectID *string   `db:"subject_id" json:"subject_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsStudent reports whether the record assigns a student.
func (a Assignment) IsStudent() bool {
	return a.StudentID != nil && *a.StudentID != ""
}

// IsTeacher reports whether the record assigns a teacher.
func (a Assignment) IsTeacher() bool {
	return a.TeacherID != nil && *a.TeacherID != ""
}

// TeachingKey identifies a teacher's section-subject slot.
type TeachingKey struct {
	CourseID  string `json:"course_id"`
	SectionID string `json:"section_id"`
	SubjectID string `json:"subject_id"`
}

// AssignmentFilter captures filtering criteria for listing assignments.
type AssignmentFilter struct {
	StudentID string
	TeacherID string
	CourseID  string
	SectionID string
	Page      int
	PageSize  int
}
