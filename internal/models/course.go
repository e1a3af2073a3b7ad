package models

import "time"

// Course is a grade-level course ("4to Básico"). The name is the only
// human-facing label and feeds the denormalized profile labels.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Section is a lettered split of a course ("A", "B"). CourseID must reference
// an existing course; violations are integrity diagnostics, never crashes.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SectionKey identifies a section within its course. Assignments carry both
// ids because truncated legacy data can desynchronize them.
type SectionKey struct {
	CourseID  string `json:"course_id"`
	SectionID string `json:"section_id"`
}
