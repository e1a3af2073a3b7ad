package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskAudienceMode selects how a task addresses its audience.
type TaskAudienceMode string

const (
	// AudienceCourse targets every current student of the scope's section.
	AudienceCourse TaskAudienceMode = "course"
	// AudienceStudent targets an explicit list of student ids.
	AudienceStudent TaskAudienceMode = "student"
)

// Task is the common shape of tasks, evaluations and comment threads: an
// addressing mode plus a scope identifier (bare course id or composite
// course-section id, see pkg/scope).
type Task struct {
	ID                 string           `db:"id" json:"id"`
	Title              string           `db:"title" json:"title"`
	AssignedTo         TaskAudienceMode `db:"assigned_to" json:"assigned_to"`
	ScopeID            string           `db:"scope_id" json:"scope_id"`
	AssignedStudentIDs pq.StringArray   `db:"assigned_student_ids" json:"assigned_student_ids,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Audience diagnostic codes surfaced alongside resolution results.
const (
	DiagnosticNone          = ""
	DiagnosticScopeNotFound = "SCOPE_NOT_FOUND"
	DiagnosticAmbiguous     = "AMBIGUOUS_SCOPE"
	DiagnosticLabelFallback = "LABEL_FALLBACK"
)

// Audience is the resolved set of students allowed to see a task. An empty
// set with a diagnostic code means the scope could not be resolved; it must
// not be read as "nobody assigned".
type Audience struct {
	StudentIDs []string `json:"student_ids"`
	Diagnostic string   `json:"diagnostic,omitempty"`
}

// Contains reports membership in the resolved audience.
func (a Audience) Contains(studentID string) bool {
	for _, id := range a.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
