package models

import (
	"encoding/json"
	"time"
)

// UpsertOp is one idempotent write against the persistent store. DocID must
// be a deterministic function of the record's natural keys so that re-running
// an import after a partial failure can never duplicate documents.
type UpsertOp struct {
	DocID     string          `json:"doc_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SyncReport summarizes one batch sync run.
type SyncReport struct {
	Processed  int      `json:"processed"`
	Enqueued   int      `json:"enqueued"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	FailedKeys []string `json:"failed_keys,omitempty"`
}

// GradeRecord is the denormalized grade document written by the bulk import.
type GradeRecord struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	CourseID    string    `db:"course_id" json:"course_id"`
	SectionID   string    `db:"section_id" json:"section_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	GraderName  string    `db:"grader_name" json:"grader_name"`
	Kind        string    `db:"kind" json:"kind"`
	Score       float64   `db:"score" json:"score"`
	GradedAt    time.Time `db:"graded_at" json:"graded_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
