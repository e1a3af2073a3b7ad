package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smart-student/assignment-engine/internal/models"
)

// AssignmentRepository handles persistence of student and teacher assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, student_id, teacher_id, course_id, section_id, subject_id, created_at, updated_at`

// ListAll returns every assignment record, superseded duplicates included.
// Supersession is resolved in memory when the snapshot index is built.
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments ORDER BY updated_at DESC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindByID returns an assignment by its ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts a new assignment record.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	const query = `INSERT INTO assignments (id, student_id, teacher_id, course_id, section_id, subject_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		assignment.ID, assignment.StudentID, assignment.TeacherID,
		assignment.CourseID, assignment.SectionID, assignment.SubjectID,
		assignment.CreatedAt, assignment.UpdatedAt)
	return err
}

// UpdateSection moves an assignment to a different course section and bumps
// updated_at so the record supersedes its older duplicates.
func (r *AssignmentRepository) UpdateSection(ctx context.Context, id, courseID, sectionID string) error {
	const query = `UPDATE assignments SET course_id = $2, section_id = $3, updated_at = $4 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, courseID, sectionID, time.Now().UTC())
	return err
}

// Delete removes an assignment record.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assignments WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ChangeWatermark returns the most recent updated_at across the tables the
// snapshot is built from. Comparing it against the snapshot's watermark
// detects out-of-band writes without polling full tables.
func (r *AssignmentRepository) ChangeWatermark(ctx context.Context) (time.Time, error) {
	const query = `SELECT GREATEST(
        COALESCE((SELECT MAX(updated_at) FROM assignments), 'epoch'::timestamptz),
        COALESCE((SELECT MAX(updated_at) FROM courses), 'epoch'::timestamptz),
        COALESCE((SELECT MAX(updated_at) FROM sections), 'epoch'::timestamptz),
        COALESCE((SELECT MAX(updated_at) FROM users), 'epoch'::timestamptz))`
	var watermark time.Time
	if err := r.db.GetContext(ctx, &watermark, query); err != nil {
		return time.Time{}, err
	}
	return watermark, nil
}
