package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smart-student/assignment-engine/internal/models"
)

// SyncRepository applies idempotent upsert batches to the persistent store.
// Each batch runs in a single transaction so a failed batch leaves no partial
// writes behind and can be retried wholesale.
type SyncRepository struct {
	db *sqlx.DB
}

// NewSyncRepository constructs the repository.
func NewSyncRepository(db *sqlx.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// UpsertKindGrade is the only document kind currently synced.
const UpsertKindGrade = "grade"

const upsertGradeQuery = `INSERT INTO grade_records
        (id, student_id, student_name, course_id, section_id, subject_id, grader_name, kind, score, graded_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (id) DO UPDATE
        SET student_name = EXCLUDED.student_name,
            course_id = EXCLUDED.course_id,
            section_id = EXCLUDED.section_id,
            subject_id = EXCLUDED.subject_id,
            grader_name = EXCLUDED.grader_name,
            kind = EXCLUDED.kind,
            score = EXCLUDED.score,
            graded_at = EXCLUDED.graded_at,
            updated_at = EXCLUDED.updated_at
        WHERE grade_records.updated_at <= EXCLUDED.updated_at`

// ApplyBatch writes one batch of upsert operations. Conflicting writes to the
// same document id resolve last-writer-wins on updated_at.
func (r *SyncRepository) ApplyBatch(ctx context.Context, batch []models.UpsertOp) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, op := range batch {
		if op.Kind != UpsertKindGrade {
			return fmt.Errorf("unsupported upsert kind %q for doc %s", op.Kind, op.DocID)
		}
		var record models.GradeRecord
		if err := json.Unmarshal(op.Payload, &record); err != nil {
			return fmt.Errorf("decode grade payload for doc %s: %w", op.DocID, err)
		}
		if _, err := tx.ExecContext(ctx, upsertGradeQuery,
			op.DocID, record.StudentID, record.StudentName,
			record.CourseID, record.SectionID, record.SubjectID,
			record.GraderName, record.Kind, record.Score, record.GradedAt,
			now, op.UpdatedAt); err != nil {
			return fmt.Errorf("upsert grade doc %s: %w", op.DocID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync batch: %w", err)
	}
	return nil
}
