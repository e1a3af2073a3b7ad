package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/smart-student/assignment-engine/internal/models"
)

// ProfileRepository handles the denormalized user profile cache. Profiles are
// derived data: the only write path is applying reconciler diffs.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ListAll returns every stored profile.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]models.UserProfile, error) {
	const query = `SELECT user_id, role, active_course_labels, section_label, updated_at FROM user_profiles`
	var profiles []models.UserProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, err
	}
	return profiles, nil
}

// FindByUserID returns one stored profile.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	const query = `SELECT user_id, role, active_course_labels, section_label, updated_at FROM user_profiles WHERE user_id = $1`
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ApplyDiff upserts the computed labels for one user.
func (r *ProfileRepository) ApplyDiff(ctx context.Context, diff models.ProfileDiff) error {
	const query = `INSERT INTO user_profiles (user_id, role, active_course_labels, section_label, updated_at)
        SELECT u.id, u.role, $2, $3, $4 FROM users u WHERE u.id = $1
        ON CONFLICT (user_id) DO UPDATE
        SET active_course_labels = EXCLUDED.active_course_labels,
            section_label = EXCLUDED.section_label,
            updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, query, diff.UserID, pq.StringArray(diff.ActiveCourseLabels), diff.SectionLabel, time.Now().UTC())
	return err
}
