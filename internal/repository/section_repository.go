package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smart-student/assignment-engine/internal/models"
)

// SectionRepository handles persistence of course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListAll returns every section.
func (r *SectionRepository) ListAll(ctx context.Context) ([]models.Section, error) {
	const query = `SELECT id, name, course_id, created_at, updated_at FROM sections ORDER BY course_id, name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, err
	}
	return sections, nil
}

// ListByCourse returns the sections belonging to a course.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	const query = `SELECT id, name, course_id, created_at, updated_at FROM sections WHERE course_id = $1 ORDER BY name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, courseID); err != nil {
		return nil, err
	}
	return sections, nil
}

// FindByID returns a section by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, name, course_id, created_at, updated_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create inserts a new section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, name, course_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, section.ID, section.Name, section.CourseID, section.CreatedAt, section.UpdatedAt)
	return err
}
