package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/smart-student/assignment-engine/internal/models"
)

// TaskRepository reads task-like records (tasks, evaluations, comment
// threads) for audience resolution. The engine never writes tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindByID returns a task by its ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	const query = `SELECT id, title, assigned_to, scope_id, assigned_student_ids, created_at, updated_at FROM tasks WHERE id = $1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListAll returns every task.
func (r *TaskRepository) ListAll(ctx context.Context) ([]models.Task, error) {
	const query = `SELECT id, title, assigned_to, scope_id, assigned_student_ids, created_at, updated_at FROM tasks ORDER BY created_at DESC`
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, err
	}
	return tasks, nil
}
