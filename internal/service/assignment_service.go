package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smart-student/assignment-engine/internal/models"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
)

type assignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	UpdateSection(ctx context.Context, id, courseID, sectionID string) error
	Delete(ctx context.Context, id string) error
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type mutationReconciler interface {
	Reconcile(ctx context.Context) ([]models.ProfileDiff, error)
}

// CreateAssignmentRequest describes assignment creation.
type CreateAssignmentRequest struct {
	StudentID string `json:"student_id"`
	TeacherID string `json:"teacher_id"`
	CourseID  string `json:"course_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	SubjectID string `json:"subject_id"`
}

// MoveAssignmentRequest moves an assignment to another section.
type MoveAssignmentRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

// AssignmentService orchestrates assignment mutations. Every successful
// mutation runs a synchronous reconciliation pass, replacing the legacy
// storage-callback-and-timer approach to keeping profiles in sync.
type AssignmentService struct {
	repo       assignmentRepository
	sections   sectionReader
	users      userReader
	reconciler mutationReconciler
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(repo assignmentRepository, sections sectionReader, users userReader, reconciler mutationReconciler, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, sections: sections, users: users, reconciler: reconciler, validator: validate, logger: logger}
}

// Create validates and persists a new assignment, then reconciles profiles.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if (req.StudentID == "") == (req.TeacherID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of student_id or teacher_id is required")
	}

	if err := s.checkSection(ctx, req.CourseID, req.SectionID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{CourseID: req.CourseID, SectionID: req.SectionID}
	if req.StudentID != "" {
		user, err := s.users.FindByID(ctx, req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if user.Role != models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "user is not a student")
		}
		assignment.StudentID = &req.StudentID
	} else {
		user, err := s.users.FindByID(ctx, req.TeacherID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		if user.Role != models.RoleTeacher {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "user is not a teacher")
		}
		assignment.TeacherID = &req.TeacherID
		if req.SubjectID != "" {
			assignment.SubjectID = &req.SubjectID
		}
	}

	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.reconcileAfterMutation(ctx, "create", assignment.ID)
	return assignment, nil
}

// Move reassigns an existing record to a different section.
func (s *AssignmentService) Move(ctx context.Context, id string, req MoveAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.checkSection(ctx, req.CourseID, req.SectionID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSection(ctx, id, req.CourseID, req.SectionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move assignment")
	}

	s.reconcileAfterMutation(ctx, "move", id)

	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload assignment")
	}
	return assignment, nil
}

// Delete removes an assignment, then reconciles profiles.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}

	s.reconcileAfterMutation(ctx, "delete", id)
	return nil
}

// checkSection cross-references both sides of the (course, section) pair.
func (s *AssignmentService) checkSection(ctx context.Context, courseID, sectionID string) error {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.CourseID != courseID {
		return appErrors.Clone(appErrors.ErrIntegrityViolation, "section does not belong to course")
	}
	return nil
}

func (s *AssignmentService) reconcileAfterMutation(ctx context.Context, op, id string) {
	if _, err := s.reconciler.Reconcile(ctx); err != nil {
		// The mutation is durable; the next pass or the watermark check
		// will converge the caches.
		s.logger.Warn("post-mutation reconciliation failed",
			zap.String("op", op),
			zap.String("assignment_id", id),
			zap.Error(err))
	}
}
