package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/pkg/config"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
	"github.com/smart-student/assignment-engine/pkg/scope"
)

type taskReader interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
}

// AudienceService computes which students may see a task-like entity.
// Resolution itself is pure; the service adds task loading, caching and
// metrics around it.
type AudienceService struct {
	tasks     taskReader
	snapshots *SnapshotService
	cache     *CacheService
	metrics   *MetricsService
	cfg       config.EngineConfig
	logger    *zap.Logger
}

// NewAudienceService constructs the audience service.
func NewAudienceService(tasks taskReader, snapshots *SnapshotService, cache *CacheService, metrics *MetricsService, cfg config.EngineConfig, logger *zap.Logger) *AudienceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudienceService{tasks: tasks, snapshots: snapshots, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

// ResolveTask resolves the audience of a stored task, serving cached results
// when available. Cached entries are invalidated on every snapshot refresh.
func (s *AudienceService) ResolveTask(ctx context.Context, taskID string) (models.Audience, error) {
	cacheKey := fmt.Sprintf("audience:%s", taskID)
	var cached models.Audience
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Audience{}, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return models.Audience{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return models.Audience{}, err
	}

	audience := s.Resolve(*task, snap)
	if err := s.cache.Set(ctx, cacheKey, audience, s.cfg.AudienceCacheTTL); err != nil {
		s.logger.Warn("audience cache write failed", zap.String("task_id", taskID), zap.Error(err))
	}
	return audience, nil
}

// Resolve computes the audience of a task against one snapshot. It never
// fails: unresolvable scopes yield an empty audience plus a diagnostic code
// so callers can log the condition without mistaking it for "no one
// assigned".
func (s *AudienceService) Resolve(task models.Task, snap *Snapshot) models.Audience {
	var audience models.Audience

	switch task.AssignedTo {
	case models.AudienceStudent:
		audience = resolveStudentScoped(task, snap)
	default:
		audience = s.resolveCourseScoped(task, snap)
	}

	if s.metrics != nil {
		s.metrics.RecordAudienceResolution(string(task.AssignedTo), audience.Diagnostic)
	}
	if audience.Diagnostic != models.DiagnosticNone {
		s.logger.Info("audience resolution fell back",
			zap.String("task_id", task.ID),
			zap.String("scope_id", task.ScopeID),
			zap.String("diagnostic", audience.Diagnostic))
	}
	return audience
}

// resolveStudentScoped intersects the explicit id list with actual students
// so a stale or malformed list can never leak non-student ids.
func resolveStudentScoped(task models.Task, snap *Snapshot) models.Audience {
	students := snap.StudentIDs()
	ids := make([]string, 0, len(task.AssignedStudentIDs))
	seen := make(map[string]struct{}, len(task.AssignedStudentIDs))
	for _, id := range task.AssignedStudentIDs {
		if _, ok := students[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return models.Audience{StudentIDs: ids}
}

func (s *AudienceService) resolveCourseScoped(task models.Task, snap *Snapshot) models.Audience {
	ref := scope.Decode(task.ScopeID)

	if ref.Kind == scope.KindComposite {
		if !snap.Index.HasSection(ref.CourseID, ref.SectionID) {
			// The scope decoded cleanly but points at data that no
			// longer exists. Empty, not an error.
			return models.Audience{StudentIDs: []string{}, Diagnostic: models.DiagnosticScopeNotFound}
		}
		return models.Audience{StudentIDs: copyIDs(snap.Index.StudentsOfSection(ref.CourseID, ref.SectionID))}
	}

	if ref.Kind == scope.KindBare && s.cfg.SingleSectionFallback {
		sections := snap.Index.SectionsOfCourse(ref.CourseID)
		if len(sections) == 1 {
			return models.Audience{StudentIDs: copyIDs(snap.Index.StudentsOfSection(ref.CourseID, sections[0].ID))}
		}
		if len(sections) > 1 {
			// Guessing a section would leak the task to the wrong
			// students; surface the ambiguity instead.
			return models.Audience{StudentIDs: []string{}, Diagnostic: models.DiagnosticAmbiguous}
		}
	}

	if s.cfg.LabelFallback {
		if ids := resolveByLabel(ref, snap); len(ids) > 0 {
			return models.Audience{StudentIDs: ids, Diagnostic: models.DiagnosticLabelFallback}
		}
	}

	return models.Audience{StudentIDs: []string{}, Diagnostic: models.DiagnosticScopeNotFound}
}

// resolveByLabel is the last-resort path for legacy records that only carry
// the denormalized label. It cannot distinguish sections, so it only matches
// labels equal to the raw scope value or to the scope's resolved human label.
func resolveByLabel(ref scope.Ref, snap *Snapshot) []string {
	wanted := map[string]struct{}{ref.Raw: {}}
	if courseName, ok := snap.Index.CourseName(ref.CourseID); ok {
		if ref.Kind == scope.KindBare {
			wanted[courseName] = struct{}{}
		}
		if sectionName, ok := snap.Index.SectionName(ref.SectionID); ok && ref.SectionID != "" {
			wanted[courseLabel(courseName, sectionName)] = struct{}{}
		}
	}

	students := snap.StudentIDs()
	var ids []string
	for _, p := range snap.Profiles {
		if _, ok := students[p.UserID]; !ok {
			continue
		}
		for _, label := range p.ActiveCourseLabels {
			if _, ok := wanted[label]; ok {
				ids = append(ids, p.UserID)
				break
			}
		}
	}
	return ids
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
