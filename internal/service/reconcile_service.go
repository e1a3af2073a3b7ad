package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/smart-student/assignment-engine/internal/models"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
)

type profileWriter interface {
	ApplyDiff(ctx context.Context, diff models.ProfileDiff) error
}

// ProfileView pairs the stored profile cache row with the profile the
// current assignment data says the user should have.
type ProfileView struct {
	Stored   *models.UserProfile `json:"stored"`
	Computed models.ProfileDiff  `json:"computed"`
	InSync   bool                `json:"in_sync"`
}

// ReconcileService keeps the denormalized profile cache consistent with the
// normalized assignment table. Diff computation is pure; applying diffs and
// refreshing the snapshot are the only side effects, and both are idempotent
// so the pass can run after every mutation without coordination.
type ReconcileService struct {
	profiles  profileWriter
	snapshots *SnapshotService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewReconcileService constructs the reconcile service.
func NewReconcileService(profiles profileWriter, snapshots *SnapshotService, metrics *MetricsService, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{profiles: profiles, snapshots: snapshots, metrics: metrics, logger: logger}
}

// courseLabel renders the human label stored in profile caches. The format
// is load-bearing: legacy records are matched against it during audience
// label fallback.
func courseLabel(courseName, sectionName string) string {
	return fmt.Sprintf("%s - Sección %s", courseName, sectionName)
}

// ComputeProfileDiffs derives the target profile for every student in the
// snapshot and returns one diff per user whose stored profile differs.
// Running it twice on the same snapshot yields no diffs the second time.
func ComputeProfileDiffs(snap *Snapshot) []models.ProfileDiff {
	var diffs []models.ProfileDiff

	for _, user := range snap.Users {
		if user.Role != models.RoleStudent {
			continue
		}
		diff := profileTarget(snap, user.ID)
		if diff.Equal(snap.ProfileOf(user.ID)) {
			continue
		}
		diffs = append(diffs, diff)
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].UserID < diffs[j].UserID })
	return diffs
}

// profileTarget derives the profile a single student should carry.
func profileTarget(snap *Snapshot, userID string) models.ProfileDiff {
	sections := snap.Index.SectionsOfStudent(userID)
	labels := make([]string, 0, len(sections))
	var sectionLabel *string
	for _, sk := range sections {
		courseName, ok := snap.Index.CourseName(sk.CourseID)
		if !ok {
			continue
		}
		sectionName, ok := snap.Index.SectionName(sk.SectionID)
		if !ok {
			continue
		}
		labels = append(labels, courseLabel(courseName, sectionName))
		if sectionLabel == nil {
			// Single-label derivation from the first current assignment
			// in (courseID, sectionID) order. Students in several
			// sections at once keep only the first label; see DESIGN.md
			// before changing this to multi-value.
			name := sectionName
			sectionLabel = &name
		}
	}
	return models.ProfileDiff{UserID: userID, ActiveCourseLabels: labels, SectionLabel: sectionLabel}
}

// Profile returns the stored profile cache row next to the profile the
// current assignments imply, so callers can see drift without applying it.
func (s *ReconcileService) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for _, u := range snap.Users {
		if u.ID == userID && u.Role == models.RoleStudent {
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	computed := profileTarget(snap, userID)
	var stored *models.UserProfile
	for _, p := range snap.Profiles {
		if p.UserID == userID {
			cp := p
			stored = &cp
			break
		}
	}
	return &ProfileView{Stored: stored, Computed: computed, InSync: computed.Equal(snap.ProfileOf(userID))}, nil
}

// Preview computes pending diffs against a freshly loaded snapshot without
// applying anything.
func (s *ReconcileService) Preview(ctx context.Context) ([]models.ProfileDiff, error) {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeProfileDiffs(snap), nil
}

// Reconcile runs one full pass: load, diff, apply, refresh. It is invoked
// synchronously after assignment mutations and after bulk imports finish.
func (s *ReconcileService) Reconcile(ctx context.Context) ([]models.ProfileDiff, error) {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}

	diffs := ComputeProfileDiffs(snap)
	for _, diff := range diffs {
		if err := s.profiles.ApplyDiff(ctx, diff); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to apply profile diff for user %s", diff.UserID))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordReconcilePass(len(diffs))
	}
	if len(diffs) > 0 {
		s.logger.Info("profile reconciliation applied", zap.Int("diffs", len(diffs)))
	}

	if _, err := s.snapshots.Refresh(ctx); err != nil {
		return diffs, err
	}
	return diffs, nil
}
