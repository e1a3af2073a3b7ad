package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/smart-student/assignment-engine/internal/models"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
)

type courseLister interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type sectionLister interface {
	ListAll(ctx context.Context) ([]models.Section, error)
}

type assignmentLister interface {
	ListAll(ctx context.Context) ([]models.Assignment, error)
	ChangeWatermark(ctx context.Context) (time.Time, error)
}

type userLister interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

type profileLister interface {
	ListAll(ctx context.Context) ([]models.UserProfile, error)
}

type audienceInvalidator interface {
	InvalidateAudiences(ctx context.Context) error
}

// Snapshot is one immutable view of the normalized data plus the index built
// from it. Readers always see a fully built snapshot; a new one is swapped in
// atomically when upstream data changes.
type Snapshot struct {
	Index       *AssignmentIndex
	Courses     []models.Course
	Sections    []models.Section
	Assignments []models.Assignment
	Users       []models.User
	Profiles    []models.UserProfile
	Watermark   time.Time
	BuiltAt     time.Time
}

// StudentIDs returns the ids of users with the student role.
func (s *Snapshot) StudentIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, u := range s.Users {
		if u.Role == models.RoleStudent {
			ids[u.ID] = struct{}{}
		}
	}
	return ids
}

// ProfileOf returns the stored profile for a user, zero-valued when absent.
func (s *Snapshot) ProfileOf(userID string) models.UserProfile {
	for _, p := range s.Profiles {
		if p.UserID == userID {
			return p
		}
	}
	return models.UserProfile{UserID: userID}
}

// SnapshotService owns the current snapshot. Loading is single-writer: the
// engine rebuilds after its own mutations and when the periodic watermark
// check detects out-of-band writes. Readers call Current and never block.
type SnapshotService struct {
	courses     courseLister
	sections    sectionLister
	assignments assignmentLister
	users       userLister
	profiles    profileLister
	cache       audienceInvalidator
	metrics     *MetricsService
	logger      *zap.Logger

	current atomic.Pointer[Snapshot]
}

// NewSnapshotService constructs the snapshot service.
func NewSnapshotService(courses courseLister, sections sectionLister, assignments assignmentLister, users userLister, profiles profileLister, cache audienceInvalidator, metrics *MetricsService, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		courses:     courses,
		sections:    sections,
		assignments: assignments,
		users:       users,
		profiles:    profiles,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// Load reads a consistent snapshot from the store and builds the index. It
// does not publish the result; Refresh does.
func (s *SnapshotService) Load(ctx context.Context) (*Snapshot, error) {
	watermark, err := s.assignments.ChangeWatermark(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read change watermark")
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list courses")
	}
	sections, err := s.sections.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list sections")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list assignments")
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list users")
	}
	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list profiles")
	}

	index := BuildAssignmentIndex(courses, sections, assignments)
	for _, diag := range index.Diagnostics() {
		s.logger.Warn("integrity violation excluded from index",
			zap.String("record_id", diag.AssignmentID),
			zap.String("code", diag.Code),
			zap.String("detail", diag.Detail))
	}

	return &Snapshot{
		Index:       index,
		Courses:     courses,
		Sections:    sections,
		Assignments: assignments,
		Users:       users,
		Profiles:    profiles,
		Watermark:   watermark,
		BuiltAt:     time.Now().UTC(),
	}, nil
}

// Refresh loads a new snapshot, swaps it in atomically and invalidates the
// audience cache so consumers re-resolve against fresh membership.
func (s *SnapshotService) Refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	if s.metrics != nil {
		s.metrics.RecordIndexRebuild(len(snap.Assignments), len(snap.Index.Diagnostics()))
	}
	if s.cache != nil {
		if err := s.cache.InvalidateAudiences(ctx); err != nil {
			s.logger.Warn("audience cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("snapshot refreshed",
		zap.Int("courses", len(snap.Courses)),
		zap.Int("sections", len(snap.Sections)),
		zap.Int("assignments", len(snap.Assignments)),
		zap.Time("watermark", snap.Watermark))
	return snap, nil
}

// Current returns the published snapshot, loading one on first use.
func (s *SnapshotService) Current(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// CheckWatermark compares the store watermark with the published snapshot's
// and refreshes when they diverge. Returns true when a refresh happened.
func (s *SnapshotService) CheckWatermark(ctx context.Context) (bool, error) {
	snap := s.current.Load()
	if snap == nil {
		_, err := s.Refresh(ctx)
		return err == nil, err
	}
	watermark, err := s.assignments.ChangeWatermark(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read change watermark")
	}
	if !watermark.After(snap.Watermark) {
		return false, nil
	}
	_, err = s.Refresh(ctx)
	return err == nil, err
}
