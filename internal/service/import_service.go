package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/internal/repository"
	"github.com/smart-student/assignment-engine/pkg/config"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
)

// gradeNamespace seeds deterministic document ids. Stable forever: changing
// it would re-key every imported grade.
var gradeNamespace = uuid.MustParse("8b7d2f10-6a7c-5b9e-9f43-1f2a62c0d9aa")

// Canonical import fields and their accepted header synonyms. Matching is
// case and accent insensitive.
var headerSynonyms = map[string][]string{
	"name":    {"nombre", "name", "estudiante", "student", "alumno"},
	"key":     {"rut", "id", "dni", "run"},
	"course":  {"curso", "course", "clase", "class", "grado", "grade"},
	"section": {"seccion", "section", "letra", "paralelo"},
	"subject": {"asignatura", "subject", "materia", "disciplina", "subject_name"},
	"grader":  {"profesor", "teacher", "docente", "evaluador", "grader"},
	"date":    {"fecha", "date", "timestamp"},
	"kind":    {"tipo", "type", "categoria", "category"},
	"score":   {"nota", "score", "calificacion", "puntos"},
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", time.RFC3339}

// ImportReport extends the sync summary with per-reason skip counts.
type ImportReport struct {
	models.SyncReport
	SkippedRows map[string]int       `json:"skipped_rows,omitempty"`
	Diffs       []models.ProfileDiff `json:"diffs,omitempty"`
}

type importReconciler interface {
	Reconcile(ctx context.Context) ([]models.ProfileDiff, error)
}

// ImportService turns pre-parsed tabular grade rows into idempotent upsert
// operations. File parsing and upload plumbing live with the caller; this
// service owns header mapping, row resolution and the sync handoff.
type ImportService struct {
	snapshots  *SnapshotService
	sync       *SyncService
	reconciler importReconciler
	cfg        config.ImportConfig
	logger     *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(snapshots *SnapshotService, sync *SyncService, reconciler importReconciler, cfg config.ImportConfig, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{snapshots: snapshots, sync: sync, reconciler: reconciler, cfg: cfg, logger: logger}
}

// ImportGrades maps, resolves and syncs a batch of rows, then triggers a
// reconciliation pass. A malformed row is skipped and counted, never fatal;
// re-running the same rows is idempotent because document ids derive from
// natural keys.
func (s *ImportService) ImportGrades(ctx context.Context, rows []map[string]string) (*ImportReport, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "grade imports are disabled")
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, "too many rows in one import")
	}

	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{SkippedRows: make(map[string]int)}
	ops := make([]models.UpsertOp, 0, len(rows))

	lookup := newImportLookup(snap)
	for _, row := range rows {
		op, reason := s.buildOp(row, lookup)
		if reason != "" {
			report.SkippedRows[reason]++
			continue
		}
		ops = append(ops, op)
	}

	report.SyncReport = s.sync.Apply(ctx, ops)
	report.SyncReport.Processed = len(rows)
	for _, n := range report.SkippedRows {
		report.SyncReport.Skipped += n
	}

	diffs, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Warn("post-import reconciliation failed", zap.Error(err))
	} else {
		report.Diffs = diffs
	}
	return report, nil
}

func (s *ImportService) buildOp(row map[string]string, lookup *importLookup) (models.UpsertOp, string) {
	fields := mapRow(row)

	student, ok := lookup.student(fields["key"], fields["name"])
	if !ok {
		return models.UpsertOp{}, "student_not_found"
	}
	course, ok := lookup.course(fields["course"])
	if !ok {
		return models.UpsertOp{}, "course_not_found"
	}
	section, ok := lookup.section(course.ID, fields["section"])
	if !ok {
		return models.UpsertOp{}, "section_not_found"
	}
	subject := normalizeToken(fields["subject"])
	if subject == "" {
		return models.UpsertOp{}, "subject_missing"
	}
	gradedAt, ok := parseDate(fields["date"])
	if !ok {
		return models.UpsertOp{}, "date_unparseable"
	}
	score, ok := parseScore(fields["score"])
	if !ok {
		return models.UpsertOp{}, "score_unparseable"
	}

	kind := normalizeToken(fields["kind"])
	if kind == "" {
		kind = "evaluacion"
	}

	record := models.GradeRecord{
		StudentID:   student.ID,
		StudentName: student.FullName,
		CourseID:    course.ID,
		SectionID:   section.ID,
		SubjectID:   subject,
		GraderName:  strings.TrimSpace(fields["grader"]),
		Kind:        kind,
		Score:       score,
		GradedAt:    gradedAt,
	}
	record.ID = gradeDocID(record)
	record.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return models.UpsertOp{}, "payload_unserializable"
	}
	return models.UpsertOp{
		DocID:     record.ID,
		Kind:      repository.UpsertKindGrade,
		Payload:   payload,
		UpdatedAt: record.UpdatedAt,
	}, ""
}

// gradeDocID derives the document id purely from natural keys so repeated
// imports of the same logical grade hit the same document.
func gradeDocID(r models.GradeRecord) string {
	natural := strings.Join([]string{
		r.StudentID, r.CourseID, r.SectionID, r.SubjectID, r.Kind,
		strconv.FormatInt(r.GradedAt.UTC().Unix(), 10),
	}, "|")
	return uuid.NewSHA1(gradeNamespace, []byte(natural)).String()
}

// mapRow projects a raw row onto canonical field names via the synonym
// table. Later synonyms never override an earlier match.
func mapRow(row map[string]string) map[string]string {
	normalized := make(map[string]string, len(row))
	for header, value := range row {
		normalized[normalizeToken(header)] = strings.TrimSpace(value)
	}

	fields := make(map[string]string, len(headerSynonyms))
	for canonical, synonyms := range headerSynonyms {
		for _, syn := range synonyms {
			if value, ok := normalized[syn]; ok && value != "" {
				fields[canonical] = value
				break
			}
		}
	}
	return fields
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
	"º", "", "°", "",
)

// normalizeToken lowercases, folds accents and collapses whitespace so
// "Sección" and "seccion" compare equal.
func normalizeToken(raw string) string {
	folded := accentFolder.Replace(strings.TrimSpace(raw))
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseScore(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if cleaned == "" {
		return 0, false
	}
	score, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// importLookup resolves row values against one snapshot using normalized
// names and natural keys.
type importLookup struct {
	studentsByKey  map[string]models.User
	studentsByName map[string]models.User
	coursesByName  map[string]models.Course
	sectionsByName map[string]map[string]models.Section
	snap           *Snapshot
}

func newImportLookup(snap *Snapshot) *importLookup {
	l := &importLookup{
		studentsByKey:  make(map[string]models.User),
		studentsByName: make(map[string]models.User),
		coursesByName:  make(map[string]models.Course),
		sectionsByName: make(map[string]map[string]models.Section),
		snap:           snap,
	}
	for _, u := range snap.Users {
		if u.Role != models.RoleStudent {
			continue
		}
		if u.NaturalKey != "" {
			l.studentsByKey[normalizeToken(u.NaturalKey)] = u
		}
		l.studentsByName[normalizeToken(u.FullName)] = u
	}
	for _, c := range snap.Courses {
		l.coursesByName[normalizeToken(c.Name)] = c
	}
	for _, s := range snap.Sections {
		byName, ok := l.sectionsByName[s.CourseID]
		if !ok {
			byName = make(map[string]models.Section)
			l.sectionsByName[s.CourseID] = byName
		}
		byName[normalizeToken(s.Name)] = s
	}
	return l
}

func (l *importLookup) student(key, name string) (models.User, bool) {
	if key != "" {
		if u, ok := l.studentsByKey[normalizeToken(key)]; ok {
			return u, true
		}
	}
	if name != "" {
		if u, ok := l.studentsByName[normalizeToken(name)]; ok {
			return u, true
		}
	}
	return models.User{}, false
}

func (l *importLookup) course(name string) (models.Course, bool) {
	c, ok := l.coursesByName[normalizeToken(name)]
	return c, ok
}

func (l *importLookup) section(courseID, name string) (models.Section, bool) {
	byName := l.sectionsByName[courseID]
	if name != "" {
		s, ok := byName[normalizeToken(name)]
		return s, ok
	}
	// No section column: accept only when the course has exactly one.
	if len(byName) == 1 {
		for _, s := range byName {
			return s, true
		}
	}
	return models.Section{}, false
}
