package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/smart-student/assignment-engine/internal/models"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
	"github.com/smart-student/assignment-engine/pkg/export"
)

var rosterHeaders = []string{"Estudiante", "RUT", "Curso", "Sección"}

// ExportService renders section rosters and sync failure lists for download.
type ExportService struct {
	snapshots *SnapshotService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(snapshots *SnapshotService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		snapshots: snapshots,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

func (s *ExportService) rosterDataset(ctx context.Context, courseID, sectionID string) (export.Dataset, string, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}

	courseName, ok := snap.Index.CourseName(courseID)
	if !ok {
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	sectionName, ok := snap.Index.SectionName(sectionID)
	if !ok || !snap.Index.HasSection(courseID, sectionID) {
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}

	usersByID := make(map[string]models.User, len(snap.Users))
	for _, u := range snap.Users {
		usersByID[u.ID] = u
	}

	dataset := export.Dataset{Headers: rosterHeaders}
	for _, studentID := range snap.Index.StudentsOfSection(courseID, sectionID) {
		user := usersByID[studentID]
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Estudiante": user.FullName,
			"RUT":        user.NaturalKey,
			"Curso":      courseName,
			"Sección":    sectionName,
		})
	}
	return dataset, courseLabel(courseName, sectionName), nil
}

// RosterCSV renders the current roster of a section as CSV.
func (s *ExportService) RosterCSV(ctx context.Context, courseID, sectionID string) ([]byte, error) {
	dataset, _, err := s.rosterDataset(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(dataset)
}

// RosterPDF renders the current roster of a section as PDF.
func (s *ExportService) RosterPDF(ctx context.Context, courseID, sectionID string) ([]byte, error) {
	dataset, title, err := s.rosterDataset(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}
	return s.pdf.Render(dataset, title)
}

// FailureCSV renders the failed natural keys of a sync report for manual
// reprocessing.
func (s *ExportService) FailureCSV(report models.SyncReport) ([]byte, error) {
	dataset := export.Dataset{Headers: []string{"doc_id"}}
	for _, key := range report.FailedKeys {
		dataset.Rows = append(dataset.Rows, map[string]string{"doc_id": key})
	}
	return s.csv.Render(dataset)
}
