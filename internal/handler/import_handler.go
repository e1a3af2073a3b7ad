package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/internal/service"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
	"github.com/smart-student/assignment-engine/pkg/response"
)

// ImportHandler exposes the bulk grade import endpoint. Rows arrive already
// parsed; file handling stays on the client side.
type ImportHandler struct {
	imports *service.ImportService
	exports *service.ExportService
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService, exports *service.ExportService) *ImportHandler {
	return &ImportHandler{imports: imports, exports: exports}
}

// ImportGradesRequest wraps the tabular rows of one import run.
type ImportGradesRequest struct {
	Rows []map[string]string `json:"rows" binding:"required"`
}

// Grades godoc
// @Summary Bulk import grade rows
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body handler.ImportGradesRequest true "Parsed rows"
// @Success 200 {object} response.Envelope
// @Router /imports/grades [post]
func (h *ImportHandler) Grades(c *gin.Context) {
	var req ImportGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid import payload"))
		return
	}

	report, err := h.imports.ImportGrades(c.Request.Context(), req.Rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Failures godoc
// @Summary Render a sync report's failed keys as CSV
// @Tags Imports
// @Accept json
// @Produce text/csv
// @Param payload body models.SyncReport true "Sync report"
// @Success 200 {string} string "CSV content"
// @Router /imports/failures.csv [post]
func (h *ImportHandler) Failures(c *gin.Context) {
	var report models.SyncReport
	if err := c.ShouldBindJSON(&report); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}

	data, err := h.exports.FailureCSV(report)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="import-failures.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
