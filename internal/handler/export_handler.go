package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-student/assignment-engine/internal/service"
	"github.com/smart-student/assignment-engine/pkg/response"
)

// ExportHandler renders section rosters as downloadable files.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// RosterCSV godoc
// @Summary Export a section roster as CSV
// @Tags Exports
// @Produce text/csv
// @Param courseId path string true "Course ID"
// @Param sectionId path string true "Section ID"
// @Success 200 {string} string "CSV content"
// @Router /sections/{courseId}/{sectionId}/roster.csv [get]
func (h *ExportHandler) RosterCSV(c *gin.Context) {
	data, err := h.exports.RosterCSV(c.Request.Context(), c.Param("courseId"), c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="roster.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// RosterPDF godoc
// @Summary Export a section roster as PDF
// @Tags Exports
// @Produce application/pdf
// @Param courseId path string true "Course ID"
// @Param sectionId path string true "Section ID"
// @Success 200 {string} string "PDF content"
// @Router /sections/{courseId}/{sectionId}/roster.pdf [get]
func (h *ExportHandler) RosterPDF(c *gin.Context) {
	data, err := h.exports.RosterPDF(c.Request.Context(), c.Param("courseId"), c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="roster.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
