package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-student/assignment-engine/internal/service"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
	"github.com/smart-student/assignment-engine/pkg/response"
)

// AssignmentHandler exposes assignment mutation endpoints. Every mutation
// runs the synchronous reconciliation pass before returning, so dashboards
// never observe a stale profile after a roster change.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Create godoc
// @Summary Create a student or teacher assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload"))
		return
	}

	assignment, err := h.assignments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Move godoc
// @Summary Move an assignment to another section
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.MoveAssignmentRequest true "Target section"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/section [put]
func (h *AssignmentHandler) Move(c *gin.Context) {
	var req service.MoveAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid move payload"))
		return
	}

	assignment, err := h.assignments.Move(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Delete godoc
// @Summary Delete an assignment
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.assignments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
