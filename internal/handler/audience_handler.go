package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/internal/service"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
	"github.com/smart-student/assignment-engine/pkg/response"
)

// AudienceHandler exposes task audience resolution.
type AudienceHandler struct {
	audiences *service.AudienceService
	snapshots *service.SnapshotService
}

// NewAudienceHandler constructs AudienceHandler.
func NewAudienceHandler(audiences *service.AudienceService, snapshots *service.SnapshotService) *AudienceHandler {
	return &AudienceHandler{audiences: audiences, snapshots: snapshots}
}

// ResolveRequest is an ad hoc audience resolution payload: the addressing
// fields of a task without the task having to exist yet.
type ResolveRequest struct {
	AssignedTo         models.TaskAudienceMode `json:"assigned_to" binding:"required"`
	ScopeID            string                  `json:"scope_id"`
	AssignedStudentIDs []string                `json:"assigned_student_ids"`
}

// TaskAudience godoc
// @Summary Resolve the audience of a stored task
// @Tags Audience
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/audience [get]
func (h *AudienceHandler) TaskAudience(c *gin.Context) {
	audience, err := h.audiences.ResolveTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audience, nil)
}

// Resolve godoc
// @Summary Resolve an ad hoc audience
// @Tags Audience
// @Accept json
// @Produce json
// @Param payload body handler.ResolveRequest true "Addressing fields"
// @Success 200 {object} response.Envelope
// @Router /audience/resolve [post]
func (h *AudienceHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolve payload"))
		return
	}
	if req.AssignedTo != models.AudienceCourse && req.AssignedTo != models.AudienceStudent {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "assigned_to must be course or student"))
		return
	}

	snap, err := h.snapshots.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	task := models.Task{
		AssignedTo:         req.AssignedTo,
		ScopeID:            req.ScopeID,
		AssignedStudentIDs: pq.StringArray(req.AssignedStudentIDs),
	}
	response.JSON(c, http.StatusOK, h.audiences.Resolve(task, snap), nil)
}
