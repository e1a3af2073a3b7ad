package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-student/assignment-engine/internal/service"
	"github.com/smart-student/assignment-engine/pkg/response"
)

// EngineHandler exposes snapshot status and manual refresh.
type EngineHandler struct {
	snapshots *service.SnapshotService
}

// NewEngineHandler constructs EngineHandler.
func NewEngineHandler(snapshots *service.SnapshotService) *EngineHandler {
	return &EngineHandler{snapshots: snapshots}
}

// Status godoc
// @Summary Current snapshot status
// @Tags Engine
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /engine/status [get]
func (h *EngineHandler) Status(c *gin.Context) {
	snap, err := h.snapshots.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	status := gin.H{
		"built_at":             snap.BuiltAt,
		"watermark":            snap.Watermark,
		"courses":              len(snap.Courses),
		"sections":             len(snap.Sections),
		"assignments":          len(snap.Assignments),
		"users":                len(snap.Users),
		"integrity_violations": snap.Index.Diagnostics(),
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Refresh godoc
// @Summary Rebuild the snapshot now
// @Tags Engine
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /engine/refresh [post]
func (h *EngineHandler) Refresh(c *gin.Context) {
	snap, err := h.snapshots.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"built_at": snap.BuiltAt, "watermark": snap.Watermark}, nil)
}
