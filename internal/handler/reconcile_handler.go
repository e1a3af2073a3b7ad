package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-student/assignment-engine/internal/service"
	"github.com/smart-student/assignment-engine/pkg/response"
)

// ReconcileHandler exposes profile reconciliation endpoints.
type ReconcileHandler struct {
	reconciler *service.ReconcileService
}

// NewReconcileHandler constructs ReconcileHandler.
func NewReconcileHandler(reconciler *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// Profile godoc
// @Summary Stored vs computed profile for a student
// @Tags Profiles
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /profiles/{id} [get]
func (h *ReconcileHandler) Profile(c *gin.Context) {
	view, err := h.reconciler.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Preview godoc
// @Summary Dry-run the reconciliation pass
// @Tags Profiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reconcile/preview [get]
func (h *ReconcileHandler) Preview(c *gin.Context) {
	diffs, err := h.reconciler.Preview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diffs, nil, map[string]interface{}{"pending": len(diffs)})
}

// Run godoc
// @Summary Apply the reconciliation pass
// @Tags Profiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reconcile [post]
func (h *ReconcileHandler) Run(c *gin.Context) {
	diffs, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diffs, nil, map[string]interface{}{"applied": len(diffs)})
}
