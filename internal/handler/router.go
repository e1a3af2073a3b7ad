package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/smart-student/assignment-engine/internal/middleware"
	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Audience    *AudienceHandler
	Assignments *AssignmentHandler
	Reconcile   *ReconcileHandler
	Imports     *ImportHandler
	Exports     *ExportHandler
	Engine      *EngineHandler
}

// RegisterRoutes mounts all API routes under the given group. Mutating and
// administrative routes require a JWT plus a role; profile reads also accept
// the owning user.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth *service.AuthService) {
	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.GET("/auth/me", h.Auth.Me)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)

	protected.GET("/tasks/:id/audience", staff, h.Audience.TaskAudience)
	protected.POST("/audience/resolve", staff, h.Audience.Resolve)

	protected.POST("/assignments", admin, h.Assignments.Create)
	protected.PUT("/assignments/:id/section", admin, h.Assignments.Move)
	protected.DELETE("/assignments/:id", admin, h.Assignments.Delete)

	protected.GET("/profiles/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), "SELF"), h.Reconcile.Profile)
	protected.GET("/reconcile/preview", admin, h.Reconcile.Preview)
	protected.POST("/reconcile", admin, h.Reconcile.Run)

	protected.POST("/imports/grades", admin, h.Imports.Grades)
	protected.POST("/imports/failures.csv", admin, h.Imports.Failures)

	protected.GET("/sections/:courseId/:sectionId/roster.csv", staff, h.Exports.RosterCSV)
	protected.GET("/sections/:courseId/:sectionId/roster.pdf", staff, h.Exports.RosterPDF)

	protected.GET("/engine/status", staff, h.Engine.Status)
	protected.POST("/engine/refresh", admin, h.Engine.Refresh)
}
