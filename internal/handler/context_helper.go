package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/smart-student/assignment-engine/internal/middleware"
	"github.com/smart-student/assignment-engine/internal/models"
)

// currentClaims extracts the authenticated claims from the gin context.
func currentClaims(c *gin.Context) *models.JWTClaims {
	if v, ok := c.Get(middleware.ContextUserKey); ok {
		if claims, ok := v.(*models.JWTClaims); ok {
			return claims
		}
	}
	return nil
}
