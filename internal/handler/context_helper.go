package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/middleware"
	"github.com/noah-isme/academic-planner-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext names the caller for audit fields; empty when auth is off.
func actorFromContext(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}
