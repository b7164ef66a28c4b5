package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cshaw-hub/hub-api/internal/middleware"
	"github.com/cshaw-hub/hub-api/internal/models"
)

// claimsFromContext extracts the authenticated user's claims set by the JWT
// middleware; nil when the route is unauthenticated.
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
