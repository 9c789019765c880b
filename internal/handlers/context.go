package handlers

import (
	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user's ID from the JWT
// claims placed in context by the auth middleware. Returns 0 when absent.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}
