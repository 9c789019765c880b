package handlers

import (
	"net/http"

	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AutoUnfollowHandler exposes the manual auto-unfollow trigger.
type AutoUnfollowHandler struct {
	userRepository repositories.UserRepository
	executor       *services.AutoUnfollowExecutor
	logger         *zap.Logger
}

// NewAutoUnfollowHandler creates a new AutoUnfollowHandler
func NewAutoUnfollowHandler(userRepo repositories.UserRepository, executor *services.AutoUnfollowExecutor, logger *zap.Logger) *AutoUnfollowHandler {
	return &AutoUnfollowHandler{
		userRepository: userRepo,
		executor:       executor,
		logger:         logger,
	}
}

// RegisterAutoUnfollowRoutes registers auto-unfollow routes
func (h *AutoUnfollowHandler) RegisterAutoUnfollowRoutes(g *echo.Group) {
	g.POST("/auto-unfollow/trigger", h.Trigger)
}

// Trigger runs the auto-unfollow process for one user. This path does not
// take the full-sweep guard, matching the original semantics: a manual
// trigger can run alongside a scheduled sweep.
func (h *AutoUnfollowHandler) Trigger(c echo.Context) error {
	var req struct {
		UserID uint `json:"userId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "User ID is required")
	}

	user, err := h.userRepository.GetUserByID(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if !user.TikTokConnected {
		return echo.NewHTTPError(http.StatusBadRequest, "TikTok account not connected")
	}

	if err := h.executor.ProcessUser(c.Request().Context(), user); err != nil {
		h.logger.Error("manual auto-unfollow failed", zap.Uint("user_id", req.UserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to trigger auto-unfollow process")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Auto-unfollow process triggered successfully",
	})
}
