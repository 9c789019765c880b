package handlers

import (
	"net/http"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserHandler handles user account and TikTok-connection HTTP requests
type UserHandler struct {
	userRepository      repositories.UserRepository
	followingRepository repositories.FollowingRepository
	scanner             *services.InactivityScanner
	logger              *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followingRepo repositories.FollowingRepository, scanner *services.InactivityScanner, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userRepository:      userRepo,
		followingRepository: followingRepo,
		scanner:             scanner,
		logger:              logger,
	}
}

// RegisterUserRoutes registers user routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/tiktok-status", h.GetTikTokStatus)
	g.POST("/users/connect-tiktok", h.ConnectTikTok)
	g.POST("/users/disconnect-tiktok", h.DisconnectTikTok)
	g.GET("/users/following", h.GetFollowingList)
	g.GET("/users/inactive-following", h.GetInactiveFollowing)
	g.PUT("/users/preferences", h.UpdatePreferences)
}

// GetTikTokStatus returns whether the user has a connected TikTok account
func (h *UserHandler) GetTikTokStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		h.logger.Error("failed to load user", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"tiktokConnected": user.TikTokConnected})
}

// ConnectTikTok stores the user's TikTok session credentials
func (h *UserHandler) ConnectTikTok(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ConnectTikTokRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	creds := models.TikTokCredentials{
		MsToken:   req.MsToken,
		SessionID: req.SessionID,
		Username:  req.Username,
	}
	if err := h.userRepository.SetCredentials(currentUserID, creds, req.FCMToken); err != nil {
		h.logger.Error("failed to store credentials", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "TikTok account connected successfully"})
}

// DisconnectTikTok removes the user's TikTok session credentials
func (h *UserHandler) DisconnectTikTok(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.userRepository.ClearCredentials(currentUserID); err != nil {
		h.logger.Error("failed to clear credentials", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "TikTok account disconnected successfully"})
}

// GetFollowingList returns the user's active followings, least recently
// engaged first
func (h *UserHandler) GetFollowingList(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	following, err := h.followingRepository.ListActive(c.Request().Context(), currentUserID)
	if err != nil {
		h.logger.Error("failed to list followings", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, following)
}

// GetInactiveFollowing returns followings outside the inactivity window
// without flagging them
func (h *UserHandler) GetInactiveFollowing(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		h.logger.Error("failed to load user", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	inactive, err := h.scanner.FindInactive(c.Request().Context(), currentUserID, user.Preferences.InactivityDays())
	if err != nil {
		h.logger.Error("inactivity scan failed", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, inactive)
}

// UpdatePreferences updates the user's pipeline preferences
func (h *UserHandler) UpdatePreferences(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		h.logger.Error("failed to load user", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	prefs := user.Preferences
	if req.NotificationThreshold != nil {
		prefs.NotificationThreshold = *req.NotificationThreshold
	}
	if req.InactivityPeriod != nil {
		prefs.InactivityPeriod = *req.InactivityPeriod
	}
	if req.AutoUnfollowEnabled != nil {
		prefs.AutoUnfollowEnabled = *req.AutoUnfollowEnabled
	}

	if err := h.userRepository.UpdatePreferences(currentUserID, prefs); err != nil {
		h.logger.Error("failed to update preferences", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "preferences": prefs})
}
