package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// FollowingHandler handles unfollow-recommendation HTTP requests
type FollowingHandler struct {
	userRepository      repositories.UserRepository
	followingRepository repositories.FollowingRepository
	scanner             *services.InactivityScanner
	recommender         *services.Recommender
	notifier            *services.Notifier
	logger              *zap.Logger
}

// NewFollowingHandler creates a new FollowingHandler
func NewFollowingHandler(
	userRepo repositories.UserRepository,
	followingRepo repositories.FollowingRepository,
	scanner *services.InactivityScanner,
	recommender *services.Recommender,
	notifier *services.Notifier,
	logger *zap.Logger,
) *FollowingHandler {
	return &FollowingHandler{
		userRepository:      userRepo,
		followingRepository: followingRepo,
		scanner:             scanner,
		recommender:         recommender,
		notifier:            notifier,
		logger:              logger,
	}
}

// RegisterFollowingRoutes registers following routes
func (h *FollowingHandler) RegisterFollowingRoutes(g *echo.Group) {
	g.GET("/following/recommendations", h.GetUnfollowRecommendations)
	g.POST("/following/unfollow/:tiktokUserId", h.UnfollowAccount)
	g.POST("/following/batch-unfollow", h.BatchUnfollow)
	g.POST("/following/ignore/:tiktokUserId", h.IgnoreRecommendation)
}

// GetUnfollowRecommendations scans the caller's followings, flags the
// inactive ones and returns them. The on-demand path only notifies when the
// count reaches the threshold.
func (h *FollowingHandler) GetUnfollowRecommendations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		h.logger.Error("failed to load user", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	inactivityDays := user.Preferences.InactivityDays()
	recommendations, err := h.scanner.FindInactive(ctx, currentUserID, inactivityDays)
	if err != nil {
		h.logger.Error("inactivity scan failed", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	if err := h.recommender.Mark(ctx, recommendations); err != nil {
		h.logger.Error("failed to mark recommendations", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
	if err := h.recommender.NotifyOnDemand(ctx, currentUserID, recommendations, inactivityDays, user.Preferences.Threshold()); err != nil {
		h.logger.Error("failed to notify", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, recommendations)
}

// UnfollowAccount unfollows a single TikTok account directly
func (h *FollowingHandler) UnfollowAccount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()
	tiktokUserID := c.Param("tiktokUserId")

	following, err := h.followingRepository.FindActiveByAccountID(ctx, currentUserID, tiktokUserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return echo.NewHTTPError(http.StatusNotFound, "Following relationship not found")
		}
		h.logger.Error("failed to load following", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	if err := h.followingRepository.MarkUnfollowed(ctx, following.ID, time.Now()); err != nil {
		h.logger.Error("failed to record unfollow", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	if err := h.notifier.Notify(ctx, &models.Notification{
		UserID:  currentUserID,
		Type:    models.NotificationUnfollowSuggestion,
		Title:   "Account Unfollowed",
		Message: fmt.Sprintf("You have unfollowed %s.", following.Username),
		Data: map[string]interface{}{
			"username":     following.Username,
			"tiktokUserId": tiktokUserID,
		},
	}); err != nil {
		h.logger.Error("failed to create notification", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Account unfollowed successfully"})
}

// BatchUnfollow unfollows multiple TikTok accounts. The response count
// reflects only relationships actually found; unknown ids are ignored.
func (h *FollowingHandler) BatchUnfollow(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()

	var req models.BatchUnfollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if len(req.TikTokUserIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request. tiktokUserIds array is required.")
	}

	followings, err := h.followingRepository.FindActiveByAccountIDs(ctx, currentUserID, req.TikTokUserIDs)
	if err != nil {
		h.logger.Error("failed to load followings", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
	if len(followings) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No active following relationships found")
	}

	now := time.Now()
	usernames := make([]string, len(followings))
	for i, f := range followings {
		if err := h.followingRepository.MarkUnfollowed(ctx, f.ID, now); err != nil {
			h.logger.Error("failed to record unfollow",
				zap.Uint("user_id", currentUserID),
				zap.String("tiktok_user_id", f.TikTokUserID),
				zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
		}
		usernames[i] = f.Username
	}

	if err := h.notifier.Notify(ctx, &models.Notification{
		UserID:  currentUserID,
		Type:    models.NotificationBatchUnfollow,
		Title:   "Accounts Unfollowed",
		Message: fmt.Sprintf("You have unfollowed %d accounts.", len(followings)),
		Data: map[string]interface{}{
			"count":     len(followings),
			"usernames": usernames,
		},
	}); err != nil {
		h.logger.Error("failed to create notification", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"message":         fmt.Sprintf("%d accounts unfollowed successfully", len(followings)),
		"unfollowedCount": len(followings),
	})
}

// IgnoreRecommendation clears the unfollow flag and resets last engagement
// to now, so an immediate re-scan does not re-include the relationship.
func (h *FollowingHandler) IgnoreRecommendation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()
	tiktokUserID := c.Param("tiktokUserId")

	following, err := h.followingRepository.FindRecommendedByAccountID(ctx, currentUserID, tiktokUserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return echo.NewHTTPError(http.StatusNotFound, "Unfollow recommendation not found")
		}
		h.logger.Error("failed to load following", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	if err := h.followingRepository.ClearRecommendation(ctx, following.ID, time.Now()); err != nil {
		h.logger.Error("failed to clear recommendation", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Unfollow recommendation ignored"})
}
