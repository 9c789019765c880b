package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TikTokHandler handles direct TikTok-data HTTP requests
type TikTokHandler struct {
	userRepository       repositories.UserRepository
	followingRepository  repositories.FollowingRepository
	engagementRepository repositories.EngagementRepository
	scheduler            *services.Scheduler
	logger               *zap.Logger
}

// NewTikTokHandler creates a new TikTokHandler
func NewTikTokHandler(
	userRepo repositories.UserRepository,
	followingRepo repositories.FollowingRepository,
	engagementRepo repositories.EngagementRepository,
	scheduler *services.Scheduler,
	logger *zap.Logger,
) *TikTokHandler {
	return &TikTokHandler{
		userRepository:       userRepo,
		followingRepository:  followingRepo,
		engagementRepository: engagementRepo,
		scheduler:            scheduler,
		logger:               logger,
	}
}

// RegisterTikTokRoutes registers TikTok data routes
func (h *TikTokHandler) RegisterTikTokRoutes(g *echo.Group) {
	g.POST("/tiktok/sync", h.Sync)
	g.POST("/tiktok/engagement", h.RecordEngagement)
	g.GET("/tiktok/engagement/:tiktokUserId", h.GetEngagementHistory)
	g.GET("/tiktok/engagement-stats", h.GetEngagementStats)
}

// Sync runs the data-sync process for the caller's connected account
func (h *TikTokHandler) Sync(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	result, err := h.scheduler.SyncUser(c.Request().Context(), currentUserID)
	if err != nil {
		if strings.Contains(err.Error(), "not connected") {
			return echo.NewHTTPError(http.StatusBadRequest, "TikTok account not connected")
		}
		h.logger.Error("sync failed", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "TikTok data sync completed",
		"result":  result,
	})
}

type recordEngagementRequest struct {
	TikTokUserID string                 `json:"tiktokUserId" validate:"required"`
	ContentID    string                 `json:"contentId"`
	Type         string                 `json:"type" validate:"required,oneof=like comment view fyp_appearance"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// RecordEngagement records an interaction reported by the client and, when
// the account is an active following, refreshes its last engagement so the
// next scan sees it as active again.
func (h *TikTokHandler) RecordEngagement(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	ctx := c.Request().Context()

	var req recordEngagementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	engagement := &models.Engagement{
		UserID:       currentUserID,
		TikTokUserID: req.TikTokUserID,
		ContentID:    req.ContentID,
		Type:         req.Type,
		Timestamp:    time.Now(),
		Metadata:     req.Metadata,
	}
	if err := h.engagementRepository.Record(ctx, engagement); err != nil {
		h.logger.Error("failed to record engagement", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	// Engaging with a flagged account withdraws its recommendation.
	if following, err := h.followingRepository.FindActiveByAccountID(ctx, currentUserID, req.TikTokUserID); err == nil {
		if err := h.followingRepository.ClearRecommendation(ctx, following.ID, engagement.Timestamp); err != nil {
			h.logger.Error("failed to refresh last engagement",
				zap.Uint("user_id", currentUserID),
				zap.String("tiktok_user_id", req.TikTokUserID),
				zap.Error(err))
		}
	}

	return c.JSON(http.StatusCreated, engagement)
}

// GetEngagementHistory returns recent engagements with one followed account,
// newest first.
func (h *TikTokHandler) GetEngagementHistory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	engagements, err := h.engagementRepository.ListByAccount(c.Request().Context(), currentUserID, c.Param("tiktokUserId"), limit)
	if err != nil {
		h.logger.Error("failed to list engagements", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, engagements)
}

// GetEngagementStats returns per-type engagement counts for a window given
// in days (default 30).
func (h *TikTokHandler) GetEngagementStats(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	days, _ := strconv.Atoi(c.QueryParam("days"))
	if days < 1 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	stats, err := h.engagementRepository.StatsSince(c.Request().Context(), currentUserID, since)
	if err != nil {
		h.logger.Error("failed to aggregate engagements", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "days": days, "stats": stats})
}
