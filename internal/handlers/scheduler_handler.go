package handlers

import (
	"fmt"
	"net/http"

	"github.com/anorak42/tiktok-tracker/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SchedulerHandler exposes the manual-trigger entry points of the scheduler
// for operational use.
type SchedulerHandler struct {
	scheduler *services.Scheduler
	logger    *zap.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(scheduler *services.Scheduler, logger *zap.Logger) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler, logger: logger}
}

// RegisterSchedulerRoutes registers scheduler routes
func (h *SchedulerHandler) RegisterSchedulerRoutes(g *echo.Group) {
	g.POST("/scheduler/check-inactive", h.CheckInactive)
	g.POST("/scheduler/sync-tiktok", h.SyncTikTok)
}

type manualTriggerRequest struct {
	UserID uint `json:"userId"`
}

// CheckInactive manually triggers the inactive-accounts check, for one user
// when userId is given, otherwise for all users.
func (h *SchedulerHandler) CheckInactive(c echo.Context) error {
	var req manualTriggerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	ctx := c.Request().Context()

	if req.UserID != 0 {
		count, days, err := h.scheduler.CheckInactiveForUser(ctx, req.UserID)
		if err != nil {
			h.logger.Error("manual inactive check failed", zap.Uint("user_id", req.UserID), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check inactive accounts")
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": fmt.Sprintf("Found %d inactive accounts (%d days threshold)", count, days),
		})
	}

	if err := h.scheduler.CheckInactiveAccounts(ctx); err != nil {
		h.logger.Error("manual inactive check failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check inactive accounts")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Inactive accounts check triggered for all users",
	})
}

// SyncTikTok manually triggers the data sync, for one user when userId is
// given, otherwise for all users.
func (h *SchedulerHandler) SyncTikTok(c echo.Context) error {
	var req manualTriggerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	ctx := c.Request().Context()

	if req.UserID != 0 {
		if _, err := h.scheduler.SyncUser(ctx, req.UserID); err != nil {
			h.logger.Error("manual sync failed", zap.Uint("user_id", req.UserID), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sync TikTok data")
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "TikTok data sync completed for user",
		})
	}

	if err := h.scheduler.SyncAll(ctx); err != nil {
		h.logger.Error("manual sync failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sync TikTok data")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "TikTok data sync triggered for all users",
	})
}
