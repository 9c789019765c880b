package handlers

import (
	"errors"
	"net/http"

	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NotificationHandler handles notification-inbox HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	logger                 *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		logger:                 logger,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read/:id", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// GetNotifications returns the user's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notifications, err := h.notificationRepository.ListByUser(c.Request().Context(), currentUserID)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, notifications)
}

// GetUnreadCount returns the user's unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.UnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		h.logger.Error("failed to count notifications", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), currentUserID, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		h.logger.Error("failed to mark notification read", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all the user's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID); err != nil {
		h.logger.Error("failed to mark notifications read", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteNotification deletes one of the user's notifications
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notificationRepository.Delete(c.Request().Context(), currentUserID, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		h.logger.Error("failed to delete notification", zap.Uint("user_id", currentUserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
