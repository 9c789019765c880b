package services

import (
	"context"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/pkg/metrics"
	"go.uber.org/zap"
)

// PushSender delivers a push notification to a device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string) error
}

// Notifier creates inbox notifications and, when a push client and device
// token are available, mirrors them to the user's device. Push delivery is
// best effort; a failure never fails the inbox write.
type Notifier struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	push          PushSender // optional
	logger        *zap.Logger
}

// NewNotifier creates a Notifier. push may be nil.
func NewNotifier(notifications repositories.NotificationRepository, users repositories.UserRepository, push PushSender, logger *zap.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		users:         users,
		push:          push,
		logger:        logger,
	}
}

// Notify stores the notification and pushes it to the owner's device.
func (n *Notifier) Notify(ctx context.Context, notification *models.Notification) error {
	if err := n.notifications.Create(ctx, notification); err != nil {
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(notification.Type).Inc()

	if n.push == nil {
		return nil
	}
	user, err := n.users.GetUserByID(notification.UserID)
	if err != nil || user.FCMToken == "" {
		return nil
	}
	if err := n.push.Send(ctx, user.FCMToken, notification.Title, notification.Message); err != nil {
		n.logger.Warn("push delivery failed",
			zap.Uint("user_id", notification.UserID),
			zap.String("type", notification.Type),
			zap.Error(err))
	}
	return nil
}
