package services

import (
	"context"
	"fmt"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Recommender flags scanned relationships as unfollow candidates and raises
// notifications. The scheduled scan and the on-demand recommendations
// endpoint notify differently below the threshold; the two paths are kept
// separate on purpose (product intent for unifying them is unconfirmed).
type Recommender struct {
	followings repositories.FollowingRepository
	notifier   *Notifier
	logger     *zap.Logger
}

// NewRecommender creates a Recommender.
func NewRecommender(followings repositories.FollowingRepository, notifier *Notifier, logger *zap.Logger) *Recommender {
	return &Recommender{
		followings: followings,
		notifier:   notifier,
		logger:     logger,
	}
}

// Mark flags every relationship in the scan result. A single bulk update; an
// error means the batch is treated as not marked. Re-running re-flags
// already-flagged relationships, there is no dedup window.
func (r *Recommender) Mark(ctx context.Context, followings []models.Following) error {
	if len(followings) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, len(followings))
	for i, f := range followings {
		ids[i] = f.ID
	}
	matched, err := r.followings.MarkRecommended(ctx, ids)
	if err != nil {
		return fmt.Errorf("mark recommendations: %w", err)
	}
	metrics.RecommendationsMarked.Add(float64(matched))
	if matched < int64(len(ids)) {
		// Relationships deactivated between scan and mark are skipped.
		r.logger.Debug("some scanned relationships were no longer active",
			zap.Int64("matched", matched),
			zap.Int("scanned", len(ids)))
	}
	return nil
}

// NotifyScheduled raises notifications for the scheduled scan: at or above
// the threshold one aggregate notification, below it one per relationship.
func (r *Recommender) NotifyScheduled(ctx context.Context, userID uint, followings []models.Following, inactivityDays, threshold int) error {
	if len(followings) == 0 {
		return nil
	}
	if len(followings) >= threshold {
		return r.notifyAggregate(ctx, userID, len(followings), inactivityDays)
	}
	for _, f := range followings {
		err := r.notifier.Notify(ctx, &models.Notification{
			UserID:  userID,
			Type:    models.NotificationUnfollowSuggestion,
			Title:   "Inactive Account",
			Message: fmt.Sprintf("You haven't interacted with @%s in %d days.", f.Username, inactivityDays),
			Data: map[string]interface{}{
				"username":         f.Username,
				"tiktokUserId":     f.TikTokUserID,
				"inactivityPeriod": inactivityDays,
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// NotifyOnDemand raises notifications for the recommendations endpoint: one
// aggregate at or above the threshold, nothing below it.
func (r *Recommender) NotifyOnDemand(ctx context.Context, userID uint, followings []models.Following, inactivityDays, threshold int) error {
	if len(followings) == 0 || len(followings) < threshold {
		return nil
	}
	return r.notifyAggregate(ctx, userID, len(followings), inactivityDays)
}

func (r *Recommender) notifyAggregate(ctx context.Context, userID uint, count, inactivityDays int) error {
	return r.notifier.Notify(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationBatchUnfollow,
		Title:   "Inactive Accounts Found",
		Message: fmt.Sprintf("We found %d accounts you haven't interacted with in %d days.", count, inactivityDays),
		Data: map[string]interface{}{
			"count":            count,
			"inactivityPeriod": inactivityDays,
		},
	})
}
