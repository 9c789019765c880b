package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// unreadCountTTL bounds staleness if an invalidation is ever missed.
const unreadCountTTL = 5 * time.Minute

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkAsRead(ctx context.Context, userID uint, id primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, userID uint, id primitive.ObjectID) error
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
	cache      *redis.Client // optional; nil disables unread-count caching
}

// NewMongoNotificationRepository creates a NotificationRepository backed by
// the "notifications" collection, with an optional Redis cache for the
// unread count (the dashboard polls that endpoint).
func NewMongoNotificationRepository(db *mongo.Database, cache *redis.Client) NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection("notifications"),
		cache:      cache,
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return err
	}
	r.invalidateUnread(ctx, notification.UserID)
	return nil
}

func (r *mongoNotificationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, unreadKey(userID)).Result(); err == nil {
			if count, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
				return count, nil
			}
		}
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, err
	}
	if r.cache != nil {
		// Best effort; a failed cache write only costs a recount.
		r.cache.Set(ctx, unreadKey(userID), count, unreadCountTTL)
	}
	return count, nil
}

func (r *mongoNotificationRepository) MarkAsRead(ctx context.Context, userID uint, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	r.invalidateUnread(ctx, userID)
	return nil
}

func (r *mongoNotificationRepository) MarkAllAsRead(ctx context.Context, userID uint) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	r.invalidateUnread(ctx, userID)
	return nil
}

func (r *mongoNotificationRepository) Delete(ctx context.Context, userID uint, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	r.invalidateUnread(ctx, userID)
	return nil
}

func (r *mongoNotificationRepository) invalidateUnread(ctx context.Context, userID uint) {
	if r.cache != nil {
		r.cache.Del(ctx, unreadKey(userID))
	}
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}
