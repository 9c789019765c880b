package repositories

import (
	"context"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FollowingRepository defines the interface for follow-relationship operations
type FollowingRepository interface {
	ListActive(ctx context.Context, userID uint) ([]models.Following, error)
	FindInactive(ctx context.Context, userID uint, cutoff time.Time) ([]models.Following, error)
	FindAutoUnfollowCandidates(ctx context.Context, userID uint, cutoff time.Time) ([]models.Following, error)
	MarkRecommended(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	FindActiveByAccountID(ctx context.Context, userID uint, tiktokUserID string) (*models.Following, error)
	FindActiveByAccountIDs(ctx context.Context, userID uint, tiktokUserIDs []string) ([]models.Following, error)
	FindRecommendedByAccountID(ctx context.Context, userID uint, tiktokUserID string) (*models.Following, error)
	MarkUnfollowed(ctx context.Context, id primitive.ObjectID, at time.Time) error
	ClearRecommendation(ctx context.Context, id primitive.ObjectID, lastEngagement time.Time) error
}

type mongoFollowingRepository struct {
	collection *mongo.Collection
}

// NewMongoFollowingRepository creates a FollowingRepository backed by the
// "followings" collection.
func NewMongoFollowingRepository(db *mongo.Database) FollowingRepository {
	return &mongoFollowingRepository{collection: db.Collection("followings")}
}

func (r *mongoFollowingRepository) ListActive(ctx context.Context, userID uint) ([]models.Following, error) {
	filter := bson.M{"user_id": userID, "is_active": true}
	opts := options.Find().SetSort(bson.D{{Key: "last_engagement", Value: 1}})
	return r.find(ctx, filter, opts)
}

// FindInactive returns active relationships whose last engagement is before
// cutoff or was never observed. BSON null sorts before dates, so ascending
// order puts never-engaged relationships first.
func (r *mongoFollowingRepository) FindInactive(ctx context.Context, userID uint, cutoff time.Time) ([]models.Following, error) {
	filter := bson.M{
		"user_id":   userID,
		"is_active": true,
		"$or": bson.A{
			bson.M{"last_engagement": bson.M{"$lt": cutoff}},
			bson.M{"last_engagement": nil},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_engagement", Value: 1}})
	return r.find(ctx, filter, opts)
}

// FindAutoUnfollowCandidates returns flagged relationships still inactive past
// the cutoff. Never-engaged relationships are excluded here: without an
// observed engagement there is nothing to age against.
func (r *mongoFollowingRepository) FindAutoUnfollowCandidates(ctx context.Context, userID uint, cutoff time.Time) ([]models.Following, error) {
	filter := bson.M{
		"user_id":              userID,
		"is_active":            true,
		"unfollow_recommended": true,
		"last_engagement":      bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_engagement", Value: 1}})
	return r.find(ctx, filter, opts)
}

// MarkRecommended flags the given relationships. The filter re-checks
// is_active so a relationship deactivated between scan and mark is skipped.
// Returns the number of documents matched.
func (r *mongoFollowingRepository) MarkRecommended(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "is_active": true},
		bson.M{"$set": bson.M{"unfollow_recommended": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (r *mongoFollowingRepository) FindActiveByAccountID(ctx context.Context, userID uint, tiktokUserID string) (*models.Following, error) {
	var following models.Following
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":        userID,
		"tiktok_user_id": tiktokUserID,
		"is_active":      true,
	}).Decode(&following)
	if err != nil {
		return nil, err
	}
	return &following, nil
}

func (r *mongoFollowingRepository) FindActiveByAccountIDs(ctx context.Context, userID uint, tiktokUserIDs []string) ([]models.Following, error) {
	filter := bson.M{
		"user_id":        userID,
		"tiktok_user_id": bson.M{"$in": tiktokUserIDs},
		"is_active":      true,
	}
	return r.find(ctx, filter, options.Find())
}

func (r *mongoFollowingRepository) FindRecommendedByAccountID(ctx context.Context, userID uint, tiktokUserID string) (*models.Following, error) {
	var following models.Following
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":              userID,
		"tiktok_user_id":       tiktokUserID,
		"is_active":            true,
		"unfollow_recommended": true,
	}).Decode(&following)
	if err != nil {
		return nil, err
	}
	return &following, nil
}

// MarkUnfollowed deactivates a relationship and records when. The
// recommendation flag is cleared so the invariant "recommended implies
// active" holds.
func (r *mongoFollowingRepository) MarkUnfollowed(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":            false,
		"unfollowed_at":        at,
		"unfollow_recommended": false,
	}})
	return err
}

// ClearRecommendation removes the flag and resets last_engagement, which
// suppresses immediate re-recommendation on the next scan.
func (r *mongoFollowingRepository) ClearRecommendation(ctx context.Context, id primitive.ObjectID, lastEngagement time.Time) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"unfollow_recommended": false,
		"last_engagement":      lastEngagement,
	}})
	return err
}

func (r *mongoFollowingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Following, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var followings []models.Following
	if err = cursor.All(ctx, &followings); err != nil {
		return nil, err
	}
	return followings, nil
}
