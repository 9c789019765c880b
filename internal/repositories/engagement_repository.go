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

// EngagementRepository defines the interface for engagement-log operations
type EngagementRepository interface {
	Record(ctx context.Context, engagement *models.Engagement) error
	ListByAccount(ctx context.Context, userID uint, tiktokUserID string, limit int) ([]models.Engagement, error)
	StatsSince(ctx context.Context, userID uint, since time.Time) (*models.EngagementStats, error)
}

type mongoEngagementRepository struct {
	collection *mongo.Collection
}

// NewMongoEngagementRepository creates an EngagementRepository backed by the
// "engagements" collection. The sync sidecar writes to the same collection.
func NewMongoEngagementRepository(db *mongo.Database) EngagementRepository {
	return &mongoEngagementRepository{collection: db.Collection("engagements")}
}

func (r *mongoEngagementRepository) Record(ctx context.Context, engagement *models.Engagement) error {
	if engagement.ID.IsZero() {
		engagement.ID = primitive.NewObjectID()
	}
	if engagement.Timestamp.IsZero() {
		engagement.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, engagement)
	return err
}

func (r *mongoEngagementRepository) ListByAccount(ctx context.Context, userID uint, tiktokUserID string, limit int) ([]models.Engagement, error) {
	filter := bson.M{"user_id": userID, "tiktok_user_id": tiktokUserID}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var engagements []models.Engagement
	if err = cursor.All(ctx, &engagements); err != nil {
		return nil, err
	}
	return engagements, nil
}

// StatsSince aggregates engagement counts per type since the given time.
func (r *mongoEngagementRepository) StatsSince(ctx context.Context, userID uint, since time.Time) (*models.EngagementStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id":   userID,
			"timestamp": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$type",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := &models.EngagementStats{ByType: make(map[string]int64)}
	for cursor.Next(ctx) {
		var row struct {
			Type  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		stats.ByType[row.Type] = row.Count
		stats.Total += row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
