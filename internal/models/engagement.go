package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Engagement kinds recorded by the sync sidecar.
const (
	EngagementLike          = "like"
	EngagementComment       = "comment"
	EngagementView          = "view"
	EngagementFYPAppearance = "fyp_appearance"
)

// Engagement is a single recorded interaction with a followed account's
// content, stored in MongoDB by the data-sync process.
type Engagement struct {
	ID           primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       uint                   `json:"user_id" bson:"user_id"`
	TikTokUserID string                 `json:"tiktok_user_id" bson:"tiktok_user_id"`
	ContentID    string                 `json:"content_id" bson:"content_id"`
	Type         string                 `json:"type" bson:"type"`
	Timestamp    time.Time              `json:"timestamp" bson:"timestamp"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// EngagementStats summarizes engagement counts per type over a window.
type EngagementStats struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
}
