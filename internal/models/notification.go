package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types raised by the pipeline and manual actions.
const (
	NotificationBatchUnfollow      = "batch_unfollow"
	NotificationUnfollowSuggestion = "unfollow_suggestion"
	NotificationAutoPending        = "auto_unfollow_pending"
	NotificationAutoComplete       = "auto_unfollow_complete"
	NotificationSystemAlert        = "system_alert"
)

// Notification is a per-user inbox entry stored in MongoDB.
// Only the read flag mutates after creation; deletion is owner-initiated.
type Notification struct {
	ID        primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    uint                   `json:"user_id" bson:"user_id"`
	Type      string                 `json:"type" bson:"type"`
	Title     string                 `json:"title" bson:"title"`
	Message   string                 `json:"message" bson:"message"`
	Data      map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	Read      bool                   `json:"read" bson:"read"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
}
