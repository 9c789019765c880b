package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Following represents a user's follow of a TikTok account, stored in MongoDB.
// LastEngagement is nil when no interaction has ever been observed.
type Following struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID              uint               `json:"user_id" bson:"user_id"`
	TikTokUserID        string             `json:"tiktok_user_id" bson:"tiktok_user_id"`
	Username            string             `json:"username" bson:"username"`
	DisplayName         string             `json:"display_name" bson:"display_name"`
	ProfilePicture      string             `json:"profile_picture" bson:"profile_picture"`
	IsActive            bool               `json:"is_active" bson:"is_active"`
	LastEngagement      *time.Time         `json:"last_engagement" bson:"last_engagement"`
	UnfollowRecommended bool               `json:"unfollow_recommended" bson:"unfollow_recommended"`
	FollowedAt          time.Time          `json:"followed_at" bson:"followed_at"`
	UnfollowedAt        *time.Time         `json:"unfollowed_at,omitempty" bson:"unfollowed_at,omitempty"`
}

type BatchUnfollowRequest struct {
	TikTokUserIDs []string `json:"tiktokUserIds" validate:"required,min=1"`
}
