package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// DefaultInactivityPeriod is the fallback inactivity window in days.
const DefaultInactivityPeriod = 30

// DefaultNotificationThreshold is the count at or above which recommendations
// collapse into a single aggregate notification.
const DefaultNotificationThreshold = 20

type User struct {
	gorm.Model      `json:"-"`
	ID              uint              `json:"id" gorm:"primaryKey"`
	Name            string            `json:"name"`
	Email           string            `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password        string            `json:"-"`                        // Store hashed password, ignore for JSON serialization
	FCMToken        string            `json:"-"`                        // Optional device token for push delivery
	TikTokConnected bool              `json:"tiktok_connected"`
	Credentials     TikTokCredentials `json:"-" gorm:"embedded;embeddedPrefix:tiktok_"`
	Preferences     UserPreferences   `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
}

// TikTokCredentials are the session values the external TikTok capability needs.
type TikTokCredentials struct {
	MsToken   string `json:"-"`
	SessionID string `json:"-"`
	Username  string `json:"username"`
}

// UserPreferences controls the inactivity pipeline per user.
type UserPreferences struct {
	InactivityPeriod      int  `json:"inactivity_period"`      // days
	NotificationThreshold int  `json:"notification_threshold"` // count
	AutoUnfollowEnabled   bool `json:"auto_unfollow_enabled"`
}

// InactivityDays returns the configured window, falling back to the default.
func (p UserPreferences) InactivityDays() int {
	if p.InactivityPeriod > 0 {
		return p.InactivityPeriod
	}
	return DefaultInactivityPeriod
}

// Threshold returns the configured notification threshold, falling back to the default.
func (p UserPreferences) Threshold() int {
	if p.NotificationThreshold > 0 {
		return p.NotificationThreshold
	}
	return DefaultNotificationThreshold
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ConnectTikTokRequest struct {
	MsToken   string `json:"msToken" validate:"required"`
	SessionID string `json:"sessionId" validate:"required"`
	Username  string `json:"username" validate:"required"`
	FCMToken  string `json:"fcmToken,omitempty"`
}

type UpdatePreferencesRequest struct {
	NotificationThreshold *int  `json:"notificationThreshold,omitempty" validate:"omitempty,min=1"`
	InactivityPeriod      *int  `json:"inactivityPeriod,omitempty" validate:"omitempty,min=1"`
	AutoUnfollowEnabled   *bool `json:"autoUnfollowEnabled,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
