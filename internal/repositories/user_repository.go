package repositories

import (
	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListConnected() ([]models.User, error)
	ListAutoUnfollowEnabled() ([]models.User, error)
	SetCredentials(userID uint, creds models.TikTokCredentials, fcmToken string) error
	ClearCredentials(userID uint) error
	UpdatePreferences(userID uint, prefs models.UserPreferences) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) ListConnected() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("tik_tok_connected = ?", true).Find(&users).Error
	return users, err
}

func (r *PostgresUserRepository) ListAutoUnfollowEnabled() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("tik_tok_connected = ? AND pref_auto_unfollow_enabled = ?", true, true).Find(&users).Error
	return users, err
}

func (r *PostgresUserRepository) SetCredentials(userID uint, creds models.TikTokCredentials, fcmToken string) error {
	updates := map[string]interface{}{
		"tik_tok_connected": true,
		"tiktok_ms_token":   creds.MsToken,
		"tiktok_session_id": creds.SessionID,
		"tiktok_username":   creds.Username,
	}
	if fcmToken != "" {
		updates["fcm_token"] = fcmToken
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *PostgresUserRepository) ClearCredentials(userID uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"tik_tok_connected": false,
		"tiktok_ms_token":   "",
		"tiktok_session_id": "",
		"tiktok_username":   "",
	}).Error
}

func (r *PostgresUserRepository) UpdatePreferences(userID uint, prefs models.UserPreferences) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"pref_inactivity_period":      prefs.InactivityPeriod,
		"pref_notification_threshold": prefs.NotificationThreshold,
		"pref_auto_unfollow_enabled":  prefs.AutoUnfollowEnabled,
	}).Error
}
