package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/tiktok"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeFollowingRepo is an in-memory FollowingRepository mirroring the Mongo
// implementation's filter semantics.
type fakeFollowingRepo struct {
	mu       sync.Mutex
	items    []models.Following
	err      error
	failMark map[primitive.ObjectID]error // MarkUnfollowed failures per id
}

func (r *fakeFollowingRepo) ListActive(ctx context.Context, userID uint) ([]models.Following, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Following
	for _, f := range r.items {
		if f.UserID == userID && f.IsActive {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFollowingRepo) FindInactive(ctx context.Context, userID uint, cutoff time.Time) ([]models.Following, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Following
	for _, f := range r.items {
		if f.UserID != userID || !f.IsActive {
			continue
		}
		if f.LastEngagement == nil || f.LastEngagement.Before(cutoff) {
			out = append(out, f)
		}
	}
	// last engagement ascending, never-engaged first
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastEngagement == nil {
			return out[j].LastEngagement != nil
		}
		if out[j].LastEngagement == nil {
			return false
		}
		return out[i].LastEngagement.Before(*out[j].LastEngagement)
	})
	return out, nil
}

func (r *fakeFollowingRepo) FindAutoUnfollowCandidates(ctx context.Context, userID uint, cutoff time.Time) ([]models.Following, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Following
	for _, f := range r.items {
		if f.UserID != userID || !f.IsActive || !f.UnfollowRecommended {
			continue
		}
		if f.LastEngagement != nil && f.LastEngagement.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFollowingRepo) MarkRecommended(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched int64
	for _, id := range ids {
		for i := range r.items {
			if r.items[i].ID == id && r.items[i].IsActive {
				r.items[i].UnfollowRecommended = true
				matched++
			}
		}
	}
	return matched, nil
}

func (r *fakeFollowingRepo) FindActiveByAccountID(ctx context.Context, userID uint, tiktokUserID string) (*models.Following, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].UserID == userID && r.items[i].TikTokUserID == tiktokUserID && r.items[i].IsActive {
			f := r.items[i]
			return &f, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeFollowingRepo) FindActiveByAccountIDs(ctx context.Context, userID uint, tiktokUserIDs []string) ([]models.Following, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(tiktokUserIDs))
	for _, id := range tiktokUserIDs {
		wanted[id] = true
	}
	var out []models.Following
	for _, f := range r.items {
		if f.UserID == userID && f.IsActive && wanted[f.TikTokUserID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFollowingRepo) FindRecommendedByAccountID(ctx context.Context, userID uint, tiktokUserID string) (*models.Following, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		f := r.items[i]
		if f.UserID == userID && f.TikTokUserID == tiktokUserID && f.IsActive && f.UnfollowRecommended {
			return &f, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeFollowingRepo) MarkUnfollowed(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failMark[id]; ok {
		return err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].IsActive = false
			r.items[i].UnfollowRecommended = false
			r.items[i].UnfollowedAt = &at
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeFollowingRepo) ClearRecommendation(ctx context.Context, id primitive.ObjectID, lastEngagement time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].UnfollowRecommended = false
			r.items[i].LastEngagement = &lastEngagement
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeFollowingRepo) get(id primitive.ObjectID) *models.Following {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			f := r.items[i]
			return &f
		}
	}
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users []models.User
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uint(len(r.users) + 1)
	r.users = append(r.users, *user)
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == email {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ListConnected() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.TikTokConnected {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListAutoUnfollowEnabled() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.TikTokConnected && u.Preferences.AutoUnfollowEnabled {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetCredentials(userID uint, creds models.TikTokCredentials, fcmToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == userID {
			r.users[i].Credentials = creds
			r.users[i].TikTokConnected = true
			if fcmToken != "" {
				r.users[i].FCMToken = fcmToken
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ClearCredentials(userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == userID {
			r.users[i].Credentials = models.TikTokCredentials{}
			r.users[i].TikTokConnected = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdatePreferences(userID uint, prefs models.UserPreferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == userID {
			r.users[i].Preferences = prefs
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeNotificationRepo records created notifications.
type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []models.Notification
	err     error
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	r.created = append(r.created, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.created {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, userID uint, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.created {
		if r.created[i].UserID == userID && r.created[i].ID == id {
			r.created[i].Read = true
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.created {
		if r.created[i].UserID == userID {
			r.created[i].Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, userID uint, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.created {
		if r.created[i].UserID == userID && r.created[i].ID == id {
			r.created = append(r.created[:i], r.created[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeNotificationRepo) byType(typ string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.created {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// fakeUnfollowClient records unfollow calls and can fail specific accounts.
type fakeUnfollowClient struct {
	mu      sync.Mutex
	calls   []tiktok.UnfollowRequest
	failFor map[string]error // keyed by TikTokUserID
}

func (c *fakeUnfollowClient) Unfollow(ctx context.Context, req tiktok.UnfollowRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	if err, ok := c.failFor[req.TikTokUserID]; ok {
		return err
	}
	return nil
}

func daysAgo(base time.Time, days int) *time.Time {
	t := base.AddDate(0, 0, -days)
	return &t
}

func newFollowing(userID uint, tiktokID, username string, lastEngagement *time.Time, recommended bool) models.Following {
	return models.Following{
		ID:                  primitive.NewObjectID(),
		UserID:              userID,
		TikTokUserID:        tiktokID,
		Username:            username,
		IsActive:            true,
		LastEngagement:      lastEngagement,
		UnfollowRecommended: recommended,
		FollowedAt:          time.Now().AddDate(0, -6, 0),
	}
}
