package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/pkg/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ==========================
// Test Helper Functions
// ==========================

// newTestContext builds an echo context carrying the JWT claims the auth
// middleware would have set.
func newTestContext(t *testing.T, method, path, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validators.NewValidator()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

// httpStatus unwraps the status code of an echo.HTTPError, or falls back to
// the recorder for handlers that wrote a response directly.
func httpStatus(err error, rec *httptest.ResponseRecorder) int {
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	return rec.Code
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []models.User
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
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

type fakeFollowingRepo struct {
	mu    sync.Mutex
	items []models.Following
}

func (r *fakeFollowingRepo) ListActive(ctx context.Context, userID uint) ([]models.Following, error) {
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
	return out, nil
}

func (r *fakeFollowingRepo) FindAutoUnfollowCandidates(ctx context.Context, userID uint, cutoff time.Time) ([]models.Following, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Following
	for _, f := range r.items {
		if f.UserID == userID && f.IsActive && f.UnfollowRecommended && f.LastEngagement != nil && f.LastEngagement.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFollowingRepo) MarkRecommended(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
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
	r.mu.Lock()
	defer r.mu.Unlock()
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

type fakeEngagementRepo struct {
	mu       sync.Mutex
	recorded []models.Engagement
	stats    *models.EngagementStats
}

func (r *fakeEngagementRepo) Record(ctx context.Context, e *models.Engagement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = primitive.NewObjectID()
	r.recorded = append(r.recorded, *e)
	return nil
}

func (r *fakeEngagementRepo) ListByAccount(ctx context.Context, userID uint, tiktokUserID string, limit int) ([]models.Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Engagement
	for _, e := range r.recorded {
		if e.UserID == userID && e.TikTokUserID == tiktokUserID {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeEngagementRepo) StatsSince(ctx context.Context, userID uint, since time.Time) (*models.EngagementStats, error) {
	if r.stats != nil {
		return r.stats, nil
	}
	return &models.EngagementStats{ByType: map[string]int64{}}, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []models.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
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
