package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/internal/tiktok"
	"github.com/anorak42/tiktok-tracker/backend/pkg/metrics"
	"go.uber.org/zap"
)

// UnfollowClient is the external capability that executes one unfollow.
type UnfollowClient interface {
	Unfollow(ctx context.Context, req tiktok.UnfollowRequest) error
}

// PacingPolicy is the delay inserted between successive external unfollow
// calls, so batches never trip the platform's rate limits.
type PacingPolicy struct {
	Delay time.Duration
}

// DefaultPacing paces unfollows one second apart.
var DefaultPacing = PacingPolicy{Delay: time.Second}

// AutoUnfollowExecutor performs automatic unfollows for opted-in users.
// The full sweep is guarded against overlapping runs; per-user processing
// is not, matching the manual trigger's semantics.
type AutoUnfollowExecutor struct {
	users      repositories.UserRepository
	followings repositories.FollowingRepository
	notifier   *Notifier
	client     UnfollowClient
	pacing     PacingPolicy
	logger     *zap.Logger

	mu      sync.Mutex
	running bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// NewAutoUnfollowExecutor creates an executor. Each executor owns its own
// re-entrancy guard, so independent instances do not interfere.
func NewAutoUnfollowExecutor(
	users repositories.UserRepository,
	followings repositories.FollowingRepository,
	notifier *Notifier,
	client UnfollowClient,
	pacing PacingPolicy,
	logger *zap.Logger,
) *AutoUnfollowExecutor {
	if pacing.Delay <= 0 {
		pacing = DefaultPacing
	}
	return &AutoUnfollowExecutor{
		users:      users,
		followings: followings,
		notifier:   notifier,
		client:     client,
		pacing:     pacing,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// ErrAlreadyRunning is returned when a full sweep is invoked while another
// is in progress. The caller exits rather than queuing.
var ErrAlreadyRunning = fmt.Errorf("auto-unfollow process already running")

// ProcessAll runs the auto-unfollow sweep for every opted-in connected user,
// sequentially. A concurrent invocation observes the guard and returns
// ErrAlreadyRunning immediately.
func (e *AutoUnfollowExecutor) ProcessAll(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.logger.Info("auto-unfollow process already running, skipping")
		return ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	users, err := e.users.ListAutoUnfollowEnabled()
	if err != nil {
		return fmt.Errorf("list auto-unfollow users: %w", err)
	}
	e.logger.Info("starting auto-unfollow process", zap.Int("users", len(users)))

	for i := range users {
		if err := e.ProcessUser(ctx, &users[i]); err != nil {
			// Per-user failures do not abort the sweep.
			e.logger.Error("auto-unfollow failed for user",
				zap.Uint("user_id", users[i].ID),
				zap.Error(err))
		}
	}

	e.logger.Info("completed auto-unfollow process")
	return nil
}

// ProcessUser runs the auto-unfollow decision for a single user: above the
// notification threshold a pending notification is created and no unfollow
// happens; below it, candidates are unfollowed sequentially with pacing.
func (e *AutoUnfollowExecutor) ProcessUser(ctx context.Context, user *models.User) error {
	inactivityDays := user.Preferences.InactivityDays()
	threshold := user.Preferences.Threshold()
	cutoff := e.now().AddDate(0, 0, -inactivityDays)

	candidates, err := e.followings.FindAutoUnfollowCandidates(ctx, user.ID, cutoff)
	if err != nil {
		return fmt.Errorf("find candidates: %w", err)
	}
	if len(candidates) == 0 {
		e.logger.Debug("no accounts to auto-unfollow", zap.Uint("user_id", user.ID))
		return nil
	}

	if len(candidates) >= threshold {
		// Large batches need explicit confirmation through another path.
		return e.notifier.Notify(ctx, &models.Notification{
			UserID:  user.ID,
			Type:    models.NotificationAutoPending,
			Title:   "Auto-Unfollow Pending",
			Message: fmt.Sprintf("%d accounts are scheduled for auto-unfollowing. Review them in the Inactive Accounts section.", len(candidates)),
			Data: map[string]interface{}{
				"count":            len(candidates),
				"inactivityPeriod": inactivityDays,
			},
		})
	}

	unfollowed := e.unfollowBatch(ctx, user, candidates)

	if len(unfollowed) == 0 {
		return nil
	}
	accounts := make([]map[string]interface{}, len(unfollowed))
	for i, f := range unfollowed {
		accounts[i] = map[string]interface{}{
			"username":     f.Username,
			"tiktokUserId": f.TikTokUserID,
		}
	}
	return e.notifier.Notify(ctx, &models.Notification{
		UserID:  user.ID,
		Type:    models.NotificationAutoComplete,
		Title:   "Accounts Automatically Unfollowed",
		Message: fmt.Sprintf("%d inactive accounts were automatically unfollowed.", len(unfollowed)),
		Data: map[string]interface{}{
			"count":    len(unfollowed),
			"accounts": accounts,
		},
	})
}

// unfollowBatch executes the candidates sequentially and returns the subset
// that was durably unfollowed. Failures are logged and skipped; the
// relationship stays flagged for the next pass.
func (e *AutoUnfollowExecutor) unfollowBatch(ctx context.Context, user *models.User, candidates []models.Following) []models.Following {
	var unfollowed []models.Following
	for i, candidate := range candidates {
		if i > 0 {
			e.sleep(ctx, e.pacing.Delay)
		}
		if ctx.Err() != nil {
			break
		}

		err := e.client.Unfollow(ctx, tiktok.UnfollowRequest{
			UserID:       fmt.Sprintf("%d", user.ID),
			TikTokUserID: candidate.TikTokUserID,
			MsToken:      user.Credentials.MsToken,
			SessionID:    user.Credentials.SessionID,
		})
		if err != nil {
			metrics.UnfollowsExecuted.WithLabelValues("error").Inc()
			e.logger.Error("error unfollowing account",
				zap.Uint("user_id", user.ID),
				zap.String("tiktok_user_id", candidate.TikTokUserID),
				zap.Error(err))
			continue
		}

		if err := e.followings.MarkUnfollowed(ctx, candidate.ID, e.now()); err != nil {
			// The external unfollow happened but our record didn't update;
			// keep it out of the completion summary.
			metrics.UnfollowsExecuted.WithLabelValues("store_error").Inc()
			e.logger.Error("error recording unfollow",
				zap.Uint("user_id", user.ID),
				zap.String("tiktok_user_id", candidate.TikTokUserID),
				zap.Error(err))
			continue
		}

		metrics.UnfollowsExecuted.WithLabelValues("ok").Inc()
		unfollowed = append(unfollowed, candidate)
	}
	return unfollowed
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
