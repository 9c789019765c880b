package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/internal/tiktok"
	"github.com/anorak42/tiktok-tracker/backend/pkg/metrics"
	"go.uber.org/zap"
)

// Schedule holds the wall-clock times of the calendar jobs.
type Schedule struct {
	InactiveCheckHour int          // daily
	AutoUnfollowHour  int          // daily
	SyncWeekday       time.Weekday // weekly
	SyncHour          int
}

// DefaultSchedule mirrors the production calendar: auto-unfollow at 02:00,
// inactive check at 03:00, sync on Sunday at 04:00.
var DefaultSchedule = Schedule{
	InactiveCheckHour: 3,
	AutoUnfollowHour:  2,
	SyncWeekday:       time.Sunday,
	SyncHour:          4,
}

// Scheduler owns the calendar-triggered invocations of the pipeline and
// exposes the manual-trigger entry points used by the scheduler and
// auto-unfollow HTTP routes. Per-user work is strictly sequential; the
// scheduled jobs themselves carry no overlap guard (only the executor's
// full sweep does).
type Scheduler struct {
	users       repositories.UserRepository
	scanner     *InactivityScanner
	recommender *Recommender
	executor    *AutoUnfollowExecutor
	sync        *tiktok.SyncRunner
	notifier    *Notifier
	schedule    Schedule
	logger      *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	users repositories.UserRepository,
	scanner *InactivityScanner,
	recommender *Recommender,
	executor *AutoUnfollowExecutor,
	syncRunner *tiktok.SyncRunner,
	notifier *Notifier,
	schedule Schedule,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		users:       users,
		scanner:     scanner,
		recommender: recommender,
		executor:    executor,
		sync:        syncRunner,
		notifier:    notifier,
		schedule:    schedule,
		logger:      logger,
	}
}

// Start launches the calendar loops. Call Stop to terminate them.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{}, 3)

	s.logger.Info("initializing following management scheduler",
		zap.Int("inactive_check_hour", s.schedule.InactiveCheckHour),
		zap.Int("auto_unfollow_hour", s.schedule.AutoUnfollowHour),
		zap.Stringer("sync_weekday", s.schedule.SyncWeekday),
		zap.Int("sync_hour", s.schedule.SyncHour))

	go s.runDaily(ctx, s.schedule.InactiveCheckHour, "inactive check", func(ctx context.Context) {
		if err := s.CheckInactiveAccounts(ctx); err != nil {
			s.logger.Error("scheduled inactive check failed", zap.Error(err))
		}
	})
	go s.runDaily(ctx, s.schedule.AutoUnfollowHour, "auto-unfollow sweep", func(ctx context.Context) {
		if err := s.executor.ProcessAll(ctx); err != nil && err != ErrAlreadyRunning {
			s.logger.Error("scheduled auto-unfollow failed", zap.Error(err))
		}
	})
	go s.runWeekly(ctx, s.schedule.SyncWeekday, s.schedule.SyncHour, "data sync", func(ctx context.Context) {
		if err := s.SyncAll(ctx); err != nil {
			s.logger.Error("scheduled sync failed", zap.Error(err))
		}
	})
}

// Stop terminates the calendar loops and waits for them to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	for i := 0; i < 3; i++ {
		<-s.done
	}
}

func (s *Scheduler) runDaily(ctx context.Context, hour int, name string, job func(context.Context)) {
	defer func() { s.done <- struct{}{} }()
	for {
		wait := time.Until(nextDailyRun(time.Now(), hour))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.logger.Info("running scheduled job", zap.String("job", name))
			job(ctx)
		}
	}
}

func (s *Scheduler) runWeekly(ctx context.Context, weekday time.Weekday, hour int, name string, job func(context.Context)) {
	defer func() { s.done <- struct{}{} }()
	for {
		wait := time.Until(nextWeeklyRun(time.Now(), weekday, hour))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.logger.Info("running scheduled job", zap.String("job", name))
			job(ctx)
		}
	}
}

// nextDailyRun returns the next occurrence of hour:00 strictly after now.
func nextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeeklyRun returns the next occurrence of weekday at hour:00 strictly
// after now.
func nextWeeklyRun(now time.Time, weekday time.Weekday, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// CheckInactiveAccounts scans every connected user, flags inactive
// relationships and raises scheduled-path notifications. Per-user failures
// are logged and do not abort the remaining users.
func (s *Scheduler) CheckInactiveAccounts(ctx context.Context) error {
	users, err := s.users.ListConnected()
	if err != nil {
		return fmt.Errorf("list connected users: %w", err)
	}
	s.logger.Info("checking inactive accounts", zap.Int("users", len(users)))

	for i := range users {
		user := &users[i]
		if err := s.checkUserInactive(ctx, user); err != nil {
			s.logger.Error("inactive check failed for user",
				zap.Uint("user_id", user.ID),
				zap.Error(err))
		}
	}
	s.logger.Info("completed checking inactive accounts")
	return nil
}

func (s *Scheduler) checkUserInactive(ctx context.Context, user *models.User) error {
	inactivityDays := user.Preferences.InactivityDays()
	inactive, err := s.scanner.FindInactive(ctx, user.ID, inactivityDays)
	if err != nil {
		return err
	}
	if len(inactive) == 0 {
		return nil
	}
	s.logger.Info("found inactive accounts",
		zap.Uint("user_id", user.ID),
		zap.Int("count", len(inactive)))

	if err := s.recommender.Mark(ctx, inactive); err != nil {
		return err
	}
	return s.recommender.NotifyScheduled(ctx, user.ID, inactive, inactivityDays, user.Preferences.Threshold())
}

// CheckInactiveForUser is the manual trigger scoped to one user: it scans
// and marks but raises no notifications, and reports the count and window.
func (s *Scheduler) CheckInactiveForUser(ctx context.Context, userID uint) (int, int, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return 0, 0, fmt.Errorf("user not found: %w", err)
	}
	inactivityDays := user.Preferences.InactivityDays()
	inactive, err := s.scanner.FindInactive(ctx, user.ID, inactivityDays)
	if err != nil {
		return 0, 0, err
	}
	if err := s.recommender.Mark(ctx, inactive); err != nil {
		return 0, 0, err
	}
	return len(inactive), inactivityDays, nil
}

// SyncAll runs the data-sync subprocess for every connected user,
// sequentially, and reports each outcome through a system alert.
func (s *Scheduler) SyncAll(ctx context.Context) error {
	users, err := s.users.ListConnected()
	if err != nil {
		return fmt.Errorf("list connected users: %w", err)
	}
	s.logger.Info("syncing TikTok data", zap.Int("users", len(users)))

	for i := range users {
		user := &users[i]
		if _, err := s.sync.Sync(ctx, user); err != nil {
			metrics.SyncRuns.WithLabelValues("error").Inc()
			s.logger.Error("sync failed for user", zap.Uint("user_id", user.ID), zap.Error(err))
			s.notifySync(ctx, user.ID, err)
			continue
		}
		metrics.SyncRuns.WithLabelValues("ok").Inc()
		s.notifySync(ctx, user.ID, nil)
	}
	s.logger.Info("completed syncing TikTok data")
	return nil
}

// SyncUser is the manual trigger scoped to one connected user.
func (s *Scheduler) SyncUser(ctx context.Context, userID uint) (*tiktok.SyncResult, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !user.TikTokConnected {
		return nil, fmt.Errorf("TikTok account not connected")
	}
	result, err := s.sync.Sync(ctx, user)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return result, err
	}
	metrics.SyncRuns.WithLabelValues("ok").Inc()
	return result, nil
}

func (s *Scheduler) notifySync(ctx context.Context, userID uint, syncErr error) {
	notification := &models.Notification{
		UserID: userID,
		Type:   models.NotificationSystemAlert,
	}
	if syncErr == nil {
		notification.Title = "TikTok Data Synced"
		notification.Message = "Your TikTok data has been successfully synced."
		notification.Data = map[string]interface{}{"timestamp": time.Now()}
	} else {
		notification.Title = "TikTok Data Sync Failed"
		notification.Message = "We encountered an error while syncing your TikTok data. Please check your connection settings."
		notification.Data = map[string]interface{}{
			"error":     syncErr.Error(),
			"timestamp": time.Now(),
		}
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.logger.Error("failed to create sync notification",
			zap.Uint("user_id", userID),
			zap.Error(err))
	}
}
