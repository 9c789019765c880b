package services

import (
	"context"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/anorak42/tiktok-tracker/backend/internal/repositories"
	"github.com/anorak42/tiktok-tracker/backend/pkg/metrics"
	"go.uber.org/zap"
)

// InactivityScanner finds active relationships with no engagement inside a
// user's inactivity window. It only reads; marking and notifying are the
// caller's decision.
type InactivityScanner struct {
	followings repositories.FollowingRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewInactivityScanner creates an InactivityScanner.
func NewInactivityScanner(followings repositories.FollowingRepository, logger *zap.Logger) *InactivityScanner {
	return &InactivityScanner{
		followings: followings,
		logger:     logger,
		now:        time.Now,
	}
}

// Cutoff returns the engagement cutoff for an inactivity window of the given
// number of days.
func (s *InactivityScanner) Cutoff(inactivityDays int) time.Time {
	return s.now().AddDate(0, 0, -inactivityDays)
}

// FindInactive returns the user's inactive relationships ordered by last
// engagement ascending, never-engaged first. Store errors surface to the
// caller; there is no retry here.
func (s *InactivityScanner) FindInactive(ctx context.Context, userID uint, inactivityDays int) ([]models.Following, error) {
	cutoff := s.Cutoff(inactivityDays)
	inactive, err := s.followings.FindInactive(ctx, userID, cutoff)
	if err != nil {
		return nil, err
	}
	metrics.InactiveScans.Inc()
	s.logger.Debug("inactivity scan completed",
		zap.Uint("user_id", userID),
		zap.Int("inactivity_days", inactivityDays),
		zap.Int("count", len(inactive)))
	return inactive, nil
}
