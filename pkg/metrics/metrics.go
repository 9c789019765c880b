package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InactiveScans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inactive_scans_total",
			Help: "Total number of per-user inactivity scans",
		},
	)

	RecommendationsMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unfollow_recommendations_marked_total",
			Help: "Total number of relationships flagged as unfollow candidates",
		},
	)

	UnfollowsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unfollows_executed_total",
			Help: "Total number of unfollow attempts by outcome",
		},
		[]string{"status"},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiktok_sync_runs_total",
			Help: "Total number of per-user TikTok data sync runs by outcome",
		},
		[]string{"status"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications created by type",
		},
		[]string{"type"},
	)
)
