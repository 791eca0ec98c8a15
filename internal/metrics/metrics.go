package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Results recorded on EngagementActions.
const (
	ResultApplied = "applied"
	ResultNoop    = "noop"
	ResultError   = "error"
)

var (
	// EngagementActions counts like/unlike/comment/follow/unfollow calls by outcome.
	EngagementActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_engagement_actions_total",
		Help: "Engagement and follow actions by action and result",
	}, []string{"action", "result"})

	// NotificationsEmitted counts fan-out rows by notification type.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_notifications_emitted_total",
		Help: "Notifications written by type",
	}, []string{"type"})

	// FeedRequests counts feed page reads by feed kind.
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_feed_requests_total",
		Help: "Feed page requests by feed",
	}, []string{"feed"})

	// FeedDuration tracks feed query latency.
	FeedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "social_feed_duration_seconds",
		Help:    "Feed page query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"feed"})

	// MessagesSent counts delivered direct messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "social_messages_sent_total",
		Help: "Direct messages stored",
	})

	// CountersRepaired counts posts whose denormalized counters had drifted
	// and were rewritten by reconciliation.
	CountersRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "social_counters_repaired_total",
		Help: "Posts whose like/comment counters were corrected by reconciliation",
	})

	// CacheLookups counts unread-counter cache reads by counter and outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_cache_lookups_total",
		Help: "Unread counter cache lookups by counter and result",
	}, []string{"counter", "result"})
)

// Action records one engagement action. applied=false with a nil error is a no-op.
func Action(action string, applied bool, err error) {
	result := ResultApplied
	switch {
	case err != nil:
		result = ResultError
	case !applied:
		result = ResultNoop
	}
	EngagementActions.WithLabelValues(action, result).Inc()
}

// ObserveFeed records a feed request and how long it took.
func ObserveFeed(feed string, start time.Time) {
	FeedRequests.WithLabelValues(feed).Inc()
	FeedDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}

// CacheLookup records a hit or a miss on a cached counter.
func CacheLookup(counter string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(counter, result).Inc()
}
