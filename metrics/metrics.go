package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Subscription lifecycle metrics
	SubscriptionsActivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "Total number of premium subscriptions activated",
		},
	)

	PremiumDemotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_demotions_total",
			Help: "Total number of expired premium users demoted to viewer",
		},
		[]string{"source"},
	)

	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_sweep_runs_total",
			Help: "Total number of completed subscription expiry sweeps",
		},
	)

	SweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_sweep_failures_total",
			Help: "Total number of failed subscription expiry sweeps",
		},
	)

	ArticleViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "article_views_total",
			Help: "Total number of article view events recorded",
		},
	)
)
