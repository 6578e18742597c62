package directory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// listRequestsTotal counts list calls by filter kind and outcome
	listRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userdir_list_requests_total",
			Help: "Total number of user list requests",
		},
		[]string{"filter", "outcome"}, // filter: "all", "letter"; outcome: "ok", "invalid", "error", "cached"
	)

	// listDuration tracks list latency including cache lookups
	listDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "userdir_list_duration_seconds",
			Help:    "User list request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"filter"},
	)

	// usersCreatedTotal counts inserted users
	usersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "userdir_users_created_total",
			Help: "Total number of users created",
		},
	)
)

func filterLabel(letter string) string {
	if letter == "" {
		return "all"
	}
	return "letter"
}
