package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// consumerFetchesTotal counts completed consumer fetches by outcome
	consumerFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userdir_consumer_fetches_total",
			Help: "Total number of consumer page fetches by outcome",
		},
		[]string{"outcome"}, // "loaded", "exhausted", "error", "stale"
	)
)
