// Package metrics provides the Prometheus registry reference for the user
// directory. Metrics are defined in their respective packages (directory,
// cache, api, client, pagination) to keep packages independent.
//
// This package documents all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the Prometheus registerer all userdir metrics are registered
// with via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served on /metrics.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Query Service Metrics (pkg/directory):
//   - userdir_list_requests_total{filter, outcome} (Counter): ListUsers calls.
//     filter is "all" or "letter"; outcome is "ok", "cached", "invalid" or "error"
//   - userdir_list_duration_seconds{filter} (Histogram): ListUsers latency
//   - userdir_users_created_total (Counter): Users inserted through CreateUser
//
// Page Cache Metrics (pkg/cache):
//   - userdir_page_cache_hits_total (Counter): Pages served from Redis
//   - userdir_page_cache_misses_total (Counter): Pages not found in Redis
//   - userdir_page_cache_invalidations_total (Counter): Generation bumps after writes
//   - userdir_page_cache_errors_total{operation} (Counter): Redis failures
//
// HTTP Metrics (pkg/api):
//   - userdir_http_requests_total{route, status} (Counter): Served requests
//   - userdir_http_request_duration_seconds{route} (Histogram): Handler latency
//
// Client Metrics (pkg/client):
//   - userdir_client_requests_total{endpoint, status} (Counter): API calls made
//   - userdir_client_request_duration_seconds{endpoint} (Histogram): API call latency
//   - userdir_client_errors_total{class} (Counter): Failures by class
//
// Consumer Metrics (pkg/pagination):
//   - userdir_consumer_fetches_total{outcome} (Counter): Completed fetches;
//     outcome is "loaded", "exhausted", "error" or "stale"
//
// Example Prometheus Queries:
//
//   # Page cache hit rate
//   sum(rate(userdir_page_cache_hits_total[5m])) /
//   (sum(rate(userdir_page_cache_hits_total[5m])) + sum(rate(userdir_page_cache_misses_total[5m])))
//
//   # Storage failure rate
//   rate(userdir_list_requests_total{outcome="error"}[5m])
//
//   # P95 list latency
//   histogram_quantile(0.95, rate(userdir_list_duration_seconds_bucket[5m]))
