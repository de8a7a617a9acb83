package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hatchways-assessment/posts-api/pkg/metrics"
)

// Prometheus metrics for served HTTP requests.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds by method and route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	httpPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "http_panics_total",
		Help:      "Total handler panics recovered",
	})
)
