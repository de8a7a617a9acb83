// Package ratelimit gates outgoing upstream requests with a token bucket.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hatchways-assessment/posts-api/pkg/metrics"
)

// Prometheus metrics for rate limiting.
var (
	upstreamThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "upstream_throttled_total",
		Help:      "Total number of upstream requests that had to wait for a rate limit token",
	})

	upstreamRateLimitRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "upstream_rate_limit_rejected_total",
		Help:      "Total number of upstream requests abandoned while waiting for a rate limit token",
	})
)

// Limiter throttles upstream requests. A nil or disabled Limiter lets every
// request through.
type Limiter struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a limiter allowing perSecond requests with the given burst.
// perSecond <= 0 disables limiting. burst <= 0 defaults to max(1, perSecond).
func New(perSecond float64, burst int, logger zerolog.Logger) *Limiter {
	if perSecond <= 0 {
		return &Limiter{logger: logger}
	}
	if burst <= 0 {
		burst = max(1, int(perSecond))
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

// Enabled reports whether the limiter throttles anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.limiter != nil
}

// Limit returns the configured requests per second, or 0 when disabled.
func (l *Limiter) Limit() float64 {
	if !l.Enabled() {
		return 0
	}
	return float64(l.limiter.Limit())
}

// Burst returns the configured bucket size, or 0 when disabled.
func (l *Limiter) Burst() int {
	if !l.Enabled() {
		return 0
	}
	return l.limiter.Burst()
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	if l.limiter.Allow() {
		return nil
	}

	upstreamThrottledTotal.Inc()
	l.logger.Debug().
		Float64("limit", l.Limit()).
		Int("burst", l.Burst()).
		Msg("Upstream request throttled")

	if err := l.limiter.Wait(ctx); err != nil {
		upstreamRateLimitRejectedTotal.Inc()
		return fmt.Errorf("wait for rate limit: %w", err)
	}
	return nil
}
