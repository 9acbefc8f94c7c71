package notifier

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Rate limit metrics live next to the limiter itself so every webhook
// implementation reports throttling the same way.
var (
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_rate_limit_hits_total",
			Help: "Sends that had to wait on the token bucket",
		},
		[]string{"channel"},
	)

	rateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_rate_limit_wait_seconds",
			Help:    "Seconds spent blocked on the token bucket",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"channel"},
	)
)

// rateLimitHitFloor separates genuine throttling from token bucket
// bookkeeping; waits shorter than this are not counted as hits.
const rateLimitHitFloor = time.Millisecond

// RateLimiter paces webhook sends with a token bucket so announcement bursts
// never trip the provider's own limits, recording how often and for how long
// sends had to wait.
type RateLimiter struct {
	channel string
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter returns a token bucket limiter labeled with channel on its
// metrics. Up to burst sends go through immediately; after that tokens refill
// at requestsPerSecond.
func NewRateLimiter(channel string, requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)
	return &RateLimiter{
		channel: channel,
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}
}

// Allow blocks until a token is available, returning the context's error if
// it is canceled first. Waits at or above rateLimitHitFloor count as hits on
// the channel's metrics.
func (r *RateLimiter) Allow(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	if wait := time.Since(start); wait >= rateLimitHitFloor {
		rateLimitHits.WithLabelValues(r.channel).Inc()
		rateLimitWaitSeconds.WithLabelValues(r.channel).Observe(wait.Seconds())
	}
	return nil
}
