package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launch_export_rate_limit_hits_total",
		Help: "Total number of 429 responses received",
	})

	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launch_export_rate_limit_waits_total",
		Help: "Total number of requests delayed by an active rate limit",
	})
)

// Tracker records rate limit responses and delays requests until the limit
// resets. It is safe for concurrent use.
type Tracker struct {
	logger zerolog.Logger

	mu    sync.Mutex
	state RateLimitState
}

// NewTracker creates a new rate limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		logger: logger,
	}
}

// GetState returns a copy of the current state.
func (t *Tracker) GetState() RateLimitState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// UpdateFromResponse records a response. Only 429 changes the state; the
// reset time is extended, never shortened, by concurrent updates.
func (t *Tracker) UpdateFromResponse(statusCode int, headers http.Header) {
	if statusCode != http.StatusTooManyRequests {
		return
	}

	wait := parseRetryAfter(headers.Get("Retry-After"), time.Now())
	now := time.Now()
	resetAt := now.Add(wait)

	t.mu.Lock()
	if resetAt.After(t.state.ResetAt) {
		t.state.ResetAt = resetAt
	}
	t.state.LastLimited = now
	t.state.Hits++
	hits := t.state.Hits
	t.mu.Unlock()

	rateLimitHitsTotal.Inc()
	t.logger.Warn().
		Dur("retry_after", wait).
		Int("hits", hits).
		Msg("API rate limit reached - pausing requests")
}

// Wait blocks until the current limit resets or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	wait := t.GetState().TimeUntilReset()
	if wait <= 0 {
		return nil
	}

	rateLimitWaitsTotal.Inc()
	t.logger.Debug().Dur("wait_duration", wait).Msg("Waiting for rate limit reset")

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After value in seconds or as an HTTP date.
// Missing or invalid values give DefaultBackoff; results are capped at MaxBackoff.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultBackoff
	}

	var wait time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		wait = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		wait = at.Sub(now)
	} else {
		return DefaultBackoff
	}

	if wait < 0 {
		wait = 0
	}
	if wait > MaxBackoff {
		wait = MaxBackoff
	}
	return wait
}
