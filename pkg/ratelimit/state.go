// Package ratelimit gates outgoing API requests after the server answers
// 429 Too Many Requests. The Retry-After header (seconds or HTTP date) sets
// when requests may resume; all workers share one Tracker.
package ratelimit

import (
	"time"
)

// DefaultBackoff is the pause applied when a 429 carries no usable Retry-After.
const DefaultBackoff = 5 * time.Second

// MaxBackoff caps the pause taken from a Retry-After header.
const MaxBackoff = 2 * time.Minute

// RateLimitState is the current throttling state.
type RateLimitState struct {
	// ResetAt is when requests may resume. Zero when never limited.
	ResetAt time.Time

	// LastLimited is when the last 429 was seen.
	LastLimited time.Time

	// Hits counts 429 responses seen so far.
	Hits int
}

// IsLimited returns true while the reset time lies in the future.
func (s RateLimitState) IsLimited() bool {
	return time.Now().Before(s.ResetAt)
}

// TimeUntilReset returns the duration until requests may resume.
// Returns 0 if the reset time has already passed.
func (s RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
