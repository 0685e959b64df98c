package ratelimit

import (
	"testing"
	"time"
)

func TestRateLimitState_IsLimited(t *testing.T) {
	tests := []struct {
		name    string
		resetAt time.Time
		want    bool
	}{
		{"never limited", time.Time{}, false},
		{"reset in future", time.Now().Add(10 * time.Second), true},
		{"reset passed", time.Now().Add(-10 * time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := RateLimitState{ResetAt: tt.resetAt}
			if got := state.IsLimited(); got != tt.want {
				t.Errorf("IsLimited() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimitState_TimeUntilReset(t *testing.T) {
	tests := []struct {
		name    string
		resetAt time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "future reset",
			resetAt: time.Now().Add(30 * time.Second),
			wantMin: 29 * time.Second,
			wantMax: 31 * time.Second,
		},
		{
			name:    "past reset",
			resetAt: time.Now().Add(-30 * time.Second),
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := RateLimitState{ResetAt: tt.resetAt}
			got := state.TimeUntilReset()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TimeUntilReset() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}
