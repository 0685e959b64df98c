package cache

import (
	"encoding/json"
	"time"
)

// Entry is a cached page body. Body is kept as raw JSON so stored values stay
// readable with redis-cli.
type Entry struct {
	Body      json.RawMessage `json:"body"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Age returns how long ago the body was fetched.
func (e *Entry) Age() time.Duration {
	return time.Since(e.FetchedAt)
}
