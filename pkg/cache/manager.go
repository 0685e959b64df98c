package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned by Lookup when no live entry exists.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned by Lookup for a value it cannot decode.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultTTL is used when NewManager gets a non-positive ttl.
const DefaultTTL = 15 * time.Minute

// Manager reads and writes page entries in Redis.
type Manager struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

// NewManager creates a manager whose entries live for ttl.
func NewManager(redisClient redis.UniversalClient, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// TTL returns the lifetime given to stored entries.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Lookup returns the entry stored under key, or ErrCacheMiss.
func (m *Manager) Lookup(ctx context.Context, key PageKey) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheMisses.Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		cacheErrors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || len(entry.Body) == 0 {
		cacheErrors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntry, key)
	}

	cacheHits.Inc()
	return &entry, nil
}

// Store saves body under key for the manager TTL. body must be valid JSON.
func (m *Manager) Store(ctx context.Context, key PageKey, body []byte) error {
	data, err := json.Marshal(Entry{Body: body, FetchedAt: time.Now()})
	if err != nil {
		cacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("encode entry %s: %w", key, err)
	}

	if err := m.redis.Set(ctx, key.String(), data, m.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry stored under key.
func (m *Manager) Delete(ctx context.Context, key PageKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
