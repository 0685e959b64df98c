// Package cache stores raw API page bodies in Redis so a re-run within the
// TTL window does not hit the API again.
//
//	manager := cache.NewManager(redisClient, 15*time.Minute)
//	key := cache.NewPageKey("/launches", query)
//
//	entry, err := manager.Lookup(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then
//		_ = manager.Store(ctx, key, body)
//	}
//
// Only bodies that decoded as JSON are stored; failed attempts never reach
// the cache. Expiry is left to Redis. The access token is not part of the key.
package cache
