package cache

import (
	"net/url"
	"strings"
)

// KeyPrefix namespaces every Redis key written by the cache.
const KeyPrefix = "launch-export:"

// secretParams are query parameters left out of cache keys.
var secretParams = []string{"key"}

// PageKey identifies one page request: path plus canonical query without
// the access token, e.g. "launch-export:launches?after_date=1930-01-01&page=2".
type PageKey string

// NewPageKey builds the key of a GET of path with query.
func NewPageKey(path string, query url.Values) PageKey {
	q := make(url.Values, len(query))
	for k, v := range query {
		q[k] = v
	}
	for _, secret := range secretParams {
		q.Del(secret)
	}

	key := KeyPrefix + strings.Trim(path, "/")
	if encoded := q.Encode(); encoded != "" {
		key += "?" + encoded
	}
	return PageKey(key)
}

// String returns the Redis key.
func (k PageKey) String() string {
	return string(k)
}
