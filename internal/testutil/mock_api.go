// Package testutil provides a mock launch data API for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the paginated JSON API.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount int
	pageCounts   map[string]int
	lastQuery    map[string]string
}

// NewMockAPI starts a mock server. Unknown paths answer 404.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]http.HandlerFunc),
		pageCounts: make(map[string]int),
		lastQuery:  make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pageCounts[pageKey(r.URL.Path, pageOf(r))]++
		mock.lastQuery[r.URL.Path] = r.URL.RawQuery
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if !exists {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		write(w, resp)
	})
}

// SetPages serves bodies[n-1] for ?page=n. A missing page parameter means
// page 1; pages past the end answer 404.
func (m *MockAPI) SetPages(path string, bodies ...string) {
	m.SetPageResponses(path, func(page int) MockResponse {
		if page < 1 || page > len(bodies) {
			return MockResponse{StatusCode: http.StatusNotFound, Body: `{"error": "no such page"}`}
		}
		return NewJSONResponse(bodies[page-1])
	})
}

// SetPageResponses serves fn(page) for every request to path.
func (m *MockAPI) SetPageResponses(path string, fn func(page int) MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		write(w, fn(pageOf(r)))
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PageRequests returns how often a page of path was requested.
func (m *MockAPI) PageRequests(path string, page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageCounts[pageKey(path, page)]
}

// LastQuery returns the raw query of the last request to path.
func (m *MockAPI) LastQuery(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery[path]
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewRateLimitResponse creates a 429 response asking to retry after retryAfter seconds.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After": strconv.Itoa(retryAfter),
		},
	}
}

// PageBody builds an API page: {"valid_auth":true,"count":n,"last_page":lastPage,"result":[...]}.
// Each result is a JSON object literal.
func PageBody(lastPage int, results ...string) string {
	return fmt.Sprintf(`{"valid_auth":true,"count":%d,"limit":25,"total":%d,"last_page":%d,"result":[%s]}`,
		len(results), len(results), lastPage, strings.Join(results, ","))
}

func write(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func pageOf(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

func pageKey(path string, page int) string {
	return path + "#" + strconv.Itoa(page)
}
