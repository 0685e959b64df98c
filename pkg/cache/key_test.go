package cache

import (
	"net/url"
	"strings"
	"testing"
)

func TestNewPageKey(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		query url.Values
		want  string
	}{
		{
			name: "no query",
			path: "/tags",
			want: "launch-export:tags",
		},
		{
			name:  "page only",
			path:  "/pads",
			query: url.Values{"page": {"2"}},
			want:  "launch-export:pads?page=2",
		},
		{
			name: "params sorted and escaped",
			path: "/launches",
			query: url.Values{
				"page":           {"1"},
				"modified_since": {"1930-01-01T19:02:00Z"},
				"after_date":     {"1930-01-01"},
			},
			want: "launch-export:launches?after_date=1930-01-01&modified_since=1930-01-01T19%3A02%3A00Z&page=1",
		},
		{
			name:  "only the access token",
			path:  "/vehicles/",
			query: url.Values{"key": {"secret"}},
			want:  "launch-export:vehicles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPageKey(tt.path, tt.query).String(); got != tt.want {
				t.Errorf("NewPageKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewPageKey_OmitsAccessToken(t *testing.T) {
	a := NewPageKey("/vehicles", url.Values{"key": {"token-a"}, "page": {"4"}})
	b := NewPageKey("/vehicles", url.Values{"key": {"token-b"}, "page": {"4"}})

	if strings.Contains(a.String(), "token-a") {
		t.Errorf("key %q leaks the access token", a)
	}
	if a != b {
		t.Errorf("keys differ by token: %q vs %q", a, b)
	}
}

func TestNewPageKey_DoesNotModifyQuery(t *testing.T) {
	query := url.Values{"key": {"secret"}, "page": {"1"}}
	NewPageKey("/tags", query)

	if query.Get("key") != "secret" {
		t.Error("NewPageKey removed the token from the caller's query")
	}
}

func TestNewPageKey_DistinguishesPages(t *testing.T) {
	p1 := NewPageKey("/missions", url.Values{"page": {"1"}})
	p10 := NewPageKey("/missions", url.Values{"page": {"10"}})

	if p1 == p10 {
		t.Errorf("pages 1 and 10 share key %q", p1)
	}
}
