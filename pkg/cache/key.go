package cache

import (
	"net/http"
	"strings"
)

// Key identifies a cached response: the request path plus the raw query
// string exactly as the client sent it. No normalization is applied, so
// "?a=1&b=2" and "?b=2&a=1" are different keys.
type Key struct {
	// Path is the request path (e.g., "/api/posts")
	Path string

	// RawQuery is the undecoded query string without the leading '?'
	RawQuery string
}

// String returns the request signature used as the store key.
//
// Example:
//
//	/api/posts?tags=science,health&sortBy=likes
func (k Key) String() string {
	if k.RawQuery == "" {
		return k.Path
	}
	return k.Path + "?" + k.RawQuery
}

// KeyFromRequest derives the cache key from the request line as received.
func KeyFromRequest(r *http.Request) Key {
	uri := r.RequestURI
	if uri == "" || strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return Key{Path: r.URL.EscapedPath(), RawQuery: r.URL.RawQuery}
	}

	path, query, _ := strings.Cut(uri, "?")
	return Key{Path: path, RawQuery: query}
}
