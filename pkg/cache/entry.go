package cache

import (
	"net/http"
	"time"
)

// Entry represents a cached HTTP response.
// Entries are never mutated once stored; a later Put replaces them.
type Entry struct {
	// Data is the response body as it was sent to the caller
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Headers are the response headers written by the handler
	Headers http.Header `json:"headers"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when the response was captured
	CachedAt time.Time `json:"cached_at"`
}

// ExpiredAt reports whether the entry is stale at the given instant.
// An entry is only fresh strictly before Expires.
func (e *Entry) ExpiredAt(now time.Time) bool {
	return !now.Before(e.Expires)
}

// RemainingAt returns how long the entry stays fresh after now, or 0.
func (e *Entry) RemainingAt(now time.Time) time.Duration {
	if e.ExpiredAt(now) {
		return 0
	}
	return e.Expires.Sub(now)
}
