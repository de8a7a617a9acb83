package cache

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTTL is how long a captured response stays fresh
	DefaultTTL = 1 * time.Second

	// HeaderCache reports whether a response was served from the cache
	HeaderCache = "X-Cache"
)

// Policy decides which captured responses are stored.
type Policy string

const (
	// PolicySuccessOnly stores 2xx responses only.
	PolicySuccessOnly Policy = "success_only"

	// PolicyAll stores every response, including 4xx/5xx bodies.
	PolicyAll Policy = "all"
)

// Allows reports whether a response with the given status may be stored.
func (p Policy) Allows(status int) bool {
	switch p {
	case PolicyAll:
		return true
	default:
		return status >= 200 && status < 300
	}
}

// MiddlewareConfig configures the caching stage.
type MiddlewareConfig struct {
	// TTL is the freshness window of stored responses
	TTL time.Duration

	// Policy selects which statuses are stored
	Policy Policy
}

// DefaultMiddlewareConfig returns the default caching configuration.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		TTL:    DefaultTTL,
		Policy: PolicySuccessOnly,
	}
}

// Middleware wraps a handler with a store-then-forward response cache.
//
// On a hit the stored response is replayed and next is not called. On a
// miss next writes into a buffer; the captured response is stored (if the
// policy allows it) before it is forwarded to the caller.
func Middleware(store *Store, cfg MiddlewareConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicySuccessOnly
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := KeyFromRequest(r).String()

			// Step 1: Serve from cache
			if entry, ok := store.Get(key); ok {
				logger.Debug().
					Str("key", key).
					Dur("remaining", entry.RemainingAt(store.now())).
					Msg("Cache hit")
				writeEntry(w, entry, "HIT")
				return
			}

			logger.Debug().Str("key", key).Msg("Cache miss")

			// Step 2: Let the handler produce the response into a buffer
			rec := newRecorder()
			next.ServeHTTP(rec, r)

			entry := rec.entry()
			class := statusClass(entry.StatusCode)

			// Step 3: Store before forwarding
			if cfg.Policy.Allows(entry.StatusCode) {
				store.Put(key, entry, cfg.TTL)
				CacheStores.WithLabelValues(class).Inc()
			} else {
				CacheSkips.WithLabelValues(class).Inc()
				logger.Debug().
					Str("key", key).
					Int("status_code", entry.StatusCode).
					Msg("Response not cached by policy")
			}

			writeEntry(w, entry, "MISS")
		})
	}
}

// writeEntry copies a captured response onto w.
func writeEntry(w http.ResponseWriter, entry *Entry, cacheStatus string) {
	header := w.Header()
	for key, values := range entry.Headers {
		header[key] = append([]string(nil), values...)
	}
	header.Set(HeaderCache, cacheStatus)

	w.WriteHeader(entry.StatusCode)
	_, _ = w.Write(entry.Data)
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

// recorder buffers a handler's response so it can be stored before it is sent.
type recorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(p)
}

// entry snapshots the recorded response.
func (r *recorder) entry() *Entry {
	status := r.status
	if !r.wroteHeader {
		status = http.StatusOK
	}

	headers := r.header.Clone()
	if headers.Get("Content-Type") == "" && r.body.Len() > 0 {
		headers.Set("Content-Type", http.DetectContentType(r.body.Bytes()))
	}
	// Hop-specific headers are never replayed
	for key := range headers {
		if strings.EqualFold(key, "Connection") || strings.EqualFold(key, HeaderCache) {
			delete(headers, key)
		}
	}

	return &Entry{
		Data:       bytes.Clone(r.body.Bytes()),
		StatusCode: status,
		Headers:    headers,
	}
}
