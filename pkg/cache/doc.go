// Package cache provides an in-process HTTP response cache.
//
// Responses are keyed by the request signature: the path plus the raw query
// string exactly as received. Each entry is fresh for a fixed TTL and is
// never returned once that window has elapsed.
//
// # Basic Usage
//
//	store := cache.NewStore()
//
//	// Store a response for one second
//	store.Put("/api/ping", &cache.Entry{
//		Data:       body,
//		StatusCode: http.StatusOK,
//	}, time.Second)
//
//	// Read it back
//	if entry, ok := store.Get("/api/ping"); ok {
//		w.Write(entry.Data)
//	}
//
// # HTTP Middleware
//
// Middleware wraps a handler with a store-then-forward stage. On a miss the
// handler's output is buffered, stored, then sent; on a hit the handler is
// skipped entirely.
//
//	cached := cache.Middleware(store, cache.MiddlewareConfig{
//		TTL:    time.Second,
//		Policy: cache.PolicySuccessOnly,
//	}, logger)
//	router.Handle("/api/posts", cached(postsHandler))
//
// PolicySuccessOnly keeps 4xx/5xx bodies out of the cache. PolicyAll stores
// every response, validation errors included.
//
// # Metrics
//
//   - posts_api_cache_hits_total - Cache hits
//   - posts_api_cache_misses_total - Cache misses
//   - posts_api_cache_stores_total{status_class} - Stored responses
//   - posts_api_cache_skips_total{status_class} - Responses refused by policy
//   - posts_api_cache_entries - Entries currently held
//   - posts_api_cache_purged_total - Entries removed by the janitor
package cache
