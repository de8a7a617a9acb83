// Package api exposes the HTTP surface: routes, handlers and request middleware.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hatchways-assessment/posts-api/pkg/cache"
	"github.com/hatchways-assessment/posts-api/pkg/metrics"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Aggregator     Aggregator
	Cache          *cache.Store
	CacheConfig    cache.MiddlewareConfig
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter builds the service handler. /, /api/ping and /api/posts are
// served through the response cache; /health and /metrics never are.
func NewRouter(deps Deps) http.Handler {
	h := NewHandlers(deps.Aggregator, deps.Logger)
	cached := cache.Middleware(deps.Cache, deps.CacheConfig, deps.Logger.With().Str("component", "cache").Logger())

	router := mux.NewRouter()

	router.Handle("/", cached(http.HandlerFunc(h.Home))).Methods(http.MethodGet, http.MethodHead)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Handle("/ping", cached(http.HandlerFunc(h.Ping))).Methods(http.MethodGet, http.MethodHead)
	apiRouter.Handle("/posts", cached(http.HandlerFunc(h.Posts))).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Middleware
	router.Use(RequestID)
	router.Use(Logging(deps.Logger))
	router.Use(Recover(deps.Logger))

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, cache.HeaderCache},
	})

	return otelhttp.NewHandler(c.Handler(router), "posts-api")
}
