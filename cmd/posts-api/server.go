package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hatchways-assessment/posts-api/pkg/api"
	"github.com/hatchways-assessment/posts-api/pkg/cache"
	"github.com/hatchways-assessment/posts-api/pkg/client"
	"github.com/hatchways-assessment/posts-api/pkg/config"
	"github.com/hatchways-assessment/posts-api/pkg/posts"
	"github.com/hatchways-assessment/posts-api/pkg/ratelimit"
)

// app holds the wired service.
type app struct {
	server   *http.Server
	store    *cache.Store
	upstream *client.Client
}

// newApp wires limiter, client, aggregator, cache and router from cfg.
func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	limiter := ratelimit.New(cfg.Upstream.RateLimit, cfg.Upstream.RateBurst,
		logger.With().Str("component", "ratelimit").Logger())

	clientCfg := cfg.ClientConfig()
	clientCfg.Limiter = limiter
	upstream, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create upstream client: %w", err)
	}

	aggregator := posts.NewAggregator(upstream, posts.AggregatorConfig{
		MaxConcurrency: cfg.Upstream.MaxConcurrency,
	}, logger.With().Str("component", "aggregator").Logger())

	store := cache.NewStore()

	handler := api.NewRouter(api.Deps{
		Aggregator: aggregator,
		Cache:      store,
		CacheConfig: cache.MiddlewareConfig{
			TTL:    cfg.Cache.TTL,
			Policy: cfg.CachePolicy(),
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.With().Str("component", "http").Logger(),
	})

	return &app{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		store:    store,
		upstream: upstream,
	}, nil
}

// serve runs the service until ctx is cancelled, then shuts down gracefully.
// A nil listener listens on cfg.Addr().
func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger, ln net.Listener) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.upstream.Close()

	if ln == nil {
		ln, err = net.Listen("tcp", a.server.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
		}
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go a.store.RunJanitor(janitorCtx, cfg.Cache.CleanupInterval)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", ln.Addr().String()).
			Str("upstream", cfg.Upstream.BaseURL).
			Dur("cache_ttl", cfg.Cache.TTL).
			Str("cache_policy", string(cfg.CachePolicy())).
			Msg("Server listening")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Server forced to shutdown")
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("Server exited gracefully")
	return nil
}
